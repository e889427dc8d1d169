package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	"github.com/yourusername/dynequiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
	ws "github.com/yourusername/dynequiz-api/internal/websocket"
)

// Количество попыток генерации PIN при коллизии
const pinGenerationAttempts = 5

// GameService управляет жизненным циклом игровых сессий: создание комнаты,
// старт и завершение игры, прием ответов.
type GameService struct {
	sessions  repository.GameSessionRepository
	players   repository.PlayerRepository
	answers   repository.AnswerRepository
	quizzes   repository.QuizRepository
	questions repository.QuestionRepository
	users     repository.UserRepository
	registry  *ws.RoomRegistry
}

// NewGameService создает новый игровой сервис
func NewGameService(
	sessions repository.GameSessionRepository,
	players repository.PlayerRepository,
	answers repository.AnswerRepository,
	quizzes repository.QuizRepository,
	questions repository.QuestionRepository,
	users repository.UserRepository,
	registry *ws.RoomRegistry,
) *GameService {
	return &GameService{
		sessions:  sessions,
		players:   players,
		answers:   answers,
		quizzes:   quizzes,
		questions: questions,
		users:     users,
		registry:  registry,
	}
}

// HostGame создает игровую сессию для викторины и регистрирует комнату.
// Единственный путь появления комнаты в реестре.
func (s *GameService) HostGame(quizID, hostUserID, organizationID uint) (*entity.GameSession, error) {
	quiz, err := s.quizzes.GetWithQuestions(quizID, organizationID)
	if err != nil {
		return nil, err
	}
	if quiz.QuestionCount() == 0 {
		return nil, fmt.Errorf("quiz has no questions: %w", apperrors.ErrValidation)
	}

	order := make(entity.UintArray, 0, quiz.QuestionCount())
	for _, q := range quiz.Questions {
		order = append(order, q.ID)
	}

	var session *entity.GameSession
	for attempt := 0; attempt < pinGenerationAttempts; attempt++ {
		pin, pinErr := entity.NewGamePIN()
		if pinErr != nil {
			return nil, pinErr
		}

		candidate := &entity.GameSession{
			PIN:                  pin,
			QuizID:               quiz.ID,
			HostUserID:           hostUserID,
			Status:               entity.GameStatusWaiting,
			QuestionOrder:        order,
			QuestionTimeLimitSec: entity.DefaultMaxTimeSec,
			GameType:             entity.GameTypeClassic,
		}

		createErr := s.sessions.Create(candidate)
		if createErr == nil {
			session = candidate
			break
		}
		if !errors.Is(createErr, apperrors.ErrConflict) {
			return nil, createErr
		}
		log.Printf("[GameService] Коллизия PIN %s, попытка %d", pin, attempt+1)
	}
	if session == nil {
		return nil, fmt.Errorf("failed to generate a unique game PIN after %d attempts", pinGenerationAttempts)
	}

	if _, err := s.registry.CreateRoom(session.PIN, session); err != nil {
		return nil, err
	}

	log.Printf("[GameService] Сессия %d создана для викторины %d (PIN: %s)", session.ID, quiz.ID, session.PIN)
	return session, nil
}

// SessionDetail возвращает публичный снимок сессии по PIN:
// данные викторины, статус и число участников.
func (s *GameService) SessionDetail(pin string) (*ws.QuizInfoData, error) {
	session, err := s.sessions.GetByPIN(pin)
	if err != nil {
		return nil, err
	}

	playerCount := 0
	if room, ok := s.registry.Get(pin); ok {
		// Снимок комнаты актуальнее записи в БД
		snapshot := room.Session()
		session = &snapshot
		playerCount = room.MemberCount()
	} else {
		count, countErr := s.sessions.CountPlayers(session.ID)
		if countErr == nil {
			playerCount = int(count)
		}
	}

	return s.sessionSnapshot(session, playerCount)
}

// QuizInfo формирует снимок quiz_info для допущенного соединения
func (s *GameService) QuizInfo(room *ws.Room) (*ws.QuizInfoEvent, error) {
	session := room.Session()
	data, err := s.sessionSnapshot(&session, room.MemberCount())
	if err != nil {
		return nil, err
	}
	return &ws.QuizInfoEvent{
		Type: ws.QUIZ_INFO,
		Data: *data,
	}, nil
}

// sessionSnapshot собирает полный снимок состояния игры: данные викторины,
// тип и статус игры, ведущий и лимит времени на вопрос
func (s *GameService) sessionSnapshot(session *entity.GameSession, playerCount int) (*ws.QuizInfoData, error) {
	quiz, err := s.quizzes.Get(session.QuizID)
	if err != nil {
		return nil, err
	}

	hostUsername := ""
	if host, hostErr := s.users.GetByID(session.HostUserID); hostErr == nil {
		hostUsername = host.Username
	} else {
		log.Printf("[GameService] Не удалось найти ведущего %d сессии %d: %v", session.HostUserID, session.ID, hostErr)
	}

	return &ws.QuizInfoData{
		QuizName:       quiz.Name,
		Description:    quiz.Description,
		Difficulty:     quiz.Difficulty,
		TotalQuestions: len(session.QuestionOrder),
		GameType:       session.GameType,
		PIN:            session.PIN,
		Status:         session.Status,
		IsStarted:      session.IsStarted(),
		PlayerCount:    playerCount,
		HostID:         session.HostUserID,
		HostUsername:   hostUsername,
		TimeLimitSec:   session.QuestionTimeLimitSec,
	}, nil
}

// StartGame переводит игру waiting -> started по команде ведущего.
// Не-ведущий получает ErrForbidden: статус не меняется, рассылки нет.
// Повторный старт - ErrInvalidTransition только инициатору.
func (s *GameService) StartGame(pin string, principal ws.Principal) error {
	room, ok := s.registry.Get(pin)
	if !ok {
		return apperrors.ErrNotFound
	}

	if !principal.IsHost() {
		return apperrors.ErrForbidden
	}

	now := time.Now()
	err := room.WithSession(func(session *entity.GameSession) error {
		trial := *session
		if trialErr := trial.Start(now); trialErr != nil {
			return trialErr
		}
		if dbErr := s.sessions.UpdateStatus(session.ID, entity.GameStatusStarted, &now); dbErr != nil {
			return dbErr
		}
		*session = trial
		return nil
	})
	if err != nil {
		return err
	}

	event := ws.GameStartedEvent{
		Type:        ws.GAME_STARTED,
		RedirectURL: fmt.Sprintf("/game/%s/play", pin),
	}
	payload, _ := json.Marshal(event)
	room.Broadcast(payload)

	log.Printf("[GameService] Игра %s запущена ведущим %d", pin, principal.UserID)
	return nil
}

// EndGame переводит игру started -> ended по команде ведущего
func (s *GameService) EndGame(pin string, principal ws.Principal) error {
	room, ok := s.registry.Get(pin)
	if !ok {
		return apperrors.ErrNotFound
	}

	if !principal.IsHost() {
		return apperrors.ErrForbidden
	}

	now := time.Now()
	err := room.WithSession(func(session *entity.GameSession) error {
		trial := *session
		if trialErr := trial.End(now); trialErr != nil {
			return trialErr
		}
		if dbErr := s.sessions.UpdateStatus(session.ID, entity.GameStatusEnded, nil); dbErr != nil {
			return dbErr
		}
		*session = trial
		return nil
	})
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(ws.GameEndedEvent{Type: ws.GAME_ENDED})
	room.Broadcast(payload)

	log.Printf("[GameService] Игра %s завершена ведущим %d", pin, principal.UserID)
	return nil
}

// SubmitAnswer принимает ответ игрока на текущий вопрос идущей игры.
// Ответ принимается не более одного раза на вопрос: повторная отправка
// отклоняется с ErrConflict, источником истины служит уникальное
// ограничение БД.
func (s *GameService) SubmitAnswer(pin string, principal ws.Principal, data ws.SubmitAnswerData, now time.Time) (*entity.Answer, error) {
	if principal.Kind != ws.PrincipalRegisteredPlayer && principal.Kind != ws.PrincipalGuest {
		return nil, apperrors.ErrForbidden
	}

	room, ok := s.registry.Get(pin)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	session := room.Session()

	if err := session.CanAcceptAnswer(data.QuestionID); err != nil {
		return nil, err
	}

	question, err := s.questions.GetByID(data.QuestionID)
	if err != nil {
		return nil, err
	}
	if data.SelectedOption < 0 || data.SelectedOption >= question.OptionsCount() {
		return nil, fmt.Errorf("selected option out of range: %w", apperrors.ErrValidation)
	}

	timeRemaining := session.TimeRemaining(now)
	isCorrect := question.IsCorrect(data.SelectedOption)
	score := 0
	if isCorrect {
		score = entity.CalculateScore(timeRemaining, session.QuestionTimeLimitSec, entity.DefaultBasePoints)
	}

	answer := &entity.Answer{
		PlayerID:            principal.PlayerID,
		GameSessionID:       session.ID,
		QuestionID:          data.QuestionID,
		SelectedAnswer:      question.Options[data.SelectedOption],
		IsCorrect:           isCorrect,
		ResponseTimeSeconds: float64(session.QuestionTimeLimitSec) - timeRemaining,
		Score:               score,
	}

	if err := s.answers.Save(answer); err != nil {
		return nil, err
	}

	if score > 0 {
		if err := s.players.AddScore(principal.PlayerID, score); err != nil {
			log.Printf("[GameService] Не удалось начислить очки игроку %d: %v", principal.PlayerID, err)
		}
	}

	return answer, nil
}

// Registry возвращает реестр комнат сервиса
func (s *GameService) Registry() *ws.RoomRegistry {
	return s.registry
}
