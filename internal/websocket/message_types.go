package websocket

import "encoding/json"

// Типы исходящих сообщений
const (
	QUIZ_INFO     = "quiz_info"
	PLAYER_JOINED = "player_joined"
	PLAYER_LEFT   = "player_left"
	GAME_STARTED  = "game_started"
	GAME_ENDED    = "game_ended"
	ERROR         = "error"
)

// Типы входящих сообщений
const (
	START_GAME    = "start_game"
	SUBMIT_ANSWER = "submit_answer"
)

// Event представляет входящее сообщение с типом и полезной нагрузкой
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// QuizInfoEvent отправляется допущенному соединению сразу после входа в комнату
type QuizInfoEvent struct {
	Type string       `json:"type"`
	Data QuizInfoData `json:"data"`
}

// QuizInfoData содержит снимок состояния игры для нового участника
type QuizInfoData struct {
	QuizName       string `json:"quiz_name"`
	Description    string `json:"description,omitempty"`
	Difficulty     string `json:"difficulty"`
	TotalQuestions int    `json:"total_questions"`
	GameType       string `json:"game_type"`
	PIN            string `json:"pin"`
	Status         string `json:"status"`
	IsStarted      bool   `json:"is_started"`
	PlayerCount    int    `json:"player_count"`
	HostID         uint   `json:"host_id"`
	HostUsername   string `json:"host_username"`
	TimeLimitSec   int    `json:"time_limit"`
}

// PlayerJoinedEvent рассылается остальным участникам комнаты при входе игрока
type PlayerJoinedEvent struct {
	Type     string `json:"type"`
	PlayerID uint   `json:"player_id"`
	Username string `json:"username"`
	AuthType string `json:"auth_type"`
}

// PlayerLeftEvent рассылается остальным участникам при выходе игрока
type PlayerLeftEvent struct {
	Type     string `json:"type"`
	PlayerID uint   `json:"player_id"`
	Username string `json:"username"`
}

// GameStartedEvent рассылается всей комнате при старте игры
type GameStartedEvent struct {
	Type        string `json:"type"`
	RedirectURL string `json:"redirect_url"`
}

// GameEndedEvent рассылается всей комнате при завершении игры
type GameEndedEvent struct {
	Type string `json:"type"`
}

// ErrorEvent отправляется только инициатору при ошибке обработки его сообщения
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SubmitAnswerData содержит полезную нагрузку сообщения submit_answer
type SubmitAnswerData struct {
	QuestionID     uint `json:"question_id"`
	SelectedOption int  `json:"selected_option"`
}

// NewErrorEvent формирует сериализованное сообщение об ошибке
func NewErrorEvent(message string) []byte {
	data, _ := json.Marshal(ErrorEvent{Type: ERROR, Message: message})
	return data
}
