package service

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	"github.com/yourusername/dynequiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// Минимальное количество вариантов ответа на вопрос
const minQuestionOptions = 2

// QuizService управляет викторинами и банком вопросов организации
type QuizService struct {
	quizzes   repository.QuizRepository
	questions repository.QuestionRepository
}

// NewQuizService создает новый сервис викторин
func NewQuizService(quizzes repository.QuizRepository, questions repository.QuestionRepository) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		questions: questions,
	}
}

// CreateQuiz создает викторину в организации пользователя
func (s *QuizService) CreateQuiz(organizationID, createdByID uint, name, description, difficulty string, tags []string) (*entity.Quiz, error) {
	if difficulty == "" {
		difficulty = entity.QuizDifficultyMedium
	}
	if err := validateDifficulty(difficulty); err != nil {
		return nil, err
	}

	quiz := &entity.Quiz{
		Name:           name,
		Description:    description,
		Difficulty:     difficulty,
		Tags:           entity.StringArray(tags),
		OrganizationID: organizationID,
		CreatedByID:    createdByID,
	}
	if err := s.quizzes.Create(quiz); err != nil {
		return nil, err
	}

	log.Printf("[QuizService] Викторина %d создана в организации %d", quiz.ID, organizationID)
	return quiz, nil
}

// GetQuiz возвращает викторину организации вместе с вопросами
func (s *QuizService) GetQuiz(id, organizationID uint) (*entity.Quiz, error) {
	return s.quizzes.GetWithQuestions(id, organizationID)
}

// ListQuizzes возвращает викторины организации с пагинацией
func (s *QuizService) ListQuizzes(organizationID uint, limit, offset int) ([]entity.Quiz, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.quizzes.ListByOrganization(organizationID, limit, offset)
}

// UpdateQuiz обновляет атрибуты викторины
func (s *QuizService) UpdateQuiz(id, organizationID uint, name, description, difficulty string, tags []string) (*entity.Quiz, error) {
	quiz, err := s.quizzes.GetByID(id, organizationID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		quiz.Name = name
	}
	if description != "" {
		quiz.Description = description
	}
	if difficulty != "" {
		if err := validateDifficulty(difficulty); err != nil {
			return nil, err
		}
		quiz.Difficulty = difficulty
	}
	if tags != nil {
		quiz.Tags = entity.StringArray(tags)
	}

	if err := s.quizzes.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// DeleteQuiz удаляет викторину организации
func (s *QuizService) DeleteQuiz(id, organizationID uint) error {
	return s.quizzes.Delete(id, organizationID)
}

// AddQuestions добавляет вопросы банка организации в викторину.
// Вопросы чужой организации отклоняются.
func (s *QuizService) AddQuestions(quizID, organizationID uint, questionIDs []uint) error {
	if _, err := s.quizzes.GetByID(quizID, organizationID); err != nil {
		return err
	}

	found, err := s.questions.GetByIDs(questionIDs, organizationID)
	if err != nil {
		return err
	}
	if len(found) != len(questionIDs) {
		return fmt.Errorf("some questions do not belong to the organization: %w", apperrors.ErrValidation)
	}

	return s.quizzes.AddQuestions(quizID, questionIDs)
}

// RemoveQuestions убирает вопросы из викторины
func (s *QuizService) RemoveQuestions(quizID, organizationID uint, questionIDs []uint) error {
	if _, err := s.quizzes.GetByID(quizID, organizationID); err != nil {
		return err
	}
	return s.quizzes.RemoveQuestions(quizID, questionIDs)
}

// CreateQuestion добавляет вопрос в банк организации
func (s *QuizService) CreateQuestion(organizationID uint, text string, options []string, correctOption int, difficulty string) (*entity.Question, error) {
	if err := validateQuestion(text, options, correctOption); err != nil {
		return nil, err
	}
	if difficulty == "" {
		difficulty = entity.QuizDifficultyMedium
	}
	if err := validateDifficulty(difficulty); err != nil {
		return nil, err
	}

	question := &entity.Question{
		OrganizationID: organizationID,
		Text:           text,
		Options:        entity.StringArray(options),
		CorrectOption:  correctOption,
		Difficulty:     difficulty,
	}
	if err := s.questions.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}

// ListQuestions возвращает банк вопросов организации с пагинацией
func (s *QuizService) ListQuestions(organizationID uint, limit, offset int) ([]entity.Question, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.questions.ListByOrganization(organizationID, limit, offset)
}

// ImportQuestionsFromXLSX импортирует вопросы из Excel-файла в банк организации.
// Формат листа: первая строка - заголовки, далее по строке на вопрос:
// текст, варианты ответа (2-4 колонки), номер правильного варианта (с 1),
// сложность (опционально). Импорт атомарен: любая некорректная строка
// отклоняет весь файл.
func (s *QuizService) ImportQuestionsFromXLSX(organizationID uint, reader io.Reader) ([]entity.Question, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", apperrors.ErrValidation)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets: %w", apperrors.ErrValidation)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("xlsx has no question rows: %w", apperrors.ErrValidation)
	}

	questions := make([]entity.Question, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue // Пустые строки пропускаем
		}

		text := strings.TrimSpace(row[0])

		// Последняя колонка - опциональная сложность,
		// перед ней номер правильного варианта, между - варианты ответа
		cells := row
		difficulty := entity.QuizDifficultyMedium
		if last := strings.TrimSpace(cells[len(cells)-1]); isDifficulty(last) {
			difficulty = last
			cells = cells[:len(cells)-1]
		}
		if len(cells) < 1+minQuestionOptions+1 {
			return nil, fmt.Errorf("row %d: not enough columns: %w", rowNum, apperrors.ErrValidation)
		}

		correctNum, convErr := strconv.Atoi(strings.TrimSpace(cells[len(cells)-1]))
		if convErr != nil {
			return nil, fmt.Errorf("row %d: correct option must be a number: %w", rowNum, apperrors.ErrValidation)
		}
		correctOption := correctNum - 1 // В файле нумерация с 1

		options := make([]string, 0, len(cells)-2)
		for _, cell := range cells[1 : len(cells)-1] {
			if cell = strings.TrimSpace(cell); cell != "" {
				options = append(options, cell)
			}
		}

		if err := validateQuestion(text, options, correctOption); err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		questions = append(questions, entity.Question{
			OrganizationID: organizationID,
			Text:           text,
			Options:        entity.StringArray(options),
			CorrectOption:  correctOption,
			Difficulty:     difficulty,
		})
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("xlsx has no question rows: %w", apperrors.ErrValidation)
	}

	if err := s.questions.CreateBatch(questions); err != nil {
		return nil, err
	}

	log.Printf("[QuizService] Импортировано %d вопросов в организацию %d", len(questions), organizationID)
	return questions, nil
}

// validateDifficulty проверяет допустимость уровня сложности
func validateDifficulty(difficulty string) error {
	switch difficulty {
	case entity.QuizDifficultyEasy, entity.QuizDifficultyMedium, entity.QuizDifficultyHard:
		return nil
	default:
		return fmt.Errorf("unknown difficulty %q: %w", difficulty, apperrors.ErrValidation)
	}
}

// isDifficulty проверяет, является ли значение уровнем сложности
func isDifficulty(value string) bool {
	return validateDifficulty(value) == nil
}

// validateQuestion проверяет корректность вопроса банка
func validateQuestion(text string, options []string, correctOption int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("question text is required: %w", apperrors.ErrValidation)
	}
	if len(options) < minQuestionOptions {
		return fmt.Errorf("question needs at least %d options: %w", minQuestionOptions, apperrors.ErrValidation)
	}
	if correctOption < 0 || correctOption >= len(options) {
		return fmt.Errorf("correct option out of range: %w", apperrors.ErrValidation)
	}
	return nil
}
