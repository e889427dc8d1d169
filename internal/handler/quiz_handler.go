package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/dynequiz-api/internal/service"
)

// QuizHandler обрабатывает запросы, связанные с викторинами и вопросами
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// CreateQuizRequest представляет запрос на создание викторины
type CreateQuizRequest struct {
	Name        string   `json:"name" binding:"required,min=3,max=100"`
	Description string   `json:"description" binding:"omitempty,max=500"`
	Difficulty  string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Tags        []string `json:"tags"`
}

// QuestionIDsRequest представляет список ID вопросов для привязки к викторине
type QuestionIDsRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
}

// CreateQuestionRequest представляет запрос на создание вопроса
type CreateQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=3,max=500"`
	Options       []string `json:"options" binding:"required,min=2,max=6"`
	CorrectOption int      `json:"correct_option"`
	Difficulty    string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// requireOrganization извлекает организацию пользователя или отвечает 403
func requireOrganization(c *gin.Context) (uint, bool) {
	orgID, ok := currentOrganizationID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "User does not belong to an organization"})
	}
	return orgID, ok
}

// parseIDParam извлекает числовой параметр пути или отвечает 400
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// CreateQuiz обрабатывает запрос на создание викторины
// POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}

	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(orgID, currentUserID(c), req.Name, req.Description, req.Difficulty, req.Tags)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz возвращает викторину с вопросами
// GET /api/quizzes/:quiz_id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}
	quizID, ok := parseIDParam(c, "quiz_id")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuiz(quizID, orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListQuizzes возвращает викторины организации с пагинацией
// GET /api/quizzes?limit=20&offset=0
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	quizzes, err := h.quizService.ListQuizzes(orgID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes, "count": len(quizzes)})
}

// UpdateQuiz обновляет викторину
// PUT /api/quizzes/:quiz_id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}
	quizID, ok := parseIDParam(c, "quiz_id")
	if !ok {
		return
	}

	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.UpdateQuiz(quizID, orgID, req.Name, req.Description, req.Difficulty, req.Tags)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// DeleteQuiz удаляет викторину
// DELETE /api/quizzes/:quiz_id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}
	quizID, ok := parseIDParam(c, "quiz_id")
	if !ok {
		return
	}

	if err := h.quizService.DeleteQuiz(quizID, orgID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddQuestions привязывает существующие вопросы к викторине
// POST /api/quizzes/:quiz_id/questions
func (h *QuizHandler) AddQuestions(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}
	quizID, ok := parseIDParam(c, "quiz_id")
	if !ok {
		return
	}

	var req QuestionIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.quizService.AddQuestions(quizID, orgID, req.QuestionIDs); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveQuestions отвязывает вопросы от викторины
// DELETE /api/quizzes/:quiz_id/questions
func (h *QuizHandler) RemoveQuestions(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}
	quizID, ok := parseIDParam(c, "quiz_id")
	if !ok {
		return
	}

	var req QuestionIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.quizService.RemoveQuestions(quizID, orgID, req.QuestionIDs); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateQuestion создает вопрос в банке вопросов организации
// POST /api/questions
func (h *QuizHandler) CreateQuestion(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.CreateQuestion(orgID, req.Text, req.Options, req.CorrectOption, req.Difficulty)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ListQuestions возвращает банк вопросов организации с пагинацией
// GET /api/questions?limit=20&offset=0
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	questions, err := h.quizService.ListQuestions(orgID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions, "count": len(questions)})
}

// ImportQuestions загружает вопросы из XLSX файла.
// Файл принимается целиком или отклоняется целиком: при первой
// некорректной строке ни один вопрос не сохраняется.
// POST /api/questions/import (multipart/form-data, поле file)
func (h *QuizHandler) ImportQuestions(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	questions, err := h.quizService.ImportQuestionsFromXLSX(orgID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"imported": len(questions), "questions": questions})
}
