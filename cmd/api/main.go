package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/dynequiz-api/internal/config"
	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	"github.com/yourusername/dynequiz-api/internal/handler"
	"github.com/yourusername/dynequiz-api/internal/middleware"
	pgRepo "github.com/yourusername/dynequiz-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/dynequiz-api/internal/repository/redis"
	"github.com/yourusername/dynequiz-api/internal/service"
	ws "github.com/yourusername/dynequiz-api/internal/websocket"
	"github.com/yourusername/dynequiz-api/pkg/auth"
	"github.com/yourusername/dynequiz-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	orgRepo := pgRepo.NewOrganizationRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	sessionRepo := pgRepo.NewGameSessionRepo(db)
	playerRepo := pgRepo.NewPlayerRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT сервис
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWT service: %v", err)
		os.Exit(1)
	}

	// Реестр комнат с пулом воркеров для рассылки
	roomRegistry := ws.NewRoomRegistry(cfg.WebSocket.Workers.BroadcastWorkers)

	// Инициализируем сервисы
	authService := service.NewAuthService(userRepo, cacheRepo, jwtService,
		time.Duration(cfg.Auth.RefreshTokenLifetime)*time.Hour)
	orgService := service.NewOrganizationService(orgRepo, userRepo)
	quizService := service.NewQuizService(quizRepo, questionRepo)
	playerService := service.NewPlayerService(playerRepo,
		time.Duration(cfg.Auth.GuestTokenLifetime)*time.Hour)
	gameService := service.NewGameService(sessionRepo, playerRepo, answerRepo, quizRepo, questionRepo, userRepo, roomRegistry)
	identityResolver := service.NewIdentityResolver(jwtService, sessionRepo, playerRepo)

	// Инициализируем обработчики
	wsManager := ws.NewManager()
	authHandler := handler.NewAuthHandler(authService)
	orgHandler := handler.NewOrgHandler(orgService)
	quizHandler := handler.NewQuizHandler(quizService)
	gameHandler := handler.NewGameHandler(gameService, playerService)
	wsHandler := handler.NewWSHandler(identityResolver, gameService, playerService, wsManager)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Настраиваем маршрутизатор
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://localhost:8000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}

		// Организации и их участники
		orgs := api.Group("/organizations")
		orgs.Use(authMiddleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("/me", orgHandler.MyOrganization)
			orgs.GET("/me/members", authMiddleware.RequireRole(entity.OrgRoleAdmin), orgHandler.Members)
		}

		// Викторины и банк вопросов организации
		quizzes := api.Group("/quizzes")
		quizzes.Use(authMiddleware.RequireAuth())
		{
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("", quizHandler.ListQuizzes)
			quizzes.GET("/:quiz_id", quizHandler.GetQuiz)
			quizzes.PUT("/:quiz_id", quizHandler.UpdateQuiz)
			quizzes.DELETE("/:quiz_id", quizHandler.DeleteQuiz)
			quizzes.POST("/:quiz_id/questions", quizHandler.AddQuestions)
			quizzes.DELETE("/:quiz_id/questions", quizHandler.RemoveQuestions)

			// Единственный путь появления игровой комнаты
			quizzes.POST("/:quiz_id/game-session", gameHandler.HostGame)
		}

		questions := api.Group("/questions")
		questions.Use(authMiddleware.RequireAuth())
		{
			questions.POST("", quizHandler.CreateQuestion)
			questions.GET("", quizHandler.ListQuestions)
			questions.POST("/import", quizHandler.ImportQuestions)
		}

		// Публичный снимок игровой сессии по PIN
		api.GET("/game-session/:pin", gameHandler.SessionDetail)

		// Игровые профили
		players := api.Group("/players")
		{
			players.POST("/guest", gameHandler.CreateGuest)

			authedPlayers := players.Group("")
			authedPlayers.Use(authMiddleware.RequireAuth())
			{
				authedPlayers.POST("", gameHandler.CreatePlayer)
				authedPlayers.GET("/me", gameHandler.MyPlayer)
			}
		}

		// Статистика WebSocket-подсистемы
		api.GET("/ws/metrics", authMiddleware.RequireAuth(), wsHandler.Metrics)
	}

	// WebSocket маршруты лобби и игры
	router.GET("/ws/quiz/:pin/lobby", wsHandler.HandleConnection)
	router.GET("/ws/game/:pin/play", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем реестр комнат: закрываем все соединения и пул рассылки
	roomRegistry.Shutdown()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
