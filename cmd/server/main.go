package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"person-detector-go/internal/client"
	"person-detector-go/internal/config"
	"person-detector-go/internal/database"
	"person-detector-go/internal/detector"
	"person-detector-go/internal/handler"
	"person-detector-go/internal/repository"
	"person-detector-go/internal/service"
)

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Получаем конфигурацию из переменных окружения
	cfg := config.LoadConfig()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Запуск Person Detector API Server")

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	if err := database.Connect(); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer database.Close()

	// Выполняем миграции
	logger.Info("Выполнение миграций базы данных...")
	if err := database.Migrate(); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	// Создаем папки для статических и временных файлов
	if err := os.MkdirAll(cfg.Storage.StaticDir, 0755); err != nil {
		logger.Fatalf("Ошибка создания папки для статических файлов: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.TempDir, 0755); err != nil {
		logger.Fatalf("Ошибка создания временной папки: %v", err)
	}

	// Инициализируем клиент inference API и детектор
	inferenceClient := client.NewInferenceAPIClient(
		cfg.InferenceAPI.BaseURL,
		time.Duration(cfg.InferenceAPI.Timeout)*time.Second,
		logger,
	)

	personDetector, err := detector.NewDetector(inferenceClient, cfg.Storage.ImagesDir, logger)
	if err != nil {
		logger.Fatalf("Ошибка инициализации детектора: %v", err)
	}

	// Инициализируем репозитории и сервисы
	detectionRepo := repository.NewDetectionRepository(database.DB)
	detectionService := service.NewDetectionService(detectionRepo, personDetector, logger, cfg.Storage.TempDir)

	// Запускаем фоновую очистку временных файлов
	cleaner := service.NewCleaner(
		cfg.Storage.TempDir,
		time.Duration(cfg.Cleanup.TempFileTTLMinutes)*time.Minute,
		time.Duration(cfg.Cleanup.IntervalMinutes)*time.Minute,
		logger,
	)
	cleaner.Start()
	defer cleaner.Stop()

	// Инициализируем обработчики
	detectionHandler := handler.NewDetectionHandler(detectionService, logger)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Обслуживание статических файлов (аннотированные изображения)
	router.Static("/static", cfg.Storage.StaticDir)

	// Регистрируем маршруты
	detectionHandler.RegisterRoutes(router)

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Person Detector API Server",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	// Запускаем сервер
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Infof("Сервер запущен на порту %s", cfg.Server.Port)
	logger.Infof("API доступно по адресу: http://localhost:%s/api/v1", cfg.Server.Port)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
