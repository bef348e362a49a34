package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"person-detector-go/internal/apperrors"
	"person-detector-go/internal/repository"
	"person-detector-go/internal/service"
)

// DetectionHandler обрабатывает HTTP запросы детекции людей
type DetectionHandler struct {
	detectionService *service.DetectionService
	logger           *logrus.Logger
}

// NewDetectionHandler создает новый экземпляр DetectionHandler
func NewDetectionHandler(detectionService *service.DetectionService, logger *logrus.Logger) *DetectionHandler {
	return &DetectionHandler{
		detectionService: detectionService,
		logger:           logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *DetectionHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		detection := api.Group("/detection")
		{
			detection.POST("/detect", h.DetectPeople)
			detection.POST("/detect-from-url", h.DetectPeopleFromURL)
			detection.GET("/", h.ListDetections)
			detection.GET("/:id", h.GetDetection)
			detection.DELETE("/:id", h.DeleteDetection)
		}
		api.GET("/health", h.CheckHealth)
	}
}

// DetectPeople обрабатывает загрузку изображения и детекцию людей на нем
func (h *DetectionHandler) DetectPeople(c *gin.Context) {
	h.logger.Info("Получен запрос на детекцию людей по загруженному файлу")

	confidence, err := parseConfidence(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.logger.Errorf("Ошибка получения файла изображения: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл изображения обязателен"})
		return
	}

	tempPath, filename, err := h.detectionService.SaveUploadedFile(header)
	if err != nil {
		h.logger.Errorf("Ошибка сохранения загруженного файла: %v", err)
		h.respondError(c, err, "Ошибка сохранения файла")
		return
	}

	response, err := h.detectionService.ProcessDetection(tempPath, filename, confidence)
	if err != nil {
		h.logger.Errorf("Ошибка детекции: %v", err)
		h.respondError(c, err, "Ошибка детекции людей")
		return
	}

	h.logger.Info("Детекция по загруженному файлу завершена успешно")
	c.JSON(http.StatusCreated, response)
}

// DetectPeopleFromURL обрабатывает детекцию людей на изображении по URL
func (h *DetectionHandler) DetectPeopleFromURL(c *gin.Context) {
	h.logger.Info("Получен запрос на детекцию людей по URL")

	confidence, err := parseConfidence(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var request service.ImageURLRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Errorf("Ошибка парсинга тела запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поле image_url обязательно и должно быть корректным URL"})
		return
	}

	tempPath, filename, err := h.detectionService.FetchFromURL(request.ImageURL)
	if err != nil {
		h.logger.Errorf("Ошибка скачивания изображения: %v", err)
		h.respondError(c, err, "Ошибка скачивания изображения")
		return
	}

	response, err := h.detectionService.ProcessDetection(tempPath, filename, confidence)
	if err != nil {
		h.logger.Errorf("Ошибка детекции: %v", err)
		h.respondError(c, err, "Ошибка детекции людей")
		return
	}

	h.logger.Info("Детекция по URL завершена успешно")
	c.JSON(http.StatusCreated, response)
}

// ListDetections возвращает список детекций с фильтрацией и пагинацией
func (h *DetectionHandler) ListDetections(c *gin.Context) {
	h.logger.Info("Получен запрос на получение списка детекций")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultLimit)))
	if err != nil || limit < 1 || limit > service.MaxLimit {
		limit = service.DefaultLimit
	}

	filter := repository.ListFilter{
		Search: c.Query("search"),
	}

	if minStr := c.Query("min_people"); minStr != "" {
		minPeople, err := strconv.Atoi(minStr)
		if err != nil || minPeople < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_people должен быть неотрицательным числом"})
			return
		}
		filter.MinPeople = &minPeople
	}

	if maxStr := c.Query("max_people"); maxStr != "" {
		maxPeople, err := strconv.Atoi(maxStr)
		if err != nil || maxPeople < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_people должен быть неотрицательным числом"})
			return
		}
		filter.MaxPeople = &maxPeople
	}

	response, err := h.detectionService.ListDetections(page, limit, filter)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка детекций: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения списка детекций"})
		return
	}

	h.logger.Infof("Возвращено %d детекций из %d", len(response.Data), response.Total)
	c.JSON(http.StatusOK, response)
}

// GetDetection возвращает детекцию по ID вместе с деталями
func (h *DetectionHandler) GetDetection(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID детекции"})
		return
	}

	h.logger.Infof("Получен запрос на получение детекции с ID: %d", id)

	detection, err := h.detectionService.GetDetection(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Детекция не найдена"})
			return
		}
		h.logger.Errorf("Ошибка получения детекции: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения детекции"})
		return
	}

	c.JSON(http.StatusOK, detection)
}

// DeleteDetection удаляет детекцию по ID
func (h *DetectionHandler) DeleteDetection(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID детекции"})
		return
	}

	h.logger.Infof("Получен запрос на удаление детекции с ID: %d", id)

	if err := h.detectionService.DeleteDetection(id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Детекция не найдена"})
			return
		}
		h.logger.Errorf("Ошибка удаления детекции: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка удаления детекции"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Детекция успешно удалена"})
}

// CheckHealth проверяет состояние сервиса и его зависимостей
func (h *DetectionHandler) CheckHealth(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья сервиса")

	if err := h.detectionService.CheckHealth(); err != nil {
		h.logger.Errorf("Inference-бэкенд недоступен: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Сервис детекции недоступен",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// respondError сопоставляет ошибку сервиса со статус-кодом HTTP
func (h *DetectionHandler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrFetch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

// parseConfidence читает порог уверенности из query-параметра.
// Значения вне диапазона отклоняются до вызова детектора.
func parseConfidence(c *gin.Context) (float64, error) {
	confidenceStr := c.DefaultQuery("confidence", "")
	if confidenceStr == "" {
		return service.DefaultConfidence, nil
	}

	confidence, err := strconv.ParseFloat(confidenceStr, 64)
	if err != nil {
		return 0, errors.New("confidence должен быть числом")
	}

	if err := service.ValidateConfidence(confidence); err != nil {
		return 0, err
	}

	return confidence, nil
}

// parseID читает ID детекции из параметра пути
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
