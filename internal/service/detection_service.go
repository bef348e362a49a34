package service

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"person-detector-go/internal/apperrors"
	"person-detector-go/internal/detector"
	"person-detector-go/internal/model"
	"person-detector-go/internal/repository"
)

// Границы порога уверенности, задаваемого пользователем
const (
	DefaultConfidence = 0.5
	MinConfidence     = 0.05
	MaxConfidence     = 0.95
)

// Границы пагинации
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// PersonDetector способность детекции людей на изображении
type PersonDetector interface {
	Detect(imagePath string, confidence float64) (*detector.Result, string, error)
	CheckHealth() error
}

// DetectionService сервис пайплайна детекции и чтения истории
type DetectionService struct {
	repo     repository.DetectionRepository
	detector PersonDetector
	logger   *logrus.Logger
	tempDir  string
}

// NewDetectionService создает новый сервис детекции
func NewDetectionService(repo repository.DetectionRepository, det PersonDetector, logger *logrus.Logger, tempDir string) *DetectionService {
	return &DetectionService{
		repo:     repo,
		detector: det,
		logger:   logger,
		tempDir:  tempDir,
	}
}

// ValidateConfidence проверяет, что порог уверенности входит в допустимый диапазон
func ValidateConfidence(confidence float64) error {
	if confidence < MinConfidence || confidence > MaxConfidence {
		return fmt.Errorf("%w: confidence должен быть в диапазоне [%.2f, %.2f]",
			apperrors.ErrInvalidInput, MinConfidence, MaxConfidence)
	}
	return nil
}

// ProcessDetection выполняет пайплайн детекции: инференс, аннотация
// и атомарная запись детекции вместе с деталями
func (s *DetectionService) ProcessDetection(imagePath, originalFilename string, confidence float64) (*DetectionResponse, error) {
	s.logger.Infof("Запускаем детекцию для файла %s с порогом %.2f", originalFilename, confidence)

	startTime := time.Now()
	result, outputPath, err := s.detector.Detect(imagePath, confidence)
	if err != nil {
		s.logger.Errorf("Ошибка детекции: %v", err)
		return nil, err
	}
	processingTime := time.Since(startTime).Seconds()

	detection := &model.Detection{
		NumPeople:        len(result.Boxes),
		ImagePath:        outputPath,
		OriginalFilename: originalFilename,
		Confidence:       confidence,
		ProcessingTime:   processingTime,
		ImageWidth:       result.ImageWidth,
		ImageHeight:      result.ImageHeight,
	}

	for _, box := range result.Boxes {
		detection.Details = append(detection.Details, model.DetectionDetail{
			Confidence: box.Confidence,
			X1:         box.X1,
			Y1:         box.Y1,
			X2:         box.X2,
			Y2:         box.Y2,
			ClassName:  box.ClassName,
			ClassID:    box.ClassID,
		})
	}

	// Детекция и ее детали записываются в одной транзакции:
	// либо все детали, либо ни одной
	if err := s.repo.Create(detection); err != nil {
		s.logger.Errorf("Ошибка сохранения детекции в БД: %v", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	s.logger.Infof("Детекция %d сохранена: %d человек за %.3f с", detection.ID, detection.NumPeople, processingTime)
	return s.modelToResponse(detection, true), nil
}

// ListDetections возвращает страницу детекций с фильтрацией
func (s *DetectionService) ListDetections(page, limit int, filter repository.ListFilter) (*PaginateResponse, error) {
	s.logger.Infof("Получаем список детекций: страница %d, размер %d", page, limit)

	detections, total, err := s.repo.List(page, limit, filter)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка детекций: %v", err)
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}

	data := make([]DetectionResponse, len(detections))
	for i, det := range detections {
		data[i] = *s.modelToResponse(det, false)
	}

	return &PaginateResponse{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: totalPages(total, limit),
		Data:  data,
	}, nil
}

// GetDetection возвращает детекцию по ID вместе с деталями
func (s *DetectionService) GetDetection(id uint) (*DetectionResponse, error) {
	detection, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.modelToResponse(detection, true), nil
}

// DeleteDetection удаляет детекцию, ее детали и аннотированное изображение
func (s *DetectionService) DeleteDetection(id uint) error {
	detection, err := s.repo.Delete(id)
	if err != nil {
		return err
	}

	if detection.ImagePath != "" {
		if err := os.Remove(detection.ImagePath); err != nil {
			s.logger.Warnf("Не удалось удалить аннотированное изображение %s: %v", detection.ImagePath, err)
		}
	}

	s.logger.Infof("Детекция %d удалена", id)
	return nil
}

// CheckHealth проверяет состояние inference-бэкенда
func (s *DetectionService) CheckHealth() error {
	return s.detector.CheckHealth()
}

// totalPages вычисляет количество страниц по формуле округления вверх.
// При limit <= 0 определяем ровно одну страницу, чтобы не делить на ноль.
func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// modelToResponse преобразует модель базы данных в ответ API
func (s *DetectionService) modelToResponse(detection *model.Detection, withDetails bool) *DetectionResponse {
	response := &DetectionResponse{
		ID:               detection.ID,
		Timestamp:        detection.Timestamp,
		NumPeople:        detection.NumPeople,
		ImagePath:        detection.ImagePath,
		OriginalFilename: detection.OriginalFilename,
		Confidence:       detection.Confidence,
		ProcessingTime:   detection.ProcessingTime,
		ImageWidth:       detection.ImageWidth,
		ImageHeight:      detection.ImageHeight,
		CreatedAt:        detection.CreatedAt,
	}

	if withDetails {
		for _, detail := range detection.Details {
			response.Details = append(response.Details, DetectionDetailResponse{
				ID:          detail.ID,
				DetectionID: detail.DetectionID,
				Confidence:  detail.Confidence,
				X1:          detail.X1,
				Y1:          detail.Y1,
				X2:          detail.X2,
				Y2:          detail.Y2,
				ClassName:   detail.ClassName,
				ClassID:     detail.ClassID,
			})
		}
	}

	return response
}
