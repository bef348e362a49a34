package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"person-detector-go/internal/apperrors"
	"person-detector-go/internal/model"
)

// ListFilter параметры фильтрации списка детекций.
// nil означает отсутствие фильтра, поэтому 0 остается допустимой границей.
type ListFilter struct {
	MinPeople *int
	MaxPeople *int
	Search    string
}

// DetectionRepository интерфейс для работы с детекциями
type DetectionRepository interface {
	Create(detection *model.Detection) error
	GetByID(id uint) (*model.Detection, error)
	List(page, limit int, filter ListFilter) ([]*model.Detection, int64, error)
	Delete(id uint) (*model.Detection, error)
}

// detectionRepository реализация DetectionRepository
type detectionRepository struct {
	db *gorm.DB
}

// NewDetectionRepository создает новый instance DetectionRepository
func NewDetectionRepository(db *gorm.DB) DetectionRepository {
	return &detectionRepository{
		db: db,
	}
}

// Create создает детекцию вместе с деталями в одной транзакции.
// Либо записываются все детали, либо ни одной.
func (r *detectionRepository) Create(detection *model.Detection) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Отделяем детали, чтобы gorm не вставил их до получения ID родителя
	details := detection.Details
	detection.Details = nil

	if err := tx.Create(detection).Error; err != nil {
		tx.Rollback()
		detection.Details = details
		return fmt.Errorf("failed to create detection: %w", err)
	}

	for i := range details {
		details[i].ID = 0 // Обнуляем ID для auto-increment
		details[i].DetectionID = detection.ID

		if err := tx.Create(&details[i]).Error; err != nil {
			tx.Rollback()
			detection.Details = details
			return fmt.Errorf("failed to create detection detail %d: %w", i, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		detection.Details = details
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	detection.Details = details
	return nil
}

// GetByID получает детекцию по ID вместе с деталями
func (r *detectionRepository) GetByID(id uint) (*model.Detection, error) {
	var detection model.Detection
	err := r.db.Preload("Details").Where("id = ?", id).First(&detection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("detection %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return &detection, nil
}

// List получает список детекций с фильтрацией и пагинацией,
// отсортированный от новых к старым
func (r *detectionRepository) List(page, limit int, filter ListFilter) ([]*model.Detection, int64, error) {
	var detections []*model.Detection
	var total int64

	// Фильтры комбинируются через AND. Для Count и Find
	// собираем отдельные цепочки запросов.
	filtered := func() *gorm.DB {
		query := r.db.Model(&model.Detection{})
		if filter.MinPeople != nil {
			query = query.Where("num_people >= ?", *filter.MinPeople)
		}
		if filter.MaxPeople != nil {
			query = query.Where("num_people <= ?", *filter.MaxPeople)
		}
		if filter.Search != "" {
			// LOWER ... LIKE работает одинаково в postgres и sqlite
			pattern := "%" + strings.ToLower(filter.Search) + "%"
			query = query.Where("LOWER(original_filename) LIKE ?", pattern)
		}
		return query
	}

	// Подсчитываем общее количество с учетом фильтров
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count detections: %w", err)
	}

	offset := (page - 1) * limit
	err := filtered().
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&detections).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list detections: %w", err)
	}

	return detections, total, nil
}

// Delete удаляет детекцию вместе с деталями в одной транзакции
// и возвращает удаленную запись
func (r *detectionRepository) Delete(id uint) (*model.Detection, error) {
	detection, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}

	tx := r.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала удаляем детали
	if err := tx.Where("detection_id = ?", id).Delete(&model.DetectionDetail{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to delete detection details: %w", err)
	}

	// Затем удаляем детекцию
	result := tx.Where("id = ?", id).Delete(&model.Detection{})
	if result.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to delete detection: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("detection %d: %w", id, apperrors.ErrNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return detection, nil
}
