package service

import (
	"time"
)

// DetectionDetailResponse один bounding box в ответе API
type DetectionDetailResponse struct {
	ID          uint    `json:"id"`
	DetectionID uint    `json:"detection_id"`
	Confidence  float64 `json:"confidence"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	ClassName   string  `json:"class_name"`
	ClassID     int     `json:"class_id"`
}

// DetectionResponse ответ с информацией о детекции
type DetectionResponse struct {
	ID               uint                      `json:"id"`
	Timestamp        time.Time                 `json:"timestamp"`
	NumPeople        int                       `json:"num_people"`
	ImagePath        string                    `json:"image_path"`
	OriginalFilename string                    `json:"original_filename"`
	Confidence       float64                   `json:"confidence"`
	ProcessingTime   float64                   `json:"processing_time"`
	ImageWidth       int                       `json:"image_width"`
	ImageHeight      int                       `json:"image_height"`
	CreatedAt        time.Time                 `json:"created_at"`
	Details          []DetectionDetailResponse `json:"details,omitempty"`
}

// PaginateResponse страница списка детекций
type PaginateResponse struct {
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Pages int                 `json:"pages"`
	Data  []DetectionResponse `json:"data"`
}

// ImageURLRequest запрос на детекцию по URL изображения
type ImageURLRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
}
