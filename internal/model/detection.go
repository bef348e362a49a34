package model

import (
	"time"
)

// Detection представляет один запрос инференса в базе данных
type Detection struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Момент инференса, по умолчанию совпадает с созданием записи
	Timestamp time.Time `gorm:"not null;autoCreateTime" json:"timestamp"`

	NumPeople        int     `gorm:"not null" json:"num_people"`
	ImagePath        string  `gorm:"type:varchar(500);not null" json:"image_path"`
	OriginalFilename string  `gorm:"type:varchar(255)" json:"original_filename"`
	Confidence       float64 `json:"confidence"`
	ProcessingTime   float64 `json:"processing_time"`
	ImageWidth       int     `json:"image_width"`
	ImageHeight      int     `json:"image_height"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Связь с деталями детекции
	Details []DetectionDetail `gorm:"foreignKey:DetectionID;constraint:OnDelete:CASCADE" json:"details"`
}

// DetectionDetail представляет один найденный bounding box
type DetectionDetail struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	DetectionID uint `gorm:"not null;index" json:"detection_id"`

	Confidence float64 `gorm:"not null" json:"confidence"`
	X1         float64 `gorm:"not null" json:"x1"`
	Y1         float64 `gorm:"not null" json:"y1"`
	X2         float64 `gorm:"not null" json:"x2"`
	Y2         float64 `gorm:"not null" json:"y2"`
	ClassName  string  `gorm:"type:varchar(100);not null" json:"class_name"`
	ClassID    int     `gorm:"not null" json:"class_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Обратная связь с детекцией
	Detection Detection `gorm:"foreignKey:DetectionID;references:ID" json:"-"`
}

// TableName указывает имя таблицы для Detection
func (Detection) TableName() string {
	return "detections"
}

// TableName указывает имя таблицы для DetectionDetail
func (DetectionDetail) TableName() string {
	return "detection_details"
}
