package models

// PredictRequest запрос на инференс изображения
type PredictRequest struct {
	ImageData  []byte
	Filename   string
	Confidence float64
	// Ограничение по классам модели; пустой срез означает все классы
	Classes []int
}

// BoundingBox один найденный объект в координатах исходного изображения
type BoundingBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
}

// InferenceResponse ответ inference API
type InferenceResponse struct {
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	Detections []BoundingBox  `json:"detections"`
	Names      map[int]string `json:"names"`
}

// HealthResponse состояние inference API
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}
