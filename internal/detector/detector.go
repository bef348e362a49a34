package detector

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"person-detector-go/internal/apperrors"
	"person-detector-go/pkg/models"
)

// Класс "человек" в наборе меток модели
const personClassID = 0

// Толщина рамки bounding box в пикселях
const strokeWidth = 2

// ModelClient опаковая способность детекции: изображение и порог на входе,
// набор bounding box на выходе. Позволяет менять inference-бэкенд
// без изменения вызывающего кода.
type ModelClient interface {
	Predict(request models.PredictRequest) (*models.InferenceResponse, error)
	CheckHealth() (*models.HealthResponse, error)
}

// Box один найденный объект с разрешенным именем класса
type Box struct {
	X1         float64
	Y1         float64
	X2         float64
	Y2         float64
	Confidence float64
	ClassID    int
	ClassName  string
}

// Result результат детекции по одному изображению
type Result struct {
	Boxes       []Box
	ImageWidth  int
	ImageHeight int
}

// Detector адаптер над моделью детекции людей
type Detector struct {
	client    ModelClient
	imagesDir string
	logger    *logrus.Logger
}

// NewDetector создает новый детектор и папку для аннотированных изображений
func NewDetector(client ModelClient, imagesDir string, logger *logrus.Logger) (*Detector, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	return &Detector{
		client:    client,
		imagesDir: imagesDir,
		logger:    logger,
	}, nil
}

// Detect выполняет детекцию людей на изображении и сохраняет
// аннотированную копию под уникальным именем
func (d *Detector) Detect(imagePath string, confidence float64) (*Result, string, error) {
	// Загружаем изображение с диска
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: ошибка открытия изображения %s: %v", apperrors.ErrDecode, imagePath, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: ошибка декодирования изображения %s: %v", apperrors.ErrDecode, imagePath, err)
	}

	bounds := img.Bounds()

	// Для инференса отправляем исходные байты файла
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: ошибка чтения изображения %s: %v", apperrors.ErrDecode, imagePath, err)
	}

	// Модель ограничена классом "человек"
	resp, err := d.client.Predict(models.PredictRequest{
		ImageData:  imageData,
		Filename:   filepath.Base(imagePath),
		Confidence: confidence,
		Classes:    []int{personClassID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("ошибка инференса: %w", err)
	}

	result := &Result{
		Boxes:       make([]Box, 0, len(resp.Detections)),
		ImageWidth:  bounds.Dx(),
		ImageHeight: bounds.Dy(),
	}

	for _, det := range resp.Detections {
		name, ok := resp.Names[det.ClassID]
		if !ok {
			return nil, "", fmt.Errorf("%w: модель вернула неизвестный класс %d", apperrors.ErrDecode, det.ClassID)
		}

		result.Boxes = append(result.Boxes, Box{
			X1:         det.X1,
			Y1:         det.Y1,
			X2:         det.X2,
			Y2:         det.Y2,
			Confidence: det.Confidence,
			ClassID:    det.ClassID,
			ClassName:  name,
		})
	}

	// Рисуем рамки на копии изображения и сохраняем под uuid-именем
	outputPath, err := d.annotate(img, result.Boxes)
	if err != nil {
		return nil, "", err
	}

	d.logger.Debugf("Детекция завершена: %d объектов, аннотация %s", len(result.Boxes), outputPath)
	return result, outputPath, nil
}

// CheckHealth проверяет доступность inference-бэкенда
func (d *Detector) CheckHealth() error {
	health, err := d.client.CheckHealth()
	if err != nil {
		return err
	}
	if health.Status != "healthy" {
		return fmt.Errorf("inference API в состоянии %q", health.Status)
	}
	return nil
}

// annotate рисует рамки найденных объектов и сохраняет JPEG копию
func (d *Detector) annotate(img image.Image, boxes []Box) (string, error) {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	for _, box := range boxes {
		drawRect(canvas,
			bounds.Min.X+int(box.X1), bounds.Min.Y+int(box.Y1),
			bounds.Min.X+int(box.X2), bounds.Min.Y+int(box.Y2),
			ClassColor(box.ClassID),
		)
	}

	outputPath := filepath.Join(d.imagesDir, fmt.Sprintf("%s.jpg", uuid.New().String()))

	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create annotated image: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, canvas, nil); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("failed to encode annotated image: %w", err)
	}

	return outputPath, nil
}

// ClassColor возвращает детерминированный цвет рамки для класса.
// Хеш вместо генератора случайных чисел, чтобы аннотации
// воспроизводились между запусками.
func ClassColor(classID int) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte{byte(classID), byte(classID >> 8), byte(classID >> 16), byte(classID >> 24)})
	sum := h.Sum32()

	return color.RGBA{
		R: uint8(sum),
		G: uint8(sum >> 8),
		B: uint8(sum >> 16),
		A: 255,
	}
}

// drawRect рисует прямоугольную рамку толщиной strokeWidth
func drawRect(canvas *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}

	for s := 0; s < strokeWidth; s++ {
		for x := x1; x <= x2; x++ {
			canvas.SetRGBA(x, y1+s, col)
			canvas.SetRGBA(x, y2-s, col)
		}
		for y := y1; y <= y2; y++ {
			canvas.SetRGBA(x1+s, y, col)
			canvas.SetRGBA(x2-s, y, col)
		}
	}
}
