package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"person-detector-go/pkg/models"
)

// InferenceAPIClient клиент для взаимодействия с inference-сервисом модели
type InferenceAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewInferenceAPIClient создает новый клиент для inference API
func NewInferenceAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *InferenceAPIClient {
	return &InferenceAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Predict отправляет изображение на инференс
func (c *InferenceAPIClient) Predict(request models.PredictRequest) (*models.InferenceResponse, error) {
	c.logger.Debug("Отправка запроса на инференс")

	// Создаем multipart form-data
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// Добавляем файл изображения
	fileWriter, err := writer.CreateFormFile("file", request.Filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для изображения: %w", err)
	}

	if _, err := fileWriter.Write(request.ImageData); err != nil {
		return nil, fmt.Errorf("ошибка записи данных изображения: %w", err)
	}

	// Добавляем порог уверенности
	if err := writer.WriteField("confidence", fmt.Sprintf("%.2f", request.Confidence)); err != nil {
		return nil, fmt.Errorf("ошибка записи confidence: %w", err)
	}

	// Добавляем ограничение по классам
	for _, class := range request.Classes {
		if err := writer.WriteField("classes", fmt.Sprintf("%d", class)); err != nil {
			return nil, fmt.Errorf("ошибка записи classes: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	// Создаем HTTP запрос
	url := fmt.Sprintf("%s/predict", c.baseURL)
	req, err := http.NewRequest("POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	// Отправляем запрос
	c.logger.Debugf("Отправка POST запроса на %s", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	// Читаем ответ
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	// Парсим JSON ответ
	var apiResponse models.InferenceResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	c.logger.Debugf("Получен ответ от inference API: %d объектов", len(apiResponse.Detections))
	return &apiResponse, nil
}

// CheckHealth проверяет состояние inference API
func (c *InferenceAPIClient) CheckHealth() (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья inference API")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &healthResponse, nil
}
