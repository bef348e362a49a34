package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	resp, err := http.Get("http://localhost:8080/api/v1/health")
	if err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Ошибка чтения ответа: %v\n", err)
		return
	}

	fmt.Printf("Health check ответ (статус %d):\n%s\n\n", resp.StatusCode, string(body))

	// Если есть тестовое изображение, отправляем его на детекцию
	if len(os.Args) > 1 {
		imagePath := os.Args[1]
		fmt.Printf("Отправляем изображение %s на детекцию...\n", imagePath)

		if err := testDetect(imagePath); err != nil {
			fmt.Printf("Ошибка при тестировании детекции: %v\n", err)
		}
	} else {
		fmt.Println("Для тестирования детекции запустите: go run test_client.go <путь_к_изображению>")
	}
}

func testDetect(imagePath string) error {
	// Читаем файл изображения
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("ошибка чтения изображения: %w", err)
	}

	// Создаем multipart form
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// Добавляем файл изображения
	fileWriter, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("ошибка создания form field: %w", err)
	}
	if _, err := fileWriter.Write(imageData); err != nil {
		return fmt.Errorf("ошибка записи данных изображения: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	// Отправляем запрос
	req, err := http.NewRequest("POST", "http://localhost:8080/api/v1/detection/detect?confidence=0.5", &body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Printf("Ответ детекции (статус %d):\n%s\n", resp.StatusCode, string(respBody))
	return nil
}
