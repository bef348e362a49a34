package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"person-detector-go/internal/apperrors"
)

// Таймаут загрузки изображения по URL
const fetchTimeout = 10 * time.Second

// Размер чанка при скачивании, ограничивает потребление памяти
const fetchChunkSize = 1024

// fetchClient общий HTTP клиент для загрузки изображений по URL
var fetchClient = &http.Client{
	Timeout: fetchTimeout,
}

// SaveUploadedFile сохраняет загруженный файл во временную папку
// и возвращает путь к нему вместе с исходным именем
func (s *DetectionService) SaveUploadedFile(header *multipart.FileHeader) (string, string, error) {
	if header == nil {
		return "", "", fmt.Errorf("%w: файл не передан", apperrors.ErrInvalidInput)
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", fmt.Errorf("%w: тип файла %q не является изображением", apperrors.ErrInvalidInput, contentType)
	}

	file, err := header.Open()
	if err != nil {
		return "", "", fmt.Errorf("%w: ошибка открытия файла: %v", apperrors.ErrInvalidInput, err)
	}
	defer file.Close()

	// Имя файла без каталогов, чтобы не выйти за пределы временной папки
	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", "", fmt.Errorf("%w: некорректное имя файла %q", apperrors.ErrInvalidInput, header.Filename)
	}

	tempPath, err := s.writeTempFile(filename, file)
	if err != nil {
		return "", "", err
	}

	s.logger.Infof("Файл %s сохранен во временную папку: %s", filename, tempPath)
	return tempPath, filename, nil
}

// FetchFromURL скачивает изображение по URL во временную папку
// и возвращает путь к нему вместе с именем из URL
func (s *DetectionService) FetchFromURL(rawURL string) (string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", "", fmt.Errorf("%w: некорректный URL %q", apperrors.ErrInvalidInput, rawURL)
	}

	s.logger.Infof("Скачиваем изображение по URL: %s", rawURL)

	resp, err := fetchClient.Get(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: ошибка скачивания изображения: %v", apperrors.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("%w: сервер вернул статус %d", apperrors.ErrFetch, resp.StatusCode)
	}

	// Проверяем тип содержимого до записи временного файла
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", fmt.Errorf("%w: URL указывает на %q, а не на изображение", apperrors.ErrInvalidInput, contentType)
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		filename = "image"
	}

	tempPath, err := s.writeTempFile(filename, resp.Body)
	if err != nil {
		return "", "", err
	}

	s.logger.Infof("Изображение скачано: %s", tempPath)
	return tempPath, filename, nil
}

// writeTempFile пишет поток во временный файл с заданным именем,
// читая чанками по fetchChunkSize байт.
// Повторная загрузка с тем же именем перезаписывает файл.
func (s *DetectionService) writeTempFile(filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	tempPath := filepath.Join(s.tempDir, filename)
	dst, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer dst.Close()

	buf := make([]byte, fetchChunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				os.Remove(tempPath)
				return "", fmt.Errorf("failed to write temp file: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			os.Remove(tempPath)
			return "", fmt.Errorf("failed to read stream: %w", readErr)
		}
	}

	return tempPath, nil
}
