package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        string
		Environment string
	}
	InferenceAPI struct {
		BaseURL string
		Timeout int // в секундах
	}
	Storage struct {
		StaticDir string
		ImagesDir string
		TempDir   string
	}
	Cleanup struct {
		TempFileTTLMinutes int
		IntervalMinutes    int
	}
	Logging struct {
		Level string
	}
}

// LoadConfig загружает конфигурацию из переменных окружения (и .env, если он есть)
func LoadConfig() *Config {
	// .env опционален, в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")

	// Конфигурация inference API
	cfg.InferenceAPI.BaseURL = getEnv("INFERENCE_API_BASE_URL", "http://localhost:8000")
	cfg.InferenceAPI.Timeout = getEnvInt("INFERENCE_API_TIMEOUT_SECONDS", 60)

	// Конфигурация хранилища файлов
	cfg.Storage.StaticDir = getEnv("STATIC_DIR", filepath.Join(".", "static"))
	cfg.Storage.ImagesDir = filepath.Join(cfg.Storage.StaticDir, "images")
	cfg.Storage.TempDir = getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "person-detector"))

	// Конфигурация очистки временных файлов
	cfg.Cleanup.TempFileTTLMinutes = getEnvInt("TEMP_FILE_TTL_MINUTES", 60)
	cfg.Cleanup.IntervalMinutes = getEnvInt("CLEANUP_INTERVAL_MINUTES", 15)

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
