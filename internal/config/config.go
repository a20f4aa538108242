package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Taciturno11/API-Digitalizacion/internal/logger"
)

// Config holds the runtime settings of the extraction engine. Everything
// is read-only after Load; the engine itself keeps no state between calls.
type Config struct {
	// OCR Configuration
	OCRLanguage     string        // Tesseract language pack, "spa" for SUNAT invoices
	OCRTimeout      time.Duration // budget for both recognition passes together
	ImageUpscale    int           // preprocessing upscale factor
	AmountTolerance float64       // reconciliation tolerance in currency units

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCRLanguage:     getEnv("OCR_LANGUAGE", "spa"),
		OCRTimeout:      time.Duration(getEnvInt("OCR_TIMEOUT_SECONDS", 120)) * time.Second,
		ImageUpscale:    getEnvInt("IMAGE_UPSCALE_FACTOR", 3),
		AmountTolerance: 0.01,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:   getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:       getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OCRLanguage == "" {
		return fmt.Errorf("OCR_LANGUAGE must not be empty")
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT_SECONDS must be positive")
	}
	if c.ImageUpscale < 1 {
		return fmt.Errorf("IMAGE_UPSCALE_FACTOR must be at least 1")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
