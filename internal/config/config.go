package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"pdfscrub/internal/logger"
)

type Config struct {
	// Workflow
	OutputDir     string  `validate:"required"`
	PatternsFile  string  `validate:"omitempty,file"`
	CaseSensitive bool
	HeaderHeight  float64 `validate:"gte=0"`
	FooterHeight  float64 `validate:"gte=0"`
	RenderScale   float64 `validate:"gt=0,lte=8"`

	// CaseSensitiveSet records that CaseSensitive was given explicitly. It
	// then overrides the pattern file either way.
	CaseSensitiveSet bool

	// OCR
	OCREngine   string `validate:"oneof=tesseract vision documentai"`
	OCRLanguage string `validate:"required"`
	OCRDPI      int    `validate:"gt=0"`

	// Google Cloud Configuration
	GoogleCloudProject         string `validate:"required_if=OCREngine documentai"`
	GoogleCloudLocation        string
	DocumentAIProcessorID      string `validate:"required_if=OCREngine documentai"`
	DocumentAIProcessorVersion string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OutputDir:                  getEnv("PDFSCRUB_OUTPUT_DIR", "processed_output"),
		PatternsFile:               getEnv("PDFSCRUB_PATTERNS_FILE", ""),
		CaseSensitive:              getEnvBool("PDFSCRUB_CASE_SENSITIVE", false),
		HeaderHeight:               getEnvFloat("PDFSCRUB_HEADER_HEIGHT", 70),
		FooterHeight:               getEnvFloat("PDFSCRUB_FOOTER_HEIGHT", 70),
		RenderScale:                getEnvFloat("PDFSCRUB_RENDER_SCALE", 2),
		OCREngine:                  strings.ToLower(getEnv("PDFSCRUB_OCR_ENGINE", "tesseract")),
		OCRLanguage:                getEnv("PDFSCRUB_OCR_LANGUAGE", "eng"),
		OCRDPI:                     getEnvInt("PDFSCRUB_OCR_DPI", 300),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stdout"),
	}

	config.CaseSensitiveSet = os.Getenv("PDFSCRUB_CASE_SENSITIVE") != ""

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	return &Config{
		OutputDir:           "processed_output",
		HeaderHeight:        70,
		FooterHeight:        70,
		RenderScale:         2,
		OCREngine:           "tesseract",
		OCRLanguage:         "eng",
		OCRDPI:              300,
		GoogleCloudLocation: "us",
		LogLevel:            "info",
		LogFormat:           "console",
		LogTimeFormat:       "2006-01-02T15:04:05Z07:00",
		LogOutput:           "stdout",
	}
}

// Validate checks the struct tags. It is exported so command flags can be
// re-validated after they override loaded values.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
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

// OCRLanguages splits the "+" separated Tesseract language list.
func (c *Config) OCRLanguages() []string {
	var langs []string
	for _, l := range strings.Split(c.OCRLanguage, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
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
