package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PDFSCRUB_OUTPUT_DIR", "PDFSCRUB_PATTERNS_FILE", "PDFSCRUB_CASE_SENSITIVE",
		"PDFSCRUB_HEADER_HEIGHT", "PDFSCRUB_FOOTER_HEIGHT", "PDFSCRUB_RENDER_SCALE",
		"PDFSCRUB_OCR_ENGINE", "PDFSCRUB_OCR_LANGUAGE", "PDFSCRUB_OCR_DPI",
		"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION",
		"DOCUMENT_AI_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_VERSION",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PDFSCRUB_PATTERNS_FILE", "")
	t.Setenv("PDFSCRUB_RENDER_SCALE", "")
	t.Setenv("PDFSCRUB_CASE_SENSITIVE", "true")
	t.Setenv("PDFSCRUB_HEADER_HEIGHT", "50.5")
	t.Setenv("PDFSCRUB_OCR_ENGINE", "VISION")
	t.Setenv("PDFSCRUB_OCR_LANGUAGE", "eng+deu")
	t.Setenv("PDFSCRUB_OCR_DPI", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.CaseSensitive)
	assert.True(t, cfg.CaseSensitiveSet)
	assert.Equal(t, 50.5, cfg.HeaderHeight)
	assert.Equal(t, "vision", cfg.OCREngine)
	assert.Equal(t, []string{"eng", "deu"}, cfg.OCRLanguages())
	assert.Equal(t, 300, cfg.OCRDPI)
}

func TestLoadExplicitCaseInsensitive(t *testing.T) {
	t.Setenv("PDFSCRUB_PATTERNS_FILE", "")
	t.Setenv("PDFSCRUB_OCR_ENGINE", "")
	t.Setenv("PDFSCRUB_CASE_SENSITIVE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.CaseSensitive)
	assert.True(t, cfg.CaseSensitiveSet)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown engine", mutate: func(c *Config) { c.OCREngine = "abbyy" }, wantErr: true},
		{name: "zero render scale", mutate: func(c *Config) { c.RenderScale = 0 }, wantErr: true},
		{name: "negative header", mutate: func(c *Config) { c.HeaderHeight = -1 }, wantErr: true},
		{name: "missing patterns file", mutate: func(c *Config) { c.PatternsFile = "/does/not/exist.yaml" }, wantErr: true},
		{
			name:    "documentai without processor",
			mutate:  func(c *Config) { c.OCREngine = "documentai"; c.GoogleCloudProject = "proj" },
			wantErr: true,
		},
		{
			name: "documentai complete",
			mutate: func(c *Config) {
				c.OCREngine = "documentai"
				c.GoogleCloudProject = "proj"
				c.DocumentAIProcessorID = "abc123"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
