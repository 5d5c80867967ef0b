package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TTS_BASE_URL", "https://tts.example.com/")
	t.Setenv("TTS_MAX_WAIT_SECONDS", "5400")
	t.Setenv("TTS_HTTP_TIMEOUT_SECONDS", "60")
	t.Setenv("SUBMIT_RATE_LIMIT_CPM", "20000")
	t.Setenv("OTEL_EXPORTER_TYPE", "none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://tts.example.com", cfg.BaseURL)
	assert.Equal(t, 5400*time.Second, cfg.MaxWait)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(20000), cfg.SubmitRateLimitCPM)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TTS_BASE_URL", "http://localhost:8000")
	t.Setenv("TTS_MAX_WAIT_SECONDS", "120")
	t.Setenv("TTS_HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("TTS_OUTPUT_DIR", "/tmp/audio")
	t.Setenv("SUBMIT_RATE_LIMIT_CPM", "500")
	t.Setenv("OTEL_EXPORTER_TYPE", "stdout")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 120*time.Second, cfg.MaxWait)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/tmp/audio", cfg.OutputDir)
	assert.Equal(t, int64(500), cfg.SubmitRateLimitCPM)
	assert.Equal(t, "stdout", cfg.OTELExporterType)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing base url", map[string]string{"TTS_BASE_URL": ""}},
		{"relative base url", map[string]string{"TTS_BASE_URL": "tts.example.com"}},
		{"bad max wait", map[string]string{"TTS_BASE_URL": "http://x", "TTS_MAX_WAIT_SECONDS": "soon"}},
		{"zero max wait", map[string]string{"TTS_BASE_URL": "http://x", "TTS_MAX_WAIT_SECONDS": "0"}},
		{"bad exporter", map[string]string{"TTS_BASE_URL": "http://x", "OTEL_EXPORTER_TYPE": "jaeger"}},
		{"bad rate limit", map[string]string{"TTS_BASE_URL": "http://x", "SUBMIT_RATE_LIMIT_CPM": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TTS_MAX_WAIT_SECONDS", "5400")
			t.Setenv("TTS_HTTP_TIMEOUT_SECONDS", "60")
			t.Setenv("SUBMIT_RATE_LIMIT_CPM", "20000")
			t.Setenv("OTEL_EXPORTER_TYPE", "none")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
