package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "go duration", value: "90s", want: 90 * time.Second},
		{name: "bare seconds", value: "15", want: 15 * time.Second},
		{name: "garbage", value: "soon", want: time.Minute},
		{name: "empty", value: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VIBEZ_TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("VIBEZ_TEST_DURATION", time.Minute))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIBEZ_API_BASE_URL", "http://charts:8000")
	t.Setenv("SMTP_PORT", "not-a-port")

	cfg := Load()
	assert.Equal(t, "http://charts:8000", cfg.ChartAPI.BaseURL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.App.TokenTTL)
}

func TestLoadReadsTracingFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("OTEL_ENABLED=true\nOTEL_EXPORTER_OTLP_ENDPOINT=jaeger:4318\n"), 0o644))
	t.Chdir(dir)
	t.Cleanup(func() {
		_ = os.Unsetenv("OTEL_ENABLED")
		_ = os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	})

	cfg := Load()
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "jaeger:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, "vibez-studio-gateway", cfg.Tracing.ServiceName)
}

func TestTracingDisabledByDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := Load()
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Tracing.Endpoint)
}
