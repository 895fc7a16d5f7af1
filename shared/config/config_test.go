package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMediaMaxFileSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int64
	}{
		{"megabyte suffix", "10MB", 10 * 1024 * 1024},
		{"kilobyte suffix", "512KB", 512 * 1024},
		{"gigabyte suffix", "1GB", 1024 * 1024 * 1024},
		{"plain bytes", "2048", 2048},
		{"lowercase suffix", "5mb", 5 * 1024 * 1024},
		{"garbage falls back", "lots", 10 * 1024 * 1024},
		{"zero falls back", "0MB", 10 * 1024 * 1024},
		{"negative falls back", "-1", 10 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{MediaMaxFileSize: tt.value}
			assert.Equal(t, tt.expected, cfg.GetMediaMaxFileSizeBytes())
		})
	}
}

func TestGetLoginRateLimitValues(t *testing.T) {
	cfg := &Config{
		LoginRateLimitMaxAttempts:   "3",
		LoginRateLimitWindowSeconds: "120",
		LoginRateLimitBlockMinutes:  "60",
	}

	assert.Equal(t, 3, cfg.GetLoginRateLimitMaxAttempts())
	assert.Equal(t, 120, cfg.GetLoginRateLimitWindowSeconds())
	assert.Equal(t, 60, cfg.GetLoginRateLimitBlockMinutes())
}

func TestGetLoginRateLimitValues_Defaults(t *testing.T) {
	cfg := &Config{
		LoginRateLimitMaxAttempts:   "not a number",
		LoginRateLimitWindowSeconds: "",
		LoginRateLimitBlockMinutes:  "0",
	}

	assert.Equal(t, 5, cfg.GetLoginRateLimitMaxAttempts())
	assert.Equal(t, 300, cfg.GetLoginRateLimitWindowSeconds())
	assert.Equal(t, 30, cfg.GetLoginRateLimitBlockMinutes())
}
