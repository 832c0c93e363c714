package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "45m", 45 * time.Minute},
		{"plain seconds", "1800", 30 * time.Minute},
		{"garbage", "soon", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
	assert.Equal(t, time.Minute, getEnvAsDuration("TEST_DURATION_UNSET", time.Minute))
}

func TestLoad_RetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_MAX_DOCS", "7")
	t.Setenv("RETRIEVAL_SIMILARITY_THRESHOLD", "0.5")

	cfg := Load()
	core := cfg.Retrieval.Core()

	assert.Equal(t, 7, core.MaxDocs)
	assert.Equal(t, 0.5, core.SimilarityThreshold)
	assert.Equal(t, 3, core.WebSearchMaxResults)
	assert.Equal(t, 10, core.MaxSessionMessages)
	assert.Equal(t, 0.6, core.ConfidenceThreshold)
}

func TestLoad_WebAttemptsClampedToOne(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"-5", 1},
		{"0", 1},
		{"4", 4},
		{"many", 3},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("WEB_SEARCH_ATTEMPTS", tt.value)
			assert.Equal(t, tt.want, Load().Web.Attempts)
		})
	}
}
