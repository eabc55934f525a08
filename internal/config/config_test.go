package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.Matching.CacheTTLHours)
	assert.InDelta(t, 0.7, cfg.Matching.ConfidenceFloor, 1e-9)
	assert.InDelta(t, 0.9, cfg.Matching.LocalSufficiency, 1e-9)
	assert.InDelta(t, 0.95, cfg.Matching.ExactThreshold, 1e-9)
	assert.InDelta(t, 0.8, cfg.Matching.FuzzyThreshold, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.Matching.ProviderTimeout)
	assert.Equal(t, []string{"tmdb", "omdb"}, cfg.Matching.ProviderPriority)
	assert.Equal(t, 24*time.Hour, cfg.Matching.CacheTTL())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
matching:
  confidence_floor: 0.65
  provider_timeout: 2s
  provider_priority: [omdb, tmdb]
metadata:
  tmdb:
    api_key: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SNAPSHELF_MATCHING_CACHE_TTL_HOURS", "6")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.65, cfg.Matching.ConfidenceFloor, 1e-9)
	assert.Equal(t, 2*time.Second, cfg.Matching.ProviderTimeout)
	assert.Equal(t, []string{"omdb", "tmdb"}, cfg.Matching.ProviderPriority)
	assert.Equal(t, 6, cfg.Matching.CacheTTLHours)
	assert.Equal(t, "from-file", cfg.Metadata.TMDB.APIKey)
}

func TestMatchingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MatchingConfig)
		wantErr bool
	}{
		{"defaults", func(*MatchingConfig) {}, false},
		{"floor above one", func(m *MatchingConfig) { m.ConfidenceFloor = 1.2 }, true},
		{"floor above fuzzy", func(m *MatchingConfig) { m.ConfidenceFloor = 0.85 }, true},
		{"fuzzy above exact", func(m *MatchingConfig) { m.FuzzyThreshold = 0.97 }, true},
		{"zero ttl", func(m *MatchingConfig) { m.CacheTTLHours = 0 }, true},
		{"zero timeout", func(m *MatchingConfig) { m.ProviderTimeout = 0 }, true},
		{"zero results", func(m *MatchingConfig) { m.MaxResults = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultMatching()
			tt.mutate(&m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
