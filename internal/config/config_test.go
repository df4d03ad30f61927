package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err)

	assert.Equal(t, "Climate Change", cfg.Topic)
	assert.Equal(t, []string{"carbon tax", "emissions trading"}, cfg.Keywords)
	assert.Equal(t, 250, cfg.SearchParameters.NumRecords)
	assert.Equal(t, StringList{"bbc.co.uk", "reuters.com"}, cfg.SearchParameters.Domain)
	assert.Equal(t, StringList{"ENV_CLIMATECHANGE"}, cfg.SearchParameters.Theme)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, OnUnitErrorAbort, cfg.Scheduler.OnUnitError)
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
topic: AI
keywords: [machine learning]
search_parameters:
  num_records: 50
  domain: nytimes.com
`)
	cfg, err := parse(data)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.SearchParameters.NumRecords)
	assert.Equal(t, StringList{"nytimes.com"}, cfg.SearchParameters.Domain)
	assert.Nil(t, cfg.SearchParameters.Theme)

	// Defaults should still be set for unspecified fields
	assert.Equal(t, "json", cfg.Fetcher.Format)
	assert.Equal(t, 16, cfg.Filter.Workers)
	assert.Equal(t, 10*time.Second, cfg.Filter.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, 1825, cfg.Scheduler.BackfillDays)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing topic", "keywords: [a]"},
		{"missing keywords", "topic: t"},
		{"blank keyword", "topic: t\nkeywords: ['  ']"},
		{"too many records", "topic: t\nkeywords: [a]\nsearch_parameters: {num_records: 251}"},
		{"bad country", "topic: t\nkeywords: [a]\nsearch_parameters: {country: USA}"},
		{"bad format", "topic: t\nkeywords: [a]\nfetcher: {format: xml}"},
		{"zero workers", "topic: t\nkeywords: [a]\nscraper: {workers: 0}"},
		{"bad policy", "topic: t\nkeywords: [a]\nscheduler: {on_unit_error: retry}"},
		{"domain map", "topic: t\nkeywords: [a]\nsearch_parameters: {domain: {a: b}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Keywords, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseCredentials(t *testing.T) {
	creds, err := parseCredentials([]byte("mongodb:\n  uri: mongodb://localhost:27017\n"))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017", creds.MongoDB.URI)

	creds, err = parseCredentials([]byte("sqlite:\n  path: /tmp/news.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/news.db", creds.SQLite.Path)

	_, err = parseCredentials([]byte("other: {}\n"))
	assert.ErrorIs(t, err, ErrNoSink)

	_, err = parseCredentials([]byte("mongodb: {uri: x}\nsqlite: {path: y}\n"))
	assert.Error(t, err)
}
