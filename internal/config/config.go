package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// MaxRecords is the largest page the article search API will return.
const MaxRecords = 250

// Failure policies for a (keyword, day) unit whose fetch, filter or scrape stage fails.
const (
	OnUnitErrorAbort   = "abort"
	OnUnitErrorIsolate = "isolate"
)

// ErrNoSink is returned when the credentials file names no persistence backend.
var ErrNoSink = errors.New("credentials: no persistence backend configured")

type Config struct {
	Topic            string           `yaml:"topic"`
	Keywords         []string         `yaml:"keywords"`
	SearchParameters SearchParameters `yaml:"search_parameters"`
	Fetcher          Fetcher          `yaml:"fetcher"`
	Filter           Worker           `yaml:"filter"`
	Scraper          Worker           `yaml:"scraper"`
	Scheduler        Scheduler        `yaml:"scheduler"`
	Logging          Logging          `yaml:"logging"`
	Metrics          Metrics          `yaml:"metrics"`
}

// SearchParameters mirrors the filters accepted by the article search API.
type SearchParameters struct {
	NumRecords  int        `yaml:"num_records"`
	Domain      StringList `yaml:"domain"`
	DomainExact bool       `yaml:"domain_exact"`
	Country     string     `yaml:"country"`
	Theme       StringList `yaml:"theme"`
	Near        string     `yaml:"near"`
	Repeat      string     `yaml:"repeat"`
}

type Fetcher struct {
	BaseURL string        `yaml:"base_url"`
	Format  string        `yaml:"format"`
	Timeout time.Duration `yaml:"timeout"`
}

// Worker configures one of the parallel stages (robots check, scrape).
type Worker struct {
	UserAgent string        `yaml:"user_agent"`
	Workers   int           `yaml:"workers"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Scheduler struct {
	BackfillDays int           `yaml:"backfill_days"`
	Interval     time.Duration `yaml:"interval"`
	OnUnitError  string        `yaml:"on_unit_error"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// StringList accepts either a single YAML scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*s = nil
			return nil
		}
		*s = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*s = items
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		SearchParameters: SearchParameters{NumRecords: MaxRecords},
		Fetcher: Fetcher{
			BaseURL: "https://api.gdeltproject.org/api/v2/doc/doc",
			Format:  "json",
			Timeout: 60 * time.Second,
		},
		Filter: Worker{
			UserAgent: "*",
			Workers:   16,
			Timeout:   10 * time.Second,
		},
		Scraper: Worker{
			UserAgent: "newsextractor/1.0 (+news archive)",
			Workers:   16,
			Timeout:   30 * time.Second,
		},
		Scheduler: Scheduler{
			BackfillDays: 5 * 365,
			Interval:     24 * time.Hour,
			OnUnitError:  OnUnitErrorAbort,
		},
		Logging: Logging{Level: "info", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the pipeline cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("config: topic is required")
	}
	if len(c.Keywords) == 0 {
		return errors.New("config: at least one keyword is required")
	}
	for i, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("config: keyword %d is empty", i)
		}
	}

	sp := c.SearchParameters
	if sp.NumRecords < 1 || sp.NumRecords > MaxRecords {
		return fmt.Errorf("config: num_records must be between 1 and %d, got %d", MaxRecords, sp.NumRecords)
	}
	if sp.Country != "" && len(sp.Country) != 2 {
		return fmt.Errorf("config: country must be a 2-letter code, got %q", sp.Country)
	}

	switch c.Fetcher.Format {
	case "json", "rss":
	default:
		return fmt.Errorf("config: fetcher.format must be json or rss, got %q", c.Fetcher.Format)
	}

	if c.Filter.Workers < 1 || c.Scraper.Workers < 1 {
		return errors.New("config: workers must be at least 1")
	}
	if c.Scheduler.BackfillDays < 1 {
		return errors.New("config: scheduler.backfill_days must be at least 1")
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("config: scheduler.interval must be positive")
	}

	switch c.Scheduler.OnUnitError {
	case OnUnitErrorAbort, OnUnitErrorIsolate:
	default:
		return fmt.Errorf("config: scheduler.on_unit_error must be %q or %q, got %q",
			OnUnitErrorAbort, OnUnitErrorIsolate, c.Scheduler.OnUnitError)
	}
	return nil
}
