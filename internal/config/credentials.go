package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Credentials holds the persistence connection settings. Exactly one backend is set.
type Credentials struct {
	MongoDB struct {
		URI string `yaml:"uri"`
	} `yaml:"mongodb"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
}

// LoadCredentials reads the key file passed as the second CLI argument.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	return parseCredentials(data)
}

func parseCredentials(data []byte) (*Credentials, error) {
	creds := &Credentials{}
	if err := yaml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	hasMongo := creds.MongoDB.URI != ""
	hasSQLite := creds.SQLite.Path != ""
	switch {
	case hasMongo && hasSQLite:
		return nil, errors.New("credentials: set either mongodb.uri or sqlite.path, not both")
	case !hasMongo && !hasSQLite:
		return nil, ErrNoSink
	}
	return creds, nil
}
