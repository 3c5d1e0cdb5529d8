package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL  = "http://localhost:8000"
	defaultTimeout = 60 * time.Second
)

// Settings are resolved from defaults, then the config file, then the
// environment. Flags are applied last by the root command.
type Settings struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoadSettings reads path when it is non-empty. getenv is os.Getenv outside
// tests.
func LoadSettings(path string, getenv func(string) string) (Settings, error) {
	s := Settings{APIURL: defaultAPIURL, Timeout: defaultTimeout}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read config: %w", err)
		}
		var file Settings
		if err := yaml.Unmarshal(data, &file); err != nil {
			return s, fmt.Errorf("parse config %s: %w", path, err)
		}
		if file.APIURL != "" {
			s.APIURL = file.APIURL
		}
		if file.Timeout > 0 {
			s.Timeout = file.Timeout
		}
	}

	if v := getenv("VIBEZ_API_BASE_URL"); v != "" {
		s.APIURL = v
	}
	if v := getenv("VIBEZ_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("VIBEZ_API_TIMEOUT: %w", err)
		}
		s.Timeout = d
	}
	return s, nil
}
