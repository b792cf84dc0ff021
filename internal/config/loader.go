package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

// LoadProfile loads and validates a site profile from a YAML file.
func LoadProfile(filePath string) (*SiteProfile, error) {
	if filePath == "" {
		return nil, fmt.Errorf("profile file path is empty")
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("profile file not found: %s: %w", filePath, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close profile file: %v", closeErr)
		}
	}()

	var profile SiteProfile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("profile validation error: %w", err)
	}

	profile.ApplyDefaults()

	return &profile, nil
}
