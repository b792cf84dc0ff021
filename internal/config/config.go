package config

import (
	"fmt"
	"time"
)

type Config struct {
	Rod           RodConfig           `yaml:"rod"`
	HTTP          HttpConfig          `yaml:"http"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	ProfilesDir   string              `yaml:"profiles_dir"`
}

type RodConfig struct {
	ChromePath    string `yaml:"chrome_path"`
	Headless      bool   `yaml:"headless"`
	PageTimeoutS  int    `yaml:"page_timeout_s"`
	SettleDelayMS int    `yaml:"settle_delay_ms"`
}

type HttpConfig struct {
	UserAgent        string `yaml:"user_agent"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS   int    `yaml:"total_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

// Validation
func (c *Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Storage.Driver != "mssql" {
		return fmt.Errorf("storage.driver must be 'mssql'")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	if c.Observability.LogPath == "" {
		return fmt.Errorf("observability.log_path is required")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.ProfilesDir == "" {
		return fmt.Errorf("profiles_dir is required")
	}
	if c.Rod.PageTimeoutS <= 0 {
		return fmt.Errorf("rod.page_timeout_s must be > 0")
	}
	if c.Rod.SettleDelayMS < 0 {
		return fmt.Errorf("rod.settle_delay_ms must be >= 0")
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodSettleDelay() time.Duration {
	return time.Duration(c.Rod.SettleDelayMS) * time.Millisecond
}
