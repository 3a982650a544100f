package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ThrottleConfig struct {
	MaxRequests   int `yaml:"max_requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

type ScanConfig struct {
	StageTimeoutSeconds int `yaml:"stage_timeout_seconds"`
	RetentionMinutes    int `yaml:"retention_minutes"`
	SubscriberBuffer    int `yaml:"subscriber_buffer"`
}

type DatabaseConfig struct {
	Path              string `yaml:"path"`
	BusyTimeoutMillis int    `yaml:"busy_timeout_ms"`
}

type ReportsConfig struct {
	Directory string `yaml:"directory"`
}

type CollaboratorsConfig struct {
	VirusTotalKey   string `yaml:"virustotal_key"`
	SafeBrowsingKey string `yaml:"safebrowsing_key"`
	GeoEndpoint     string `yaml:"geo_endpoint"`
}

type MonitorConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Throttle      ThrottleConfig      `yaml:"throttle"`
	Scan          ScanConfig          `yaml:"scan"`
	Database      DatabaseConfig      `yaml:"database"`
	Reports       ReportsConfig       `yaml:"reports"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
	Monitor       MonitorConfig       `yaml:"monitor"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Throttle: ThrottleConfig{
			MaxRequests:   5,
			WindowSeconds: 300,
		},
		Scan: ScanConfig{
			StageTimeoutSeconds: 30,
			RetentionMinutes:    60,
			SubscriberBuffer:    16,
		},
		Database: DatabaseConfig{
			Path:              "domainscope.db",
			BusyTimeoutMillis: 5000,
		},
		Reports: ReportsConfig{
			Directory: "./reports",
		},
		Collaborators: CollaboratorsConfig{
			GeoEndpoint: "http://ip-api.com/json",
		},
		Monitor: MonitorConfig{
			IntervalMinutes: 30,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.Scan.StageTimeoutSeconds) * time.Second
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.Scan.RetentionMinutes) * time.Minute
}

func (c *Config) ThrottleWindow() time.Duration {
	return time.Duration(c.Throttle.WindowSeconds) * time.Second
}

func (c *Config) DatabaseBusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeoutMillis) * time.Millisecond
}

func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalMinutes) * time.Minute
}
