package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full configuration for both binaries. The server reads the
// Server and Storage sections; the agent reads Agent, Backend and Tracking.
type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV" env-default:"development"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Backend  BackendConfig  `yaml:"backend"`
	Agent    AgentConfig    `yaml:"agent"`
	Tracking TrackingConfig `yaml:"tracking"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

type ServerConfig struct {
	Host          string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port          int    `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-default:""`
	CookieTTLHrs  int    `yaml:"cookie_ttl_hours" env:"COOKIE_TTL_HOURS" env-default:"168"`
}

type StorageConfig struct {
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"worktrack.db"`
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"http://localhost:8080"`
	Timeout int    `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"30"` // seconds
}

type AgentConfig struct {
	Username  string `yaml:"username" env:"AGENT_USERNAME" env-default:""`
	Password  string `yaml:"password" env:"AGENT_PASSWORD" env-default:""`
	InputPort int    `yaml:"input_port" env:"AGENT_INPUT_PORT" env-default:"8934"`
	QueuePath string `yaml:"queue_path" env:"AGENT_QUEUE_PATH" env-default:"worktrack-queue.db"`
}

type TrackingConfig struct {
	IdleThreshold int `yaml:"idle_threshold" env:"TRACKING_IDLE_THRESHOLD" env-default:"300"` // seconds
	TickInterval  int `yaml:"tick_interval" env:"TRACKING_TICK_INTERVAL" env-default:"1"`     // seconds
}

// LoadConfig reads the YAML file at path, with environment variables taking
// precedence. A missing file is fine; the config then comes from environment
// and defaults alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}

	return &cfg, nil
}
