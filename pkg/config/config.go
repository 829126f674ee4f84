package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	MySQL   MySQLConfig   `yaml:"mysql"`
	Redis   RedisConfig   `yaml:"redis"`
	Logger  LoggerConfig  `yaml:"logger"`
	Breaker BreakerConfig `yaml:"breaker"`
	Probe   ProbeConfig   `yaml:"probe"`
	Stream  StreamConfig  `yaml:"stream"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // API key for /api routes (optional, if empty, auth is disabled)
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// BreakerConfig circuit breaker configuration
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"` // consecutive failures before opening
	CooldownSeconds  int `yaml:"cooldown_seconds"`  // open duration before a half-open trial
}

// ProbeConfig external service probe configuration
type ProbeConfig struct {
	IntervalSeconds int            `yaml:"interval_seconds"` // probe loop interval
	TimeoutSeconds  int            `yaml:"timeout_seconds"`  // per-request timeout
	Services        []ProbeService `yaml:"services"`
}

// ProbeService one probed external service
type ProbeService struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// StreamConfig dashboard WebSocket stream configuration
type StreamConfig struct {
	PushIntervalSeconds int `yaml:"push_interval_seconds"`
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	cfg.applyDefaults()
	GlobalConfig = &cfg
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.CooldownSeconds == 0 {
		c.Breaker.CooldownSeconds = 60
	}
	if c.Probe.IntervalSeconds == 0 {
		c.Probe.IntervalSeconds = 60
	}
	if c.Probe.TimeoutSeconds == 0 {
		c.Probe.TimeoutSeconds = 10
	}
	if c.Stream.PushIntervalSeconds == 0 {
		c.Stream.PushIntervalSeconds = 5
	}
}
