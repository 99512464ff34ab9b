package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var logLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	LogLevel        string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort        string        `yaml:"http-port" env:"PORT" env-default:"3001"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	Websocket       Websocket     `yaml:"websocket"`
	Redis           Redis         `yaml:"redis"`
}

type Websocket struct {
	Path           string        `yaml:"path" env:"WS_PATH" env-default:"/ws"`
	PingInterval   time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"25s"`
	PongTimeout    time.Duration `yaml:"pong-timeout" env:"WS_PONG_TIMEOUT" env-default:"60s"`
	WriteTimeout   time.Duration `yaml:"write-timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	SendBuffer     int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"32"`
	MaxMessageSize int64         `yaml:"max-message-size" env:"WS_MAX_MESSAGE_SIZE" env-default:"4096"`
	AllowedOrigins []string      `yaml:"allowed-origins" env:"WS_ALLOWED_ORIGINS" env-separator:","`
}

// Redis - match history storage. An empty host disables history.
type Redis struct {
	Host         string        `yaml:"host" env:"REDIS_HOST"`
	Port         string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	HistoryTTL   time.Duration `yaml:"history-ttl" env:"REDIS_HISTORY_TTL" env-default:"24h"`
	HistoryLimit int           `yaml:"history-limit" env:"REDIS_HISTORY_LIMIT" env-default:"20"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads path when it exists, otherwise the environment alone, and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate - reports every invalid setting at once.
func (that *Config) Validate() error {
	var errs []string

	if !slices.Contains(logLevels, that.LogLevel) {
		errs = append(errs, fmt.Sprintf("log-level must be one of [%s], got %q", strings.Join(logLevels, ", "), that.LogLevel))
	}

	if err := validatePort("http-port", that.HTTPPort); err != nil {
		errs = append(errs, err.Error())
	}

	if that.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown-timeout must be positive")
	}

	if err := that.Websocket.validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if err := that.Redis.validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (that *Config) GetHTTPAddr() string {
	return ":" + that.HTTPPort
}

func (that *Websocket) validate() error {
	var errs []string

	if !strings.HasPrefix(that.Path, "/") {
		errs = append(errs, fmt.Sprintf("websocket.path must start with /, got %q", that.Path))
	}

	if that.PingInterval <= 0 {
		errs = append(errs, "websocket.ping-interval must be positive")
	}

	if that.PongTimeout <= that.PingInterval {
		errs = append(errs, "websocket.pong-timeout must exceed websocket.ping-interval")
	}

	if that.WriteTimeout <= 0 {
		errs = append(errs, "websocket.write-timeout must be positive")
	}

	if that.SendBuffer < 1 {
		errs = append(errs, fmt.Sprintf("websocket.send-buffer must be >= 1, got %d", that.SendBuffer))
	}

	if that.MaxMessageSize < 1 {
		errs = append(errs, fmt.Sprintf("websocket.max-message-size must be >= 1, got %d", that.MaxMessageSize))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (that *Redis) validate() error {
	if !that.Enabled() {
		return nil
	}

	var errs []string

	if err := validatePort("redis.port", that.Port); err != nil {
		errs = append(errs, err.Error())
	}

	if that.DB < 0 {
		errs = append(errs, fmt.Sprintf("redis.db must be >= 0, got %d", that.DB))
	}

	if that.HistoryTTL <= 0 {
		errs = append(errs, "redis.history-ttl must be positive")
	}

	if that.HistoryLimit < 1 {
		errs = append(errs, fmt.Sprintf("redis.history-limit must be >= 1, got %d", that.HistoryLimit))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Enabled - reports whether match history is configured.
func (that *Redis) Enabled() bool {
	return that.Host != ""
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func validatePort(key, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %q", key, port)
	}

	return nil
}
