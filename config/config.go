package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/khadra/initiative-api/internal/email"
	"github.com/khadra/initiative-api/internal/repository/postgres"
	"github.com/khadra/initiative-api/pkg/auth"
	"github.com/khadra/initiative-api/pkg/messaging/redis"
	"github.com/khadra/initiative-api/pkg/scheduler"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SchedulerConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// InitiativeConfig holds the process-wide review policy. Loaded once at
// startup and injected as an immutable value.
type InitiativeConfig struct {
	ReviewPeriod       time.Duration `mapstructure:"review_period"`
	MinReviewsRequired int           `mapstructure:"min_reviews_required"`
	MinLeadTime        time.Duration `mapstructure:"min_lead_time"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   postgres.DBConfig `mapstructure:"database"`
	Redis      RedisConfig       `mapstructure:"redis"`
	JWT        auth.JWTConfig    `mapstructure:"jwt"`
	Email      email.Config      `mapstructure:"email"`
	Scheduler  SchedulerConfig   `mapstructure:"scheduler"`
	Initiative InitiativeConfig  `mapstructure:"initiative"`
	RateLimit  RateLimitConfig   `mapstructure:"rate_limit"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("scheduler.batch_size", 100)
	viper.SetDefault("scheduler.poll_interval", 5*time.Second)
	viper.SetDefault("scheduler.retry_attempts", 3)
	viper.SetDefault("scheduler.retry_delay", 5*time.Second)
	viper.SetDefault("initiative.review_period", 7*24*time.Hour)
	viper.SetDefault("initiative.min_reviews_required", 5)
	viper.SetDefault("initiative.min_lead_time", 7*24*time.Hour)
	viper.SetDefault("rate_limit.requests_per_second", 50.0)
	viper.SetDefault("rate_limit.burst", 100)
}

func (c *Config) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.Redis.URL,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: c.Redis.RetryBackoff,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}

func (c *SchedulerConfig) ToRunnerConfig() scheduler.RunnerConfig {
	return scheduler.RunnerConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
	}
}
