package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	GovInfo   GovInfoConfig   `yaml:"govinfo"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`
	Semantic  SemanticConfig  `yaml:"semantic"`
	Chat      ChatConfig      `yaml:"chat"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Configured reports whether a database was configured at all. The semantic
// search variant is optional; the keyword path never touches Postgres.
func (d DatabaseConfig) Configured() bool {
	return d.Host != "" && d.Name != ""
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type GovInfoConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type OpenAIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
}

type RateLimitConfig struct {
	Max    int64         `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

type SemanticConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"`
	MatchCount     int     `yaml:"match_count"`
}

type ChatConfig struct {
	MaxToolRounds int           `yaml:"max_tool_rounds"`
	RequestBudget time.Duration `yaml:"request_budget"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	MetricsPort int    `yaml:"metrics_port"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Port:            5432,
			User:            "billchat",
			MaxOpenConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			PoolSize: 20,
		},
		GovInfo: GovInfoConfig{
			BaseURL: "https://api.govinfo.gov",
			Timeout: 15 * time.Second,
		},
		OpenAI: OpenAIConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-ada-002",
			Temperature:    0.7,
		},
		RateLimit: RateLimitConfig{
			Max:    50,
			Window: time.Hour,
		},
		Retry: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     32 * time.Second,
		},
		Semantic: SemanticConfig{
			MatchThreshold: 0.7,
			MatchCount:     10,
		},
		Chat: ChatConfig{
			MaxToolRounds: 10,
			RequestBudget: 30 * time.Second,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			MetricsPort: 9090,
		},
	}
}

// Validate rejects configurations that would only fail at first use.
// Missing credentials are fatal at startup.
func (c *Config) Validate() error {
	var missing []string
	if c.GovInfo.APIKey == "" {
		missing = append(missing, "GOV_INFO_API_KEY")
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required credentials: %v", missing)
	}

	if c.RateLimit.Max <= 0 {
		return fmt.Errorf("rate_limit.max must be positive, got %d", c.RateLimit.Max)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("retry.max_delay %s is below retry.initial_delay %s",
			c.Retry.MaxDelay, c.Retry.InitialDelay)
	}
	if c.Database.Configured() && c.Database.Password == "" {
		return fmt.Errorf("database configured but password is empty")
	}
	return nil
}
