package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Logging   LoggingConfig   `yaml:"logging"`
	App       AppConfig       `yaml:"app"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds the notification exchange configuration. Optional:
// when disabled, terminal job notifications are not published.
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// PipelineConfig holds the job execution tuning constants.
type PipelineConfig struct {
	Concurrency    int           `yaml:"concurrency"`
	QueueSize      int           `yaml:"queue_size"`
	WordsPerChunk  int           `yaml:"words_per_chunk"`
	SegmentSeconds float64       `yaml:"segment_seconds"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	StepDelay      time.Duration `yaml:"step_delay"`
	ObserverBuffer int           `yaml:"observer_buffer"`
	// Default transformation instructions per session kind, used when the
	// start request carries no prompt.
	EditPrompt       string `yaml:"edit_prompt"`
	TranscribePrompt string `yaml:"transcribe_prompt"`
}

// ProvidersConfig holds the external provider settings
type ProvidersConfig struct {
	Gemini   GeminiConfig   `yaml:"gemini"`
	Speech   SpeechConfig   `yaml:"speech"`
	Storage  StorageConfig  `yaml:"storage"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// GeminiConfig holds the rewrite provider settings
type GeminiConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
}

// SpeechConfig holds the transcription provider settings
type SpeechConfig struct {
	ProjectID  string `yaml:"project_id"`
	Recognizer string `yaml:"recognizer"`
	Token      string `yaml:"token"`
	Language   string `yaml:"language"`
	Endpoint   string `yaml:"endpoint"`
}

// StorageConfig holds the temporary blob bucket settings
type StorageConfig struct {
	Bucket   string `yaml:"bucket"`
	Token    string `yaml:"token"`
	Endpoint string `yaml:"endpoint"`
}

// ResolverConfig holds the media tool paths
type ResolverConfig struct {
	YTDLPPath   string `yaml:"ytdlp_path"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = 4
	}
	if c.Pipeline.QueueSize == 0 {
		c.Pipeline.QueueSize = 128
	}
	if c.Pipeline.WordsPerChunk == 0 {
		c.Pipeline.WordsPerChunk = 1000
	}
	if c.Pipeline.SegmentSeconds == 0 {
		c.Pipeline.SegmentSeconds = 600
	}
	if c.Pipeline.RetryAttempts == 0 {
		c.Pipeline.RetryAttempts = 1
	}
	if c.Pipeline.RetryBackoff == 0 {
		c.Pipeline.RetryBackoff = time.Second
	}
	if c.Pipeline.ObserverBuffer == 0 {
		c.Pipeline.ObserverBuffer = 64
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required")
		}

		if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
		}

		if c.RabbitMQ.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required")
		}
	}

	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline concurrency must be greater than 0")
	}

	if c.Pipeline.WordsPerChunk <= 0 {
		return fmt.Errorf("pipeline words_per_chunk must be greater than 0")
	}

	if c.Pipeline.SegmentSeconds <= 0 {
		return fmt.Errorf("pipeline segment_seconds must be greater than 0")
	}

	if c.Pipeline.RetryAttempts < 0 {
		return fmt.Errorf("pipeline retry_attempts must not be negative")
	}

	return nil
}
