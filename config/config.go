package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full hive configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Engine    EngineConfig    `yaml:"engine" env:"ENGINE"`
	Swarm     SwarmConfig     `yaml:"swarm" env:"SWARM"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Queue     QueueConfig     `yaml:"queue" env:"QUEUE"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// EngineConfig configures the graph executor guards.
type EngineConfig struct {
	MaxRetries       int           `yaml:"max_retries" env:"MAX_RETRIES"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" env:"MAX_EXECUTION_TIME"`
}

// SwarmConfig configures swarm sessions.
type SwarmConfig struct {
	MaxRounds int    `yaml:"max_rounds" env:"MAX_ROUNDS"`
	Strategy  string `yaml:"strategy" env:"STRATEGY"`
	// ArbiterIndex is the 1-based deciding voter for the manager strategy;
	// 0 means no arbiter.
	ArbiterIndex int `yaml:"arbiter_index" env:"ARBITER_INDEX"`
}

// LLMConfig configures providers, routing, and budgets.
type LLMConfig struct {
	// APIKey enables the cloud provider; empty keeps everything local.
	APIKey            string        `yaml:"api_key" env:"API_KEY"`
	CloudModel        string        `yaml:"cloud_model" env:"CLOUD_MODEL"`
	LocalModel        string        `yaml:"local_model" env:"LOCAL_MODEL"`
	OpenAIBaseURL     string        `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	OllamaBaseURL     string        `yaml:"ollama_base_url" env:"OLLAMA_BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" env:"BURST"`
	Budget            float64       `yaml:"budget" env:"BUDGET"`
}

// QueueConfig configures the background run queue.
type QueueConfig struct {
	Workers int `yaml:"workers" env:"WORKERS"`
}

// RedisConfig configures the optional Redis run store.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	RunTTL   time.Duration `yaml:"run_ttl" env:"RUN_TTL"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures the OpenTelemetry SDK.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Validate checks cross-field constraints the loader cannot express.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Engine.MaxRetries < 0 {
		errs = append(errs, "engine max_retries must be >= 0")
	}
	if c.Engine.MaxExecutionTime <= 0 {
		errs = append(errs, "engine max_execution_time must be positive")
	}
	if c.Swarm.MaxRounds < 1 {
		errs = append(errs, "swarm max_rounds must be >= 1")
	}
	switch c.Swarm.Strategy {
	case "majority", "unanimity", "manager":
	default:
		errs = append(errs, fmt.Sprintf("unknown swarm strategy %q", c.Swarm.Strategy))
	}
	if c.Swarm.ArbiterIndex < 0 {
		errs = append(errs, "swarm arbiter_index must be >= 0")
	}
	if c.Queue.Workers < 1 {
		errs = append(errs, "queue workers must be >= 1")
	}
	if c.LLM.RequestsPerSecond < 0 {
		errs = append(errs, "llm requests_per_second must be >= 0")
	}
	if c.LLM.Budget < 0 {
		errs = append(errs, "llm budget must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
