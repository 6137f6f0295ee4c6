package config

import "time"

// DefaultConfig returns the configuration used when neither the YAML file
// nor the environment overrides a value.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Engine: EngineConfig{
			MaxRetries:       3,
			MaxExecutionTime: 60 * time.Second,
		},
		Swarm: SwarmConfig{
			MaxRounds: 5,
			Strategy:  "majority",
		},
		LLM: LLMConfig{
			CloudModel:        "gpt-4o",
			LocalModel:        "llama3",
			OllamaBaseURL:     "http://localhost:11434",
			Timeout:           2 * time.Minute,
			RequestsPerSecond: 5,
			Burst:             10,
			Budget:            10.0,
		},
		Queue: QueueConfig{
			Workers: 3,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			RunTTL:  24 * time.Hour,
		},
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: true,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "hive",
			SampleRate:   0.1,
		},
	}
}
