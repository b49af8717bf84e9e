package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry either a duration string
// ("30s", "5m") or a bare number, which is read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!int", "!!float":
		var n float64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("invalid duration value on line %d", value.Line)
		}
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value on line %d", value.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ManagerConfig holds the agent manager's tuning knobs.
type ManagerConfig struct {
	// HealthCheckInterval is the period between health sweeps.
	HealthCheckInterval Duration `yaml:"health_check_interval"`
	// AgentBusyTimeout is how long an agent may stay busy without a
	// heartbeat before the health monitor marks it failed.
	AgentBusyTimeout Duration `yaml:"agent_busy_timeout"`
	// MaxQueueSize bounds the pending request queue.
	MaxQueueSize int `yaml:"max_queue_size"`
	// Workers sizes the pool that runs agent invocations.
	Workers int `yaml:"workers"`
	// MaxRetries is reserved for a future redelivery policy; the
	// dispatcher does not retry failed requests today.
	MaxRetries int `yaml:"max_retries"`
	// ResultTimeout is the default wait used by result polling when the
	// caller passes no timeout.
	ResultTimeout Duration `yaml:"result_timeout"`
	// PollInterval is the dispatcher's sleep while the queue is empty.
	PollInterval Duration `yaml:"poll_interval"`
	// MetricsReportInterval is the period between metrics log reports.
	// Zero disables the report task.
	MetricsReportInterval Duration `yaml:"metrics_report_interval"`
	// DefaultMaxConcurrent applies when an agent registers without a
	// concurrency limit.
	DefaultMaxConcurrent int `yaml:"default_max_concurrent"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig controls OpenTelemetry tracing.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// ProviderConfig describes one LLM backend.
type ProviderConfig struct {
	Name      string   `yaml:"name"`
	Model     string   `yaml:"model"`
	APIKey    string   `yaml:"api_key"`
	BaseURL   string   `yaml:"base_url"`
	Timeout   Duration `yaml:"timeout"`
	MaxTokens int      `yaml:"max_tokens"`
}

// CircuitBreakerConfig configures the LLM circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the
	// circuit opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before half-open.
	Timeout Duration `yaml:"timeout"`
	// Interval is the cyclic period of the closed state for clearing
	// failure counts. Zero means failures never reset until the circuit
	// opens.
	Interval Duration `yaml:"interval"`
}

// LLMConfig holds the LLM provider settings.
type LLMConfig struct {
	Provider       ProviderConfig       `yaml:"provider"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// SearchConfig holds the web intelligence (Tavily) settings.
type SearchConfig struct {
	APIKey         string   `yaml:"api_key"`
	BaseURL        string   `yaml:"base_url"`
	Timeout        Duration `yaml:"timeout"`
	RequestsPerMin float64  `yaml:"requests_per_min"`
	BurstSize      int      `yaml:"burst_size"`
	MaxResults     int      `yaml:"max_results"`
}

// Config is the top-level application configuration.
type Config struct {
	Manager ManagerConfig `yaml:"manager"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
}

// Defaults returns the baseline configuration.
func Defaults() *Config {
	return &Config{
		Manager: ManagerConfig{
			HealthCheckInterval:   Duration(30 * time.Second),
			AgentBusyTimeout:      Duration(300 * time.Second),
			MaxQueueSize:          1000,
			Workers:               10,
			MaxRetries:            3,
			ResultTimeout:         Duration(60 * time.Second),
			PollInterval:          Duration(100 * time.Millisecond),
			MetricsReportInterval: 0,
			DefaultMaxConcurrent:  5,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
		LLM: LLMConfig{
			Provider: ProviderConfig{
				Name:      "openai",
				Model:     "gpt-4o-mini",
				Timeout:   Duration(60 * time.Second),
				MaxTokens: 1024,
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures: 5,
				Timeout:     Duration(30 * time.Second),
				Interval:    Duration(60 * time.Second),
			},
		},
		Search: SearchConfig{
			Timeout:        Duration(30 * time.Second),
			RequestsPerMin: 60,
			BurstSize:      5,
			MaxResults:     5,
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts
// secrets. A missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if passphrase := os.Getenv("LEADSCOUT_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps LEADSCOUT_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEADSCOUT_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("LEADSCOUT_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("LEADSCOUT_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("LEADSCOUT_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("LEADSCOUT_LLM_API_KEY"); v != "" {
		cfg.LLM.Provider.APIKey = v
	}
	if v := os.Getenv("LEADSCOUT_LLM_MODEL"); v != "" {
		cfg.LLM.Provider.Model = v
	}
	if v := os.Getenv("LEADSCOUT_LLM_BASE_URL"); v != "" {
		cfg.LLM.Provider.BaseURL = v
	}
	if v := os.Getenv("LEADSCOUT_SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("LEADSCOUT_MANAGER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Manager.Workers = n
		}
	}
	if v := os.Getenv("LEADSCOUT_MANAGER_HEALTH_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Manager.HealthCheckInterval = Duration(d)
		}
	}
	if v := os.Getenv("LEADSCOUT_MANAGER_AGENT_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Manager.AgentBusyTimeout = Duration(d)
		}
	}
	if v := os.Getenv("LEADSCOUT_MANAGER_MAX_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Manager.MaxQueueSize = n
		}
	}
}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	m := cfg.Manager
	if m.HealthCheckInterval <= 0 {
		return fmt.Errorf("manager.health_check_interval must be positive")
	}
	if m.AgentBusyTimeout <= 0 {
		return fmt.Errorf("manager.agent_busy_timeout must be positive")
	}
	if m.MaxQueueSize <= 0 {
		return fmt.Errorf("manager.max_queue_size must be positive")
	}
	if m.Workers <= 0 {
		return fmt.Errorf("manager.workers must be positive")
	}
	if m.DefaultMaxConcurrent <= 0 {
		return fmt.Errorf("manager.default_max_concurrent must be positive")
	}

	switch cfg.Logger.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logger.level: unknown level %q", cfg.Logger.Level)
	}
	switch cfg.Logger.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logger.format: unknown format %q", cfg.Logger.Format)
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		return fmt.Errorf("tracer.exporter: unsupported exporter %q", cfg.Tracer.Exporter)
	}

	if cfg.Search.RequestsPerMin < 0 {
		return fmt.Errorf("search.requests_per_min must not be negative")
	}
	return nil
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable).
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
