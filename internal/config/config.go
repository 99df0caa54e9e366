package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that encodes to and from human readable
// YAML values like "30m" or "1h".
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	LLM     LLMConfig     `yaml:"llm"`
	Cache   CacheConfig   `yaml:"cache"`
	Places  PlacesConfig  `yaml:"places"`
	Geocode GeocodeConfig `yaml:"geocode"`
	Weather WeatherConfig `yaml:"weather"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	// Backend is one of "sqlite", "postgres" or "file".
	Backend string `yaml:"backend"`
	// Path is the sqlite file or the file-store directory.
	Path string `yaml:"path,omitempty"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn,omitempty"`
}

// LLMConfig holds LLM provider configurations
type LLMConfig struct {
	// Provider names the generator backing extraction, classification and
	// suggestions.
	Provider  string              `yaml:"provider"`
	Providers []LLMProviderConfig `yaml:"providers"`
}

// LLMProviderConfig holds individual provider configuration
type LLMProviderConfig struct {
	Name      string `yaml:"name"`
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// CacheConfig holds provider-result cache TTLs
type CacheConfig struct {
	WeatherTTL Duration `yaml:"weather_ttl"`
	PlacesTTL  Duration `yaml:"places_ttl"`
}

// PlacesConfig shapes the place pipeline
type PlacesConfig struct {
	// BatchSize is the number of places served per turn.
	BatchSize int `yaml:"batch_size"`
	// PoolLimit caps the cached candidate pool per location.
	PoolLimit int `yaml:"pool_limit"`
	// RadiusMeters bounds the POI search around the location center.
	RadiusMeters int `yaml:"radius_meters"`
	// OverpassURL overrides the POI endpoint.
	OverpassURL string   `yaml:"overpass_url,omitempty"`
	Timeout     Duration `yaml:"timeout"`
}

// GeocodeConfig configures the geocoding client
type GeocodeConfig struct {
	BaseURL   string   `yaml:"base_url,omitempty"`
	UserAgent string   `yaml:"user_agent,omitempty"`
	Timeout   Duration `yaml:"timeout"`
}

// WeatherConfig configures the weather client
type WeatherConfig struct {
	BaseURL string   `yaml:"base_url,omitempty"`
	Timeout Duration `yaml:"timeout"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Resolve API keys from environment variables
	for i := range config.LLM.Providers {
		if config.LLM.Providers[i].APIKeyEnv != "" {
			config.LLM.Providers[i].APIKey = os.Getenv(config.LLM.Providers[i].APIKeyEnv)
		}
	}

	config.SetDefaults()

	return &config, nil
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "sqlite"
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case "sqlite":
			c.Storage.Path = "data/tripbrain.db"
		case "file":
			c.Storage.Path = "data"
		}
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}

	if c.Cache.WeatherTTL == 0 {
		c.Cache.WeatherTTL = Duration(time.Hour)
	}
	if c.Cache.PlacesTTL == 0 {
		c.Cache.PlacesTTL = Duration(time.Hour)
	}

	if c.Places.BatchSize == 0 {
		c.Places.BatchSize = 8
	}
	if c.Places.PoolLimit == 0 {
		c.Places.PoolLimit = 50
	}
	if c.Places.RadiusMeters == 0 {
		c.Places.RadiusMeters = 5000
	}
	if c.Places.Timeout == 0 {
		c.Places.Timeout = Duration(20 * time.Second)
	}

	if c.Geocode.Timeout == 0 {
		c.Geocode.Timeout = Duration(5 * time.Second)
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = Duration(10 * time.Second)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for backend %s", c.Storage.Backend)
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for backend postgres")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if len(c.LLM.Providers) == 0 {
		return fmt.Errorf("at least one LLM provider must be configured")
	}

	found := false
	for _, provider := range c.LLM.Providers {
		if provider.Name == "" {
			return fmt.Errorf("LLM provider name is required")
		}
		if provider.APIKey == "" && provider.APIKeyEnv == "" {
			return fmt.Errorf("LLM provider %s requires api_key or api_key_env", provider.Name)
		}
		if provider.Name == c.LLM.Provider {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("selected LLM provider %s is not configured", c.LLM.Provider)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Providers: []LLMProviderConfig{
				{
					Name:      "openai",
					Model:     "gpt-4o-mini",
					APIKeyEnv: "OPENAI_API_KEY",
				},
				{
					Name:      "anthropic",
					Model:     "claude-3-haiku-20240307",
					APIKeyEnv: "ANTHROPIC_API_KEY",
				},
			},
		},
	}
	config.SetDefaults()
	return config
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
