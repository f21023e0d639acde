package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML file read by Load when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

// Config holds the application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	Scripts ScriptsConfig `yaml:"scripts"`

	// Parameters are default script inputs, overridden per run
	Parameters map[string]interface{} `yaml:"parameters"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type EngineConfig struct {
	MaxDepth  int `yaml:"max_depth"`
	CacheSize int `yaml:"cache_size"`
}

type ScriptsConfig struct {
	Directory string `yaml:"directory"`
}

// Load loads configuration from environment and the YAML file named by
// CONFIG_PATH. A missing file is not an error.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	path := getEnvOrDefault("CONFIG_PATH", DefaultPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fromEnv(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return parse(path, data)
}

// LoadFile loads configuration from environment and the given YAML file,
// which must exist.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return parse(path, data)
}

func fromEnv() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Pretty: getEnvOrDefault("LOG_PRETTY", "false") == "true",
		},
		Engine: EngineConfig{
			MaxDepth:  getEnvIntOrDefault("TICKSCRIPT_MAX_DEPTH", 256),
			CacheSize: getEnvIntOrDefault("TICKSCRIPT_CACHE_SIZE", 128),
		},
		Scripts: ScriptsConfig{
			Directory: getEnvOrDefault("TICKSCRIPT_SCRIPTS_DIR", "./scripts"),
		},
		Parameters: make(map[string]interface{}),
	}
}

// parse applies YAML on top of the environment defaults.
func parse(path string, data []byte) (*Config, error) {
	config := fromEnv()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config.Parameters == nil {
		config.Parameters = make(map[string]interface{})
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate rejects settings the engine cannot use.
func (c *Config) Validate() error {
	if c.Engine.MaxDepth < 0 {
		return fmt.Errorf("engine.max_depth must not be negative, got %d", c.Engine.MaxDepth)
	}
	if c.Engine.CacheSize < 0 {
		return fmt.Errorf("engine.cache_size must not be negative, got %d", c.Engine.CacheSize)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := parseIntSafe(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseIntSafe(s string) (int, error) {
	var result int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, &parseError{s}
		}
		result = result*10 + int(c-'0')
	}
	return result, nil
}

type parseError struct {
	value string
}

func (e *parseError) Error() string {
	return "invalid integer: " + e.value
}
