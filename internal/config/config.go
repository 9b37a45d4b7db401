package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// History backend selectors.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
	BackendBigtable  = "bigtable"
)

// Config holds the application configuration
type Config struct {
	LLM      LLMConfig
	Server   ServerConfig
	History  HistoryConfig
	Payman   PaymanConfig
	LogLevel string `mapstructure:"log_level"`
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// HistoryConfig selects and configures the message history backend.
type HistoryConfig struct {
	Backend   string          `mapstructure:"backend"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
	Bigtable  BigtableConfig  `mapstructure:"bigtable"`
}

// SQLiteConfig holds the SQLite backend configuration.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds the Redis (or Memorystore) backend configuration.
// URL takes precedence over Addr when both are set.
type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// FirestoreConfig holds the Firestore backend configuration.
type FirestoreConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Collection string `mapstructure:"collection"`
}

// BigtableConfig holds the Bigtable backend configuration.
type BigtableConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	InstanceID   string `mapstructure:"instance_id"`
	Table        string `mapstructure:"table"`
	ColumnFamily string `mapstructure:"column_family"`
}

// PaymanConfig holds the Payman payments API configuration.
type PaymanConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APISecret string `mapstructure:"api_secret"`
}

// Load reads the configuration from CONFIG_PATH, or ./config.yaml when unset.
func Load() (*Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
