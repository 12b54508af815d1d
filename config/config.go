// Package config loads server configuration from file and environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Ledger   LedgerConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LLMConfig holds report generation settings. The API key itself is read by
// the genai client from GEMINI_API_KEY, never from config.
type LLMConfig struct {
	Model   string
	Enabled bool
}

// LedgerConfig holds business rule settings.
type LedgerConfig struct {
	MinimumWithdrawal int64 `mapstructure:"minimum_withdrawal"`
	Seed              bool
}

// Load reads configuration from file and env. Env var overrides use prefix
// ECOVAULT_, e.g. ECOVAULT_SERVER_PORT=9090.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "./data/ecovault.db")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.enabled", true)
	v.SetDefault("ledger.minimum_withdrawal", 10000)
	v.SetDefault("ledger.seed", true)

	v.SetConfigType("toml")
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("ECOVAULT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
