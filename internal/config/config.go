package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerURL string `mapstructure:"SERVER_URL"`
	SocketURL string `mapstructure:"SOCKET_URL"`

	// CredentialsFile is where the session token is persisted between runs.
	CredentialsFile string `mapstructure:"CREDENTIALS_FILE"`

	Env string `mapstructure:"GO_ENV"`

	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
}

// Load reads configuration from .env (if present) and the environment.
// It returns the config rather than installing a package global so callers
// own its lifetime explicitly.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_URL", "http://localhost:8080/api")
	viper.SetDefault("SOCKET_URL", "ws://localhost:8080/ws")
	viper.SetDefault("CREDENTIALS_FILE", defaultCredentialsFile())
	viper.SetDefault("GO_ENV", "development")
	viper.SetDefault("HTTP_TIMEOUT", 15*time.Second)

	// Missing .env is fine; environment variables still apply.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devtinder-credentials.json"
	}
	return filepath.Join(home, ".devtinder", "credentials.json")
}
