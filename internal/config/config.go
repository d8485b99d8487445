// Package config loads service configuration into an explicit struct that
// is passed into component constructors. Business logic never reads ambient
// process state.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Solana struct {
		RPCURL string `mapstructure:"rpc_url"`
		WSURL  string `mapstructure:"ws_url"`
		// SecretKey is the process-wide signing secret, base58 or a JSON
		// byte array.
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"solana"`
	Token struct {
		Name        string `mapstructure:"name"`
		Symbol      string `mapstructure:"symbol"`
		MetadataURI string `mapstructure:"metadata_uri"`
		LogoURI     string `mapstructure:"logo_uri"`
		Website     string `mapstructure:"website"`
		Description string `mapstructure:"description"`
	} `mapstructure:"token"`
	Registry struct {
		GithubToken string `mapstructure:"github_token"`
		Owner       string `mapstructure:"owner"`
		Repo        string `mapstructure:"repo"`
		BaseBranch  string `mapstructure:"base_branch"`
	} `mapstructure:"registry"`
}

// Load reads config.yaml from the given directory (or the working directory
// when empty) and applies TOKENAPI_* environment overrides. A missing config
// file is not an error; environment variables alone can configure the
// service.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	v.SetDefault("server.port", 3000)
	v.SetDefault("solana.rpc_url", "https://api.devnet.solana.com")

	v.SetEnvPrefix("TOKENAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Solana.RPCURL == "" {
		return errors.New("solana.rpc_url is required")
	}
	if c.Solana.SecretKey == "" {
		return errors.New("solana.secret_key is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	return nil
}
