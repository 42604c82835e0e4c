// Package config loads ircchat.Config from a yaml file and IRCCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Travis-Britz/ircchat"
)

const (
	envConfigDefaultPath = "IRCCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "ircchat.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars.
// A default config file is written when none exists.
func Load(logger *zerolog.Logger, explicitPath string) (ircchat.Config, string, error) {
	cfg := ircchat.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("servers", cfg.Servers)
	v.SetDefault("discovery_url", cfg.DiscoveryURL)
	v.SetDefault("transport", string(cfg.Transport))
	v.SetDefault("nickname", cfg.Nickname)
	v.SetDefault("token", cfg.Token)
	v.SetDefault("reconnect_min", cfg.ReconnectMin)
	v.SetDefault("reconnect_max", cfg.ReconnectMax)
	v.SetDefault("auto_reconnect", cfg.AutoReconnect)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("send_rate", cfg.SendRate)
	v.SetDefault("send_burst", cfg.SendBurst)
	v.SetDefault("emote_url", cfg.EmoteURL)
	v.SetDefault("viewer_list_url", cfg.ViewerListURL)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("archive_path", cfg.ArchivePath)

	v.SetEnvPrefix("IRCCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, configPath, err
	}

	return cfg, configPath, nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

// fileConfig is the on-disk shape of the default config.
// Durations are written as strings so the file stays readable.
type fileConfig struct {
	Servers       []string `yaml:"servers"`
	DiscoveryURL  string   `yaml:"discovery_url"`
	Transport     string   `yaml:"transport"`
	Nickname      string   `yaml:"nickname"`
	Token         string   `yaml:"token"`
	ReconnectMin  string   `yaml:"reconnect_min"`
	ReconnectMax  string   `yaml:"reconnect_max"`
	AutoReconnect bool     `yaml:"auto_reconnect"`
	Workers       int      `yaml:"workers"`
	SendRate      float64  `yaml:"send_rate"`
	SendBurst     int      `yaml:"send_burst"`
	EmoteURL      string   `yaml:"emote_url"`
	ViewerListURL string   `yaml:"viewer_list_url"`
	LogLevel      string   `yaml:"log_level"`
	ArchivePath   string   `yaml:"archive_path"`
}

func writeDefaultConfig(path string, cfg ircchat.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(fileConfig{
		Servers:       cfg.Servers,
		DiscoveryURL:  cfg.DiscoveryURL,
		Transport:     string(cfg.Transport),
		Nickname:      cfg.Nickname,
		Token:         cfg.Token,
		ReconnectMin:  cfg.ReconnectMin.String(),
		ReconnectMax:  cfg.ReconnectMax.String(),
		AutoReconnect: cfg.AutoReconnect,
		Workers:       cfg.Workers,
		SendRate:      cfg.SendRate,
		SendBurst:     cfg.SendBurst,
		EmoteURL:      cfg.EmoteURL,
		ViewerListURL: cfg.ViewerListURL,
		LogLevel:      cfg.LogLevel,
		ArchivePath:   cfg.ArchivePath,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
