package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/studiowebux/reqflow/internal/logger"
	"github.com/studiowebux/reqflow/internal/types"
)

// Settings holds user preferences from config.yaml and REQFLOW_ variables
type Settings struct {
	Log      LogSettings
	Database string
	TLS      types.TLSConfig
}

// LogSettings holds logging configuration
type LogSettings struct {
	Level  string
	Format string
	Output string
}

// LoggerConfig converts the log settings for the logger package
func (s *Settings) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig(s.Log.Output)
	cfg.Level = s.Log.Level
	cfg.Format = s.Log.Format
	return cfg
}

// LoadSettings reads path, then applies environment overrides.
// Priority (highest to lowest):
// 1. Environment variables with REQFLOW_ prefix (e.g., REQFLOW_LOG_LEVEL)
// 2. the settings file
// 3. Built-in defaults
//
// A missing settings file is not an error.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", LogFile)
	v.SetDefault("database", DatabasePath)
	v.SetDefault("tls.insecure", false)
	v.SetDefault("tls.ca_file", "")
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading settings file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat settings file: %w", err)
		}
	}

	v.SetEnvPrefix("REQFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Settings{
		Log: LogSettings{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: v.GetString("database"),
		TLS: types.TLSConfig{
			InsecureSkipVerify: v.GetBool("tls.insecure"),
			CAFile:             v.GetString("tls.ca_file"),
			CertFile:           v.GetString("tls.cert_file"),
			KeyFile:            v.GetString("tls.key_file"),
		},
	}, nil
}

// TLSConfig returns nil when no TLS option is set
func (s *Settings) TLSConfig() *types.TLSConfig {
	if s.TLS == (types.TLSConfig{}) {
		return nil
	}
	tls := s.TLS
	return &tls
}
