// Package config loads curio settings from defaults, an optional
// config.yaml in the project directory, and CURIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/sajal1123/curio/pkg/loader"
)

// Config holds every runtime setting.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Grammar GrammarConfig
	Layers  LayersConfig
	Cache   CacheConfig
}

type ServerConfig struct {
	Port        int
	CORSOrigins []string
}

type LogConfig struct {
	Level string
}

type GrammarConfig struct {
	File string
}

type LayersConfig struct {
	Dir         string
	Concurrency int
}

type CacheConfig struct {
	Size int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:  ServerConfig{Port: 3000, CORSOrigins: []string{"*"}},
		Log:     LogConfig{Level: "info"},
		Grammar: GrammarConfig{File: "grammar.yaml"},
		Layers:  LayersConfig{Dir: "layers"},
		Cache:   CacheConfig{Size: 128},
	}
}

// Load reads config.yaml from dir if present and applies CURIO_*
// environment overrides, e.g. CURIO_SERVER_PORT.
func Load(dir string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("CURIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.cors_origins", cfg.Server.CORSOrigins)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("grammar.file", cfg.Grammar.File)
	v.SetDefault("layers.dir", cfg.Layers.Dir)
	v.SetDefault("layers.concurrency", cfg.Layers.Concurrency)
	v.SetDefault("cache.size", cfg.Cache.Size)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.CORSOrigins = v.GetStringSlice("server.cors_origins")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Grammar.File = v.GetString("grammar.file")
	cfg.Layers.Dir = v.GetString("layers.dir")
	cfg.Layers.Concurrency = v.GetInt("layers.concurrency")
	cfg.Cache.Size = v.GetInt("cache.size")

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return cfg, fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Cache.Size <= 0 {
		return cfg, fmt.Errorf("cache.size must be positive, got %d", cfg.Cache.Size)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// NewLogger builds a text logger at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ProjectOptions maps the grammar and layer settings onto loader options.
func (c Config) ProjectOptions(logger *slog.Logger) loader.ProjectOptions {
	return loader.ProjectOptions{
		GrammarFile: c.Grammar.File,
		LayersDir:   c.Layers.Dir,
		Concurrency: c.Layers.Concurrency,
		Logger:      logger,
	}
}
