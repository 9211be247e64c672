package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/meigma/jarcache"
	"github.com/meigma/jarcache/extract"
)

const envPrefix = "JARCACHE"

// config is the resolved CLI configuration.
type config struct {
	TempRoot      string `mapstructure:"temp_root"`
	DirPerm       uint32 `mapstructure:"dir_perm"`
	Platform      string `mapstructure:"platform"`
	CrossPlatform bool   `mapstructure:"cross_platform"`
	Workers       int    `mapstructure:"workers"`
	MaxFileSize   uint64 `mapstructure:"max_file_size"`
	Overwrite     bool   `mapstructure:"overwrite"`
	Verbose       bool   `mapstructure:"verbose"`
}

func defaultConfig() config {
	return config{
		DirPerm:     0o700,
		Platform:    runtime.GOOS,
		Workers:     runtime.GOMAXPROCS(0),
		MaxFileSize: extract.DefaultMaxFileSize,
	}
}

// loadConfig merges defaults, an optional config file, JARCACHE_* environment
// variables, and flags, in increasing order of precedence.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (config, error) {
	v := viper.New()

	defaults := defaultConfig()
	v.SetDefault("temp_root", defaults.TempRoot)
	v.SetDefault("dir_perm", defaults.DirPerm)
	v.SetDefault("platform", defaults.Platform)
	v.SetDefault("cross_platform", defaults.CrossPlatform)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("max_file_size", defaults.MaxFileSize)
	v.SetDefault("overwrite", defaults.Overwrite)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	for key, flag := range map[string]string{
		"temp_root":      "temp-root",
		"platform":       "platform",
		"cross_platform": "cross-platform",
		"workers":        "workers",
		"overwrite":      "overwrite",
		"verbose":        "verbose",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a slog logger backed by charmbracelet/log.
func newLogger(cfg config) *slog.Logger {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "jarcache",
		Level:  level,
	})
	return slog.New(handler)
}

// newCache builds a Cache from cfg.
func newCache(cfg config, logger *slog.Logger) *jarcache.Cache {
	extractor := jarcache.DefaultExtractor(
		extract.WithPlatform(cfg.Platform),
		extract.WithWorkers(cfg.Workers),
		extract.WithMaxFileSize(cfg.MaxFileSize),
		extract.WithOverwrite(cfg.Overwrite),
		extract.WithLogger(logger),
	)
	opts := []jarcache.Option{
		jarcache.WithExtractor(extractor),
		jarcache.WithPlatform(cfg.Platform),
		jarcache.WithCrossPlatformNames(cfg.CrossPlatform),
		jarcache.WithDirPerm(os.FileMode(cfg.DirPerm)),
		jarcache.WithLogger(logger),
	}
	if cfg.TempRoot != "" {
		opts = append(opts, jarcache.WithTempRoot(cfg.TempRoot))
	}
	return jarcache.New(opts...)
}
