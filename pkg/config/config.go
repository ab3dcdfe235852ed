// Package config loads confsync's layered tool configuration: embedded
// defaults, then the user config file, then CONFSYNC_* environment
// variables, each layer overriding the one below.
package config

import (
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/confsync/pkg/errors"
)

// Config is the resolved tool configuration.
type Config struct {
	Backups BackupsConfig `koanf:"backups" toml:"backups"`
	Sources SourcesConfig `koanf:"sources" toml:"sources"`
	Target  TargetConfig  `koanf:"target" toml:"target"`
}

// BackupsConfig controls snapshot retention.
type BackupsConfig struct {
	// Keep is how many snapshots `confsync prune` retains.
	Keep int `koanf:"keep" toml:"keep"`
}

// SourcesConfig controls source materialization.
type SourcesConfig struct {
	// OnUnreachable is "skip" or "abort".
	OnUnreachable string `koanf:"on_unreachable" toml:"on_unreachable"`
}

// TargetConfig overrides destination resolution.
type TargetConfig struct {
	// Dir, when set, replaces the home directory as the base that
	// category target_dirs resolve against.
	Dir string `koanf:"dir" toml:"dir"`
}

const (
	PolicySkipValue  = "skip"
	PolicyAbortValue = "abort"

	// EnvPrefix namespaces the environment override layer, e.g.
	// CONFSYNC_BACKUPS_KEEP=10.
	EnvPrefix = "CONFSYNC_"
)

// Load resolves the configuration: embedded defaults, then the file at
// configPath when it exists, then CONFSYNC_* environment variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load built-in defaults")
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad,
					"cannot load config file %s", configPath)
			}
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load environment overrides")
	}

	// Environment values arrive as strings, so decode weakly typed
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot decode configuration")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Backups.Keep < 0 {
		return errors.Newf(errors.ErrConfigLoad,
			"backups.keep must not be negative, got %d", c.Backups.Keep)
	}
	switch c.Sources.OnUnreachable {
	case PolicySkipValue, PolicyAbortValue:
		return nil
	default:
		return errors.Newf(errors.ErrConfigLoad,
			"sources.on_unreachable must be %q or %q, got %q",
			PolicySkipValue, PolicyAbortValue, c.Sources.OnUnreachable)
	}
}
