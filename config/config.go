// Package config loads the host-facing settings of the annotation engine.
// Sources are merged with increasing priority: built-in defaults, an
// optional YAML file, then VALIDOC_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "VALIDOC_"

// Config carries the tunable settings of an annotation run.
type Config struct {
	Log  LogConfig  `koanf:"log"`
	Docs DocsConfig `koanf:"docs"`
}

// LogConfig controls the warning sink.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// DocsConfig controls annotation behavior.
type DocsConfig struct {
	// DisabledRules removes default rules by name, e.g. "Pattern" for
	// consumers whose tooling rejects non-ECMA regular expressions.
	DisabledRules []string `koanf:"disabledrules"`
}

// Load reads configuration from defaults, the given YAML file, and the
// environment. A missing or empty path is not an error: file settings are
// optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	env := envprovider.Provider(".", envprovider.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
	})
	if err := k.Load(env, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":  "info",
		"log.pretty": false,
	}
}
