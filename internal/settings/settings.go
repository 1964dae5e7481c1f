// Package settings loads the runtime settings of the formtree command.
//
// Precedence, highest first: flags, FORMTREE_* environment variables, the
// settings file (formtree.yaml), defaults.
package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	FileName  = "formtree.yaml"
	EnvPrefix = "FORMTREE_"
)

type Settings struct {
	// Catalogs are directories, files, URLs or git repositories layered over the builtin
	// catalog.
	Catalogs       []string          `koanf:"catalogs"`
	CatalogHeaders map[string]string `koanf:"catalog_headers"`
	Builtin        bool              `koanf:"builtin"`
	ConflictError  bool              `koanf:"conflict_error"`
	LogLevel       string            `koanf:"log_level"`
	LogFormat      string            `koanf:"log_format"`
	CacheSize      int               `koanf:"cache_size"`
	MetricsFile    string            `koanf:"metrics_file"`

	// File is the settings file that was read, if any.
	File string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"catalogs":       []string{},
		"builtin":        true,
		"conflict_error": false,
		"log_level":      "warn",
		"log_format":     "text",
		"cache_size":     256,
		"metrics_file":   "",
	}
}

// flagKeys maps flag names whose settings key is not the snake_case flag
// name.
var flagKeys = map[string]string{
	"catalog": "catalogs",
}

// Load reads the settings. cfgFile selects the settings file; when empty,
// formtree.yaml in the working directory is used if present. Only flags that
// were set on the command line override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading settings file %s: %w", used, err)
		}
	}

	// FORMTREE_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	s.File = used
	return &s, nil
}

func findFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	return ""
}
