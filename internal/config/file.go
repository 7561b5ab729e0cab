package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the per-user config file location,
// $XDG_CONFIG_HOME/nitpx/config.yaml or the platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nitpx", "config.yaml")
}

// Load resolves Options from Defaults, the YAML file at path, NITPX_*
// environment variables and the flags in fs that were set explicitly, in
// increasing order of precedence. An empty path or a nil fs skips that
// source. Unknown keys in the file are an error.
func Load(path string, fs *pflag.FlagSet) (Options, error) {
	v := viper.New()

	def := reflect.ValueOf(Defaults())
	for key, i := range keyIndex {
		v.SetDefault(key, def.Field(i).Interface())
		if legacy, ok := legacyEnv[key]; ok {
			if err := v.BindEnv(key, EnvName(key), legacy); err != nil {
				return Options{}, err
			}
		}
	}
	v.SetEnvPrefix("NITPX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		settings, err := readFile(path)
		if err != nil {
			return Options{}, err
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return Options{}, fmt.Errorf("merging config file %s: %w", path, err)
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if bindErr == nil && IsKey(f.Name) {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return Options{}, bindErr
		}
	}

	var o Options
	err := v.UnmarshalExact(&o,
		func(c *mapstructure.DecoderConfig) { c.TagName = "yaml" },
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			trimStringHook,
			splitListHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)),
	)
	if err != nil {
		return Options{}, fmt.Errorf("resolving configuration: %w", err)
	}
	return o, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	settings := map[string]any{}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return settings, nil
}

var stringSliceType = reflect.TypeOf([]string(nil))

// Environment variables and list flags arrive as one comma-separated string.
func splitListHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != stringSliceType {
		return data, nil
	}
	return SplitList(reflect.ValueOf(data).String()), nil
}

func trimStringHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.String {
		return data, nil
	}
	return strings.TrimSpace(reflect.ValueOf(data).String()), nil
}
