package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// keyIndex maps each config key to its Options field, as named by the yaml tags.
var keyIndex = func() map[string]int {
	t := reflect.TypeOf(Options{})
	idx := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name != "" && name != "-" {
			idx[name] = i
		}
	}
	return idx
}()

// Older variable names read for the settings they originally covered.
var legacyEnv = map[string]string{
	"trusted":     "NIT_PX_TRUSTED",
	"testing":     "NIT_PX_TESTING",
	"screenshots": "NIT_PX_SCREENSHOT_DIR",
	"ignored":     "NIT_PX_IGNORED_ROUTES",
	"routes":      "NIT_PX_ROUTES",
}

// Keys returns every config key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(keyIndex))
	for k := range keyIndex {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether name is a config key. Flags such as --config are not.
func IsKey(name string) bool {
	_, ok := keyIndex[name]
	return ok
}

// EnvName returns the environment variable that sets key.
func EnvName(key string) string {
	return "NITPX_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Value renders the option named key in the form its flag accepts.
func (o *Options) Value(key string) (string, bool) {
	i, ok := keyIndex[key]
	if !ok {
		return "", false
	}
	switch v := reflect.ValueOf(o).Elem().Field(i).Interface().(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, ","), true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case time.Duration:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// Flags renders o as command-line flags, one per key.
func (o *Options) Flags() []string {
	var out []string
	for _, key := range Keys() {
		v, _ := o.Value(key)
		out = append(out, fmt.Sprintf("--%s=%s", key, strconv.Quote(v)))
	}
	return out
}

// Env renders o as environment variable assignments, one per key.
func (o *Options) Env() []string {
	var out []string
	for _, key := range Keys() {
		v, _ := o.Value(key)
		out = append(out, fmt.Sprintf("%s=%s", EnvName(key), strconv.Quote(v)))
	}
	return out
}

// SplitList splits a comma-separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
