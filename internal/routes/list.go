package routes

import (
	"fmt"
	"os"
	"strings"
)

// ParseList splits a comma-separated route list. Entries are normalized and
// de-duplicated, keeping first-seen order. An empty entry is the homepage,
// so ",/about" tests both "/" and "/about".
func ParseList(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			parts[i] = "/"
		}
	}
	return dedupe(parts)
}

// LoadFile reads one route per line. Blank lines and lines starting with '#'
// are ignored.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes file %s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return dedupe(lines), nil
}

func dedupe(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	var result []string
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		n := Normalize(e)
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}
	return result
}
