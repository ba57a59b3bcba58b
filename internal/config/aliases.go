// Package config resolves the wastewatch config directory and reads its
// settings and food alias files.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the wastewatch config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/wastewatch if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "wastewatch"), nil
}

// AliasConfig maps detector class names to canonical food types.
// Keys are stored lowercased so lookups ignore case.
type AliasConfig struct {
	Aliases map[string]string
}

// LoadAliases reads the aliases file at {dir}/aliases and returns the parsed
// config. If the file does not exist, an empty config is returned without an
// error. Invalid or malformed lines are silently skipped.
func LoadAliases(dir string) (*AliasConfig, error) {
	cfg := &AliasConfig{
		Aliases: make(map[string]string),
	}

	path := filepath.Join(dir, "aliases")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// alias=food; an "=" in first position is invalid.
		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		alias := strings.TrimSpace(line[:idx])
		food := strings.TrimSpace(line[idx+1:])

		if alias == "" || food == "" {
			continue
		}

		cfg.Aliases[strings.ToLower(alias)] = food
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Resolve returns the canonical food type for name, or name itself when no
// alias matches. A nil config resolves nothing.
func (c *AliasConfig) Resolve(name string) string {
	if c == nil {
		return name
	}
	if food, ok := c.Aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return food
	}
	return name
}
