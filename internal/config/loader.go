package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/saturn597/stem/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Load reads a configuration file into the store, overwriting existing keys.
// The format is chosen by extension: .yaml and .yml are YAML, anything else
// is the key/value format.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}

	var entries map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, err = parseYAML(path, data)
	default:
		entries, err = parseKeyValue(path, data)
	}
	if err != nil {
		return err
	}

	for key, value := range entries {
		s.values[key] = value
	}
	logging.Debug("ConfigLoader", "Loaded %d entries from %s", len(entries), path)
	return nil
}

// LoadIfExists loads path when it exists and reports whether it did.
func (s *Store) LoadIfExists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No configuration found at %s", path)
			return false, nil
		}
		return false, &FileError{Path: path, Err: err}
	}
	if err := s.Load(path); err != nil {
		return false, err
	}
	return true, nil
}

// parseKeyValue reads "key value" or "key=value" lines. A line starting with
// '#' is a comment and blank lines are ignored.
func parseKeyValue(path string, data []byte) (map[string]string, error) {
	entries := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value := splitEntry(line)
		if key == "" {
			return nil, &FileError{Path: path, Line: lineNumber, Err: fmt.Errorf("entry has no key: %q", line)}
		}
		entries[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, &FileError{Path: path, Line: lineNumber, Err: err}
	}
	return entries, nil
}

// splitEntry separates a line on the first '=' or whitespace, whichever comes first.
func splitEntry(line string) (string, string) {
	idx := strings.IndexFunc(line, func(r rune) bool {
		return r == '=' || unicode.IsSpace(r)
	})
	if idx < 0 {
		return line, ""
	}
	key := strings.TrimSpace(line[:idx])
	rest := strings.TrimSpace(line[idx:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "="))
	return key, rest
}

func parseYAML(path string, data []byte) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FileError{Path: path, Err: fmt.Errorf("invalid YAML: %w", err)}
	}
	entries := make(map[string]string)
	flatten("", doc, entries)
	return entries, nil
}

// flatten turns nested maps into dotted keys. Lists are joined with commas.
func flatten(prefix string, node interface{}, out map[string]string) {
	switch v := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			flatten(joinKey(prefix, key), v[key], out)
		}
	case map[interface{}]interface{}:
		for key, child := range v {
			flatten(joinKey(prefix, fmt.Sprint(key)), child, out)
		}
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, scalarString(item))
		}
		out[prefix] = strings.Join(items, ",")
	default:
		if prefix != "" {
			out[prefix] = scalarString(v)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func scalarString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
