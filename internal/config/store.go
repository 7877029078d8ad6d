package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	stemstrings "github.com/saturn597/stem/pkg/strings"
)

// tagName is the struct tag Sync decodes into.
const tagName = "conf"

// Store holds configuration as dotted keys mapped to string values.
// The zero value is not usable, create one with NewStore.
type Store struct {
	values map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// NewStoreWithDefaults returns a store pre-populated with Defaults.
func NewStoreWithDefaults() *Store {
	s := NewStore()
	for key, value := range Defaults() {
		s.values[key] = value
	}
	return s
}

// Set assigns a value. The last write wins.
func (s *Store) Set(key, value string) {
	s.values[key] = value
}

// Merge copies every entry of other into the store, overwriting existing keys.
func (s *Store) Merge(other *Store) {
	for key, value := range other.values {
		s.values[key] = value
	}
}

// Has reports whether key has been assigned, even to an empty value.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the value for key, or def when the key is absent or empty.
func (s *Store) Get(key, def string) string {
	if value, ok := s.values[key]; ok && value != "" {
		return value
	}
	return def
}

// GetBool returns the boolean value for key. Unparsable values fall back to def.
func (s *Store) GetBool(key string, def bool) bool {
	value := s.Get(key, "")
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

// GetInt returns the integer value for key. Unparsable values fall back to def.
func (s *Store) GetInt(key string, def int) int {
	value := s.Get(key, "")
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// GetList splits a comma separated value, trimming spaces and dropping empty entries.
func (s *Store) GetList(key string, def []string) []string {
	items := stemstrings.SplitList(s.Get(key, ""))
	if len(items) == 0 {
		return def
	}
	return items
}

// GetDuration parses values such as "90s" or "2m". Bare numbers are seconds.
func (s *Store) GetDuration(key string, def time.Duration) time.Duration {
	value := s.Get(key, "")
	if value == "" {
		return def
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

// Keys returns every assigned key in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(s.values))
	for key, value := range s.values {
		snapshot[key] = value
	}
	return snapshot
}

// Sync decodes the store into dst, a pointer to a struct whose fields carry
// `conf:"dotted.key"` tags, or a pointer to a map.
func (s *Store) Sync(dst interface{}) error {
	input := make(map[string]interface{}, len(s.values))
	for key, value := range s.values {
		input[key] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		TagName:          tagName,
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// secondsToDurationHook lets durations be written as bare seconds, matching GetDuration.
func secondsToDurationHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return time.Duration(0), nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return raw, nil
}

// String renders the store as sorted key/value lines.
func (s *Store) String() string {
	var sb strings.Builder
	for _, key := range s.Keys() {
		fmt.Fprintf(&sb, "%s %s\n", key, s.values[key])
	}
	return sb.String()
}
