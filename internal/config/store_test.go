package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestStore_GetFallsBackToDefault(t *testing.T) {
	s := NewStore()
	s.Set("present", "value")
	s.Set("empty", "")

	assert.Equal(t, "value", s.Get("present", "def"))
	assert.Equal(t, "def", s.Get("empty", "def"))
	assert.Equal(t, "def", s.Get("missing", "def"))
	assert.True(t, s.Has("empty"))
	assert.False(t, s.Has("missing"))
}

func TestStore_TypedGetters(t *testing.T) {
	s := NewStore()
	s.Set("bool.true", "true")
	s.Set("bool.bad", "nope")
	s.Set("int", "42")
	s.Set("list", " a, b ,,c ")
	s.Set("duration", "2m")
	s.Set("seconds", "30")

	assert.True(t, s.GetBool("bool.true", false))
	assert.True(t, s.GetBool("bool.bad", true))
	assert.False(t, s.GetBool("missing", false))
	assert.Equal(t, 42, s.GetInt("int", 0))
	assert.Equal(t, 7, s.GetInt("missing", 7))
	assert.Equal(t, []string{"a", "b", "c"}, s.GetList("list", nil))
	assert.Equal(t, []string{"x"}, s.GetList("missing", []string{"x"}))
	assert.Equal(t, 2*time.Minute, s.GetDuration("duration", 0))
	assert.Equal(t, 30*time.Second, s.GetDuration("seconds", 0))
	assert.Equal(t, time.Second, s.GetDuration("missing", time.Second))
}

func TestStore_KeysSorted(t *testing.T) {
	s := NewStore()
	s.Set("b", "1")
	s.Set("a", "2")
	s.Set("c.d", "3")

	assert.Equal(t, []string{"a", "b", "c.d"}, s.Keys())
}

func TestStore_LoadKeyValue(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.cfg", `
# comment line
integ.start_timeout 2m
test.go.flags=-race,-short
integ.control_password  secret with spaces
integ.keep_data_dir
`)

	s := NewStore()
	require.NoError(t, s.Load(path))

	assert.Equal(t, "2m", s.Get("integ.start_timeout", ""))
	assert.Equal(t, "-race,-short", s.Get("test.go.flags", ""))
	assert.Equal(t, "secret with spaces", s.Get("integ.control_password", ""))
	assert.True(t, s.Has("integ.keep_data_dir"))
	assert.Len(t, s.Keys(), 4)
}

func TestStore_LoadYAMLFlattens(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.yaml", `
integ:
  start_timeout: 45s
  bootstrap_percent: 10
  target:
    run:
      socket: true
test:
  go:
    flags:
      - -race
      - -short
`)

	s := NewStore()
	require.NoError(t, s.Load(path))

	assert.Equal(t, "45s", s.Get("integ.start_timeout", ""))
	assert.Equal(t, "10", s.Get("integ.bootstrap_percent", ""))
	assert.True(t, s.GetBool("integ.target.run.socket", false))
	assert.Equal(t, []string{"-race", "-short"}, s.GetList("test.go.flags", nil))
}

func TestStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		err := NewStore().Load(filepath.Join(dir, "nope.cfg"))
		require.Error(t, err)

		var fileErr *FileError
		require.True(t, errors.As(err, &fileErr))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "integ: [unterminated\n")
		err := NewStore().Load(path)

		var fileErr *FileError
		require.True(t, errors.As(err, &fileErr))
		assert.Equal(t, path, fileErr.Path)
	})

	t.Run("entry without key", func(t *testing.T) {
		path := writeFile(t, dir, "bad.cfg", "ok.key 1\n=value\n")
		err := NewStore().Load(path)

		var fileErr *FileError
		require.True(t, errors.As(err, &fileErr))
		assert.Equal(t, 2, fileErr.Line)
		assert.Contains(t, err.Error(), "bad.cfg:2")
	})
}

func TestStore_LoadIfExists(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()

	loaded, err := s.LoadIfExists(filepath.Join(dir, "absent.cfg"))
	require.NoError(t, err)
	assert.False(t, loaded)

	path := writeFile(t, dir, "present.cfg", "a 1\n")
	loaded, err = s.LoadIfExists(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "1", s.Get("a", ""))
}

func TestStore_OverrideAfterLoadWins(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.cfg", "test.arg.tor /from/file\n")

	s := NewStoreWithDefaults()
	require.NoError(t, s.Load(path))
	assert.Equal(t, "/from/file", s.Get(KeyTor, ""))

	s.Set(KeyTor, "/from/cli")
	assert.Equal(t, "/from/cli", s.Get(KeyTor, ""))
}

func TestStore_SyncIntoMap(t *testing.T) {
	s := NewStore()
	s.Set("a", "1")
	s.Set("b.c", "two")

	out := map[string]string{}
	require.NoError(t, s.Sync(&out))
	assert.Equal(t, map[string]string{"a": "1", "b.c": "two"}, out)
}

func TestStore_Merge(t *testing.T) {
	base := NewStoreWithDefaults()
	base.Set(KeyControlPort, "2222")

	user := NewStore()
	user.Set(KeyControlPort, "3333")
	user.Set("integ.extra", "1")

	base.Merge(user)
	assert.Equal(t, "3333", base.Get(KeyControlPort, ""))
	assert.Equal(t, "1", base.Get("integ.extra", ""))
	assert.Equal(t, "tor", base.Get(KeyTor, ""))
}

func TestBaseSettingsPath(t *testing.T) {
	assert.Equal(t, filepath.Join("test", "settings.cfg"), BaseSettingsPath(""))
	assert.Equal(t, filepath.Join("/src/stem", "test", "settings.cfg"), BaseSettingsPath("/src/stem"))
}
