package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
)

func TestLoadMissing(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, s.LastConfig)
	assert.Empty(t, s.Indent)
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte("{nope"), 0644))
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLastConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cat := catalog.Default()
	cfg := features.Default(cat)
	cfg.SetBool("merge_option", true)
	cfg.SetEnum("key_type", "long long")

	_, ok, err := GetLastConfig(dir)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetLastConfig(dir, cfg))
	got, ok, err := GetLastConfig(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, cfg.Equal(got))

	entries, err := os.ReadDir(filepath.Join(dir, Dir))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp file left behind")
	}
}

func TestUpdateKeepsOtherFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SetIndent(dir, "tab"))
	require.NoError(t, Update(dir, func(s *Settings) error {
		s.Output = "out/t.cpp"
		return nil
	}))
	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "tab", s.Indent)
	assert.Equal(t, filepath.Join(dir, "out/t.cpp"), OutputPath(dir))
}

func TestConcurrentUpdates(t *testing.T) {
	dir := t.TempDir()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, Update(dir, func(s *Settings) error {
				s.Indent += "x"
				return nil
			}))
		}()
	}
	wg.Wait()
	s, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, s.Indent, 10)
}

func TestPresetDBPath(t *testing.T) {
	dir := t.TempDir()
	p, err := PresetDBPath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultPresetDB), p)

	require.NoError(t, Update(dir, func(s *Settings) error {
		s.PresetDB = "/tmp/elsewhere.db"
		return nil
	}))
	p, err = PresetDBPath(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere.db", p)
	assert.Equal(t, filepath.Join(dir, DefaultOutput), OutputPath(dir))
}
