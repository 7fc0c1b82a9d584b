package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteProvider(t *testing.T) *SQLiteProvider {
	t.Helper()
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestSQLiteProviderEmpty(t *testing.T) {
	p := newSQLiteProvider(t)
	cfg, err := p.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, AlignmentData{}, cfg.Alignment)
	assert.Nil(t, cfg.Profiles)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, p.IsReadOnly())

	def, err := p.GetAlignmentProfile("")
	require.NoError(t, err)
	assert.Equal(t, &AlignmentData{}, def)

	_, err = p.GetAlignmentProfile("live")
	assert.Error(t, err)
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	src, err := NewYAMLProvider(writeYAML(t, sampleYAML)).LoadConfig()
	require.NoError(t, err)

	p := newSQLiteProvider(t)
	require.NoError(t, p.SaveConfig(src))

	got, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, src, got)

	live, err := p.GetAlignmentProfile("live")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 127}, live.ExcludeLabels)
	assert.Equal(t, 40.0, *live.Window.MaxForward)
	assert.Nil(t, live.Window.MinForward)

	storage, err := p.GetStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/notealign/runs.db", storage.SQLite.Path)
}

func TestSQLiteProviderReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.db")
	p, err := NewSQLiteProvider(path)
	require.NoError(t, err)

	port := 7070
	require.NoError(t, p.SaveConfig(&ConfigData{Server: ServerData{Port: port}}))
	require.NoError(t, p.Close())

	p, err = NewSQLiteProvider(path)
	require.NoError(t, err)
	defer p.Close()

	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, port, cfg.Server.Port)
}
