package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelforge/takeoff/internal/common"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", s.ServerAddr)
	assert.Equal(t, 30*time.Minute, s.SessionTTL)
	assert.Equal(t, StoreMemory, s.SessionStore)
	assert.Equal(t, int64(256<<20), s.MaxUncompressedBytes)
	assert.Equal(t, 3, s.MarkRules.MinLength)
	assert.Equal(t, []string{"ASM_", "AUTO_"}, s.MarkRules.AutoPrefixes)
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("server.addr", ":9090")
	viper.Set("session.ttl", "10m")
	viper.Set("session.store", "sqlite")
	viper.Set("session.sqlite_path", "/tmp/takeoff-test/sessions.db")
	viper.Set("limits.max_uncompressed_bytes", 1024)
	viper.Set("identify.min_mark_length", 4)
	viper.Set("identify.auto_prefixes", []string{"GEN_"})

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", s.ServerAddr)
	assert.Equal(t, 10*time.Minute, s.SessionTTL)
	assert.Equal(t, StoreSQLite, s.SessionStore)
	assert.Equal(t, "/tmp/takeoff-test/sessions.db", s.SessionSQLitePath)
	assert.Equal(t, int64(1024), s.MaxUncompressedBytes)
	assert.Equal(t, 4, s.MarkRules.MinLength)
	assert.Equal(t, []string{"GEN_"}, s.MarkRules.AutoPrefixes)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("session.store", "redis")

	_, err := Load()
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadExpandsSQLitePath(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("session.store", "sqlite")
	viper.Set("session.sqlite_path", "~/takeoff/sessions.db")

	s, err := Load()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "takeoff", "sessions.db"), s.SessionSQLitePath)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TAKEOFF_TEST_DIR", "/var/lib/takeoff")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/sessions.db", filepath.Join(home, "sessions.db")},
		{"$TAKEOFF_TEST_DIR/sessions.db", "/var/lib/takeoff/sessions.db"},
		{"/absolute/sessions.db", "/absolute/sessions.db"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, expandPath(tt.in), tt.in)
	}
}
