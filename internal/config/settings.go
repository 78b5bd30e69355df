package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/identify"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Settings is the resolved runtime configuration. Values come from the
// config file or TAKEOFF_ environment variables via Viper, with defaults
// applied here.
type Settings struct {
	ServerAddr string

	SessionTTL        time.Duration
	SessionStore      string
	SessionSQLitePath string

	MaxUncompressedBytes int64

	MarkRules identify.MarkRules
}

// Load resolves settings from Viper.
func Load() (*Settings, error) {
	s := &Settings{
		ServerAddr:           ":8080",
		SessionTTL:           30 * time.Minute,
		SessionStore:         StoreMemory,
		SessionSQLitePath:    "~/.local/share/takeoff/sessions.db",
		MaxUncompressedBytes: 256 << 20,
		MarkRules:            identify.DefaultMarkRules(),
	}

	if v := viper.GetString("server.addr"); v != "" {
		s.ServerAddr = v
	}
	if v := viper.GetDuration("session.ttl"); v > 0 {
		s.SessionTTL = v
	}
	if v := viper.GetString("session.store"); v != "" {
		s.SessionStore = v
	}
	if v := viper.GetString("session.sqlite_path"); v != "" {
		s.SessionSQLitePath = v
	}
	if v := viper.GetInt64("limits.max_uncompressed_bytes"); v > 0 {
		s.MaxUncompressedBytes = v
	}
	if v := viper.GetInt("identify.min_mark_length"); v > 0 {
		s.MarkRules.MinLength = v
	}
	if v := viper.GetStringSlice("identify.auto_prefixes"); len(v) > 0 {
		s.MarkRules.AutoPrefixes = v
	}

	s.SessionSQLitePath = expandPath(s.SessionSQLitePath)

	if s.SessionStore != StoreMemory && s.SessionStore != StoreSQLite {
		return nil, fmt.Errorf("%w: session.store %q, want %q or %q",
			common.ErrInvalidConfig, s.SessionStore, StoreMemory, StoreSQLite)
	}

	return s, nil
}

// expandPath resolves ~ and $VAR references in the sqlite store path, so
// values like the ~/.local/share/takeoff default work whether they come from
// the config file or from TAKEOFF_SESSION_SQLITE_PATH.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
