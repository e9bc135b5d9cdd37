package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
database:
  path: "/data/liftlog.db"
log:
  file: "/var/log/liftlog.log"
  level: "debug"
  json: true
  max_size_mb: 10
  max_backups: 5
export:
  dir: "/exports"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Path != "/data/liftlog.db" {
		t.Errorf("database.path = %q, want %q", cfg.Database.Path, "/data/liftlog.db")
	}
	if cfg.Log.File != "/var/log/liftlog.log" {
		t.Errorf("log.file = %q", cfg.Log.File)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log level/json = %q/%v", cfg.Log.Level, cfg.Log.JSON)
	}
	if cfg.Log.MaxSizeMB != 10 || cfg.Log.MaxBackups != 5 {
		t.Errorf("log rotation = %d/%d, want 10/5", cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}
	if cfg.Export.Dir != "/exports" {
		t.Errorf("export.dir = %q, want %q", cfg.Export.Dir, "/exports")
	}
}

// TestLoadMissingFileUsesDefaults verifies a first run works without any config file.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(cfg.Database.Path, filepath.Join("liftlog", "liftlog.db")) {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxSizeMB != 50 {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.Export.Dir != "." {
		t.Errorf("export.dir = %q, want %q", cfg.Export.Dir, ".")
	}
}

// TestLoadPartialKeepsDefaults verifies that keys absent from the file keep their defaults.
func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeTemp(t, "log:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB != 50 || cfg.Database.Path == "" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LIFTLOG_DB_PATH", "/tmp/override.db")
	t.Setenv("LIFTLOG_LOG_LEVEL", "error")
	t.Setenv("LIFTLOG_LOG_JSON", "false")
	t.Setenv("LIFTLOG_EXPORT_DIR", "/tmp/out")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "error" || cfg.Log.JSON {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Export.Dir != "/tmp/out" {
		t.Errorf("export.dir = %q", cfg.Export.Dir)
	}
	// Unchanged fields should keep YAML values
	if cfg.Log.File != "/var/log/liftlog.log" {
		t.Errorf("log.file = %q", cfg.Log.File)
	}
}

func TestEnvOverrideInvalidBoolIgnored(t *testing.T) {
	t.Setenv("LIFTLOG_LOG_JSON", "maybe")
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Log.JSON {
		t.Error("an unparsable bool should keep the file value")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"zero size", "log:\n  max_size_mb: 0\n", "log.max_size_mb"},
		{"negative backups", "log:\n  max_backups: -1\n", "log.max_backups"},
		{"empty db path", "database:\n  path: \"\"\n", "database.path"},
		{"empty export dir", "export:\n  dir: \"\"\n", "export.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemp(t, tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeTemp(t, "database: [unclosed"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoggingParams(t *testing.T) {
	cfg, _ := Load(writeTemp(t, validYAML))
	p := cfg.LoggingParams()
	if p.File != cfg.Log.File || p.Level != "debug" || !p.JSON || p.MaxSizeMB != 10 || p.MaxBackups != 5 {
		t.Fatalf("unexpected params %+v", p)
	}
}
