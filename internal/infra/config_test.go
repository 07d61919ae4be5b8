package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("backend", "", "")
	fs.String("log-level", "", "")
	return fs
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected base url %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 0 {
		t.Fatalf("timeout must default to environment default (0), got %s", cfg.Backend.Timeout)
	}
	if cfg.Dashboard.AuditLimit != 20 || cfg.Dashboard.EntityID1 != "CRM_001" || cfg.Dashboard.EntityID2 != "ERP_001" {
		t.Fatalf("unexpected dashboard defaults %+v", cfg.Dashboard)
	}
	if cfg.Dashboard.TimeLayout != time.DateTime {
		t.Fatalf("unexpected time layout %q", cfg.Dashboard.TimeLayout)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BACKEND_BASE_URL", "http://mdm.internal:9000")
	t.Setenv("BACKEND_TIMEOUT", "3s")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.BaseURL != "http://mdm.internal:9000" {
		t.Fatalf("env not applied: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Fatalf("env timeout not applied: %s", cfg.Backend.Timeout)
	}
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "console.yaml")
	data := []byte("backend:\n  base_url: http://from-file:8080\ndashboard:\n  audit_limit: 50\nlogger:\n  level: warn\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fs := testFlags()
	if err := fs.Parse([]string{"--config", path, "--backend", "http://from-flag:8080"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.BaseURL != "http://from-flag:8080" {
		t.Fatalf("flag must win over file, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Dashboard.AuditLimit != 50 {
		t.Fatalf("file value not applied: %d", cfg.Dashboard.AuditLimit)
	}
	if cfg.Logger.Level != "warn" {
		t.Fatalf("unset flag must not override file, got %q", cfg.Logger.Level)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	fs := testFlags()
	if err := fs.Parse([]string{"--config", "does-not-exist.yaml"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := LoadConfig(fs); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadConfigRejectsBadLimit(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DASHBOARD_AUDIT_LIMIT", "0")
	if _, err := LoadConfig(nil); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "console.log")
	logger, err := NewLogger(LoggerConfig{Level: "debug", Format: "json", File: file})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("log file is empty")
	}

	if _, err := NewLogger(LoggerConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for bad level")
	}
	if _, err := NewLogger(LoggerConfig{Level: "info", Format: "xml"}); err == nil {
		t.Fatalf("expected error for bad format")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
