package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	l, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := l.Config()
	if cfg.AppName != "OmniFocus" || cfg.Interpreter != "osascript" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Timeout != 30*time.Second || cfg.LongTimeout != 120*time.Second {
		t.Errorf("timeouts = %s/%s", cfg.Timeout, cfg.LongTimeout)
	}
	if cfg.MaxDirectSize != 523000 || cfg.MaxBridgeSize != 261000 {
		t.Errorf("size limits = %d/%d", cfg.MaxDirectSize, cfg.MaxBridgeSize)
	}
	if cfg.Cache.ProjectsTTL != 5*time.Minute {
		t.Errorf("projects ttl = %s", cfg.Cache.ProjectsTTL)
	}
	ec := cfg.Executor()
	if strings.Join(ec.Args, " ") != "-l JavaScript" {
		t.Errorf("interpreter args = %v", ec.Args)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "timeout: 10s\noutput:\n  format: json\ncache:\n  tags_ttl: 1m\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OFOCUS_LONG_TIMEOUT", "45s")
	t.Setenv("OFOCUS_CACHE_ENABLED", "false")

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := l.Config()
	if cfg.Timeout != 10*time.Second || cfg.Output.Format != "json" || cfg.Cache.TagsTTL != time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.LongTimeout != 45*time.Second || cfg.Cache.Enabled {
		t.Errorf("env values not applied: long=%s cache=%v", cfg.LongTimeout, cfg.Cache.Enabled)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output:\n  format: xml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("Load() accepted an unknown output format")
	}
}

func TestSetPersists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Set("output.format", "csv"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := l.Set("no.such.key", "1"); err == nil {
		t.Errorf("Set() accepted an unknown key")
	}
	if err := l.Set("log_level", "chatty"); err == nil {
		t.Errorf("Set() accepted an invalid log level")
	}
	if l.Config().LogLevel != "warn" {
		t.Errorf("failed Set() changed the config: %q", l.Config().LogLevel)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Config().Output.Format != "csv" {
		t.Errorf("persisted format = %q, want csv", again.Config().Output.Format)
	}
	out, err := again.YAML()
	if err != nil || !strings.Contains(string(out), "format: csv") {
		t.Errorf("YAML() = %s, %v", out, err)
	}
}

func TestParseLevel(t *testing.T) {
	for in, ok := range map[string]bool{"debug": true, "INFO": true, "warn": true, "error": true, "loud": false} {
		if _, err := ParseLevel(in); (err == nil) != ok {
			t.Errorf("ParseLevel(%q) error = %v", in, err)
		}
	}
}
