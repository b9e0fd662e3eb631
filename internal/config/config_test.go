package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"unsquash/internal/config"
	"unsquash/internal/services"
)

func TestLoadUsesDefaultsWhenFileAbsent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Tool.Binary != "unsquashfs" {
		t.Fatalf("unexpected binary: %q", cfg.Tool.Binary)
	}
	if cfg.Tool.PollIntervalMS != 100 {
		t.Fatalf("unexpected poll interval: %d", cfg.Tool.PollIntervalMS)
	}
	if !cfg.Tool.UsePTY {
		t.Fatal("expected pty enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadReadsOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[tool]
binary = "/opt/squashfs-tools/unsquashfs"
poll_interval_ms = 25
use_pty = false

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Tool.Binary != "/opt/squashfs-tools/unsquashfs" {
		t.Fatalf("unexpected binary: %q", cfg.Tool.Binary)
	}
	if cfg.Tool.PollIntervalMS != 25 {
		t.Fatalf("unexpected poll interval: %d", cfg.Tool.PollIntervalMS)
	}
	if cfg.Tool.UsePTY {
		t.Fatal("expected pty disabled")
	}
	if cfg.Tool.PTYColumns != 80 {
		t.Fatalf("expected untouched keys to keep defaults, got %d", cfg.Tool.PTYColumns)
	}
	if got := cfg.PollInterval().Milliseconds(); got != 25 {
		t.Fatalf("unexpected PollInterval: %dms", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"zero interval", "[tool]\npoll_interval_ms = 0\n", "poll_interval_ms"},
		{"blank binary", "[tool]\nbinary = \"  \"\n", "binary"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "format"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "level"},
		{"bad columns", "[tool]\npty_columns = -1\n", "pty_columns"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got: %v", tc.want, err)
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration classification, got: %v", err)
			}
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	cfg := config.Default()
	if err := toml.Unmarshal([]byte(config.Sample()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg != config.Default() {
		t.Fatalf("sample config drifted from defaults: %+v", cfg)
	}
}

func TestExpandPathResolvesTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/logs")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "logs") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
