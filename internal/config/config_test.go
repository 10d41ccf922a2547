package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("expected exists=false for missing file")
	}
	if cfg.Activation.ActivateTimeout != defaultActivateTimeout {
		t.Errorf("activate timeout = %d, want %d", cfg.Activation.ActivateTimeout, defaultActivateTimeout)
	}
	if cfg.Activation.DeactivateTimeout >= cfg.Activation.ActivateTimeout {
		t.Error("deactivate deadline should be shorter than activate deadline by default")
	}
	if !filepath.IsAbs(cfg.Paths.StateDir) {
		t.Errorf("state dir not expanded: %q", cfg.Paths.StateDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uplink.toml")
	content := `
[paths]
state_dir = "` + dir + `/state"

[activation]
activate_timeout = 120
deactivate_timeout = 5

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Errorf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.ActivateTimeout() != 120*time.Second {
		t.Errorf("activate timeout = %v", cfg.ActivateTimeout())
	}
	if cfg.DeactivateTimeout() != 5*time.Second {
		t.Errorf("deactivate timeout = %v", cfg.DeactivateTimeout())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.SocketPath() != filepath.Join(dir, "state", "uplinkd.sock") {
		t.Errorf("socket path = %q", cfg.SocketPath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Run("bad log format", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Format = "xml"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for logging.format")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Level = "loud"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for logging.level")
		}
	})

	t.Run("negative scan interval", func(t *testing.T) {
		cfg := Default()
		cfg.Monitor.ScanInterval = -1
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for negative scan_interval")
		}
	})

	t.Run("inverted deadlines", func(t *testing.T) {
		cfg := Default()
		cfg.Activation.ActivateTimeout = 5
		cfg.Activation.DeactivateTimeout = 60
		if err := cfg.Validate(); err == nil {
			t.Error("expected error when deactivate deadline exceeds activate deadline")
		}
	})
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	cfg := Config{}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Bus.CallTimeout != defaultCallTimeout {
		t.Errorf("call timeout = %d", cfg.Bus.CallTimeout)
	}
	if cfg.Monitor.EventBuffer != defaultEventBuffer {
		t.Errorf("event buffer = %d", cfg.Monitor.EventBuffer)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("log format = %q", cfg.Logging.Format)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[activation]") {
		t.Error("sample config missing [activation] section")
	}

	// The sample must itself load cleanly.
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
