package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultTOMLMatchesDefault(t *testing.T) {
	var decoded Config
	if _, err := toml.Decode(DefaultTOML(), &decoded); err != nil {
		t.Fatalf("DefaultTOML does not parse: %v", err)
	}
	if decoded != *Default() {
		t.Errorf("DefaultTOML drifted from Default()\ngot:  %+v\nwant: %+v", decoded, *Default())
	}
}

func TestLoadFileMissing(t *testing.T) {
	base := Default()
	cfg, err := LoadFile(base, filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != base {
		t.Error("expected base config back unchanged")
	}
}

func TestLoadFileMerges(t *testing.T) {
	path := writeConfig(t, `
[server]
baseURL = "http://reader.local:8080"

[display]
showStatus = false

[keybindings]
advance = "n"
`)
	cfg, err := LoadFile(Default(), path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.BaseURL != "http://reader.local:8080" {
		t.Errorf("baseURL not applied: %q", cfg.Server.BaseURL)
	}
	if cfg.Server.ContentPath != "/getBookContent" {
		t.Errorf("unset keys should keep defaults, got %q", cfg.Server.ContentPath)
	}
	if cfg.Display.ShowStatus {
		t.Error("an explicit false should override a true default")
	}
	if !cfg.Display.Justify {
		t.Error("booleans absent from the file should keep defaults")
	}
	if cfg.Keybindings.Advance != "n" || cfg.Keybindings.Retreat != "left" {
		t.Errorf("keybindings: got %+v", cfg.Keybindings)
	}
}

func TestLoadFileSyntaxError(t *testing.T) {
	path := writeConfig(t, "[server\nbaseURL=")
	if _, err := LoadFile(Default(), path); err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("expected an error naming the file, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad content selector", func(c *Config) { c.Display.ContentSelector = "div[" }, "display.contentSelector"},
		{"bad title selector", func(c *Config) { c.Display.TitleSelector = "a[href" }, "display.titleSelector"},
		{"bad binding", func(c *Config) { c.Keybindings.Help = "help" }, "keybindings.help"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"relative server", func(c *Config) { c.Server.BaseURL = "/reader" }, "server.baseURL"},
		{"zero readiness", func(c *Config) { c.Readiness.MaxAttempts = 0 }, "readiness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PAGEAHEAD_SERVER", "http://10.0.0.2:1122")
	t.Setenv("PAGEAHEAD_LOG_LEVEL", "debug")
	t.Setenv("PAGEAHEAD_USE_BROWSER", "true")

	cfg := Default()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Server.BaseURL != "http://10.0.0.2:1122" || cfg.Log.Level != "debug" || !cfg.Fetcher.UseBrowser {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Log.File != "" {
		t.Errorf("unset variables should leave values alone, got %q", cfg.Log.File)
	}
}

func TestApplyEnvUnsetBrowserKeepsFile(t *testing.T) {
	cfg := Default()
	cfg.Fetcher.UseBrowser = true
	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if !cfg.Fetcher.UseBrowser {
		t.Error("an unset PAGEAHEAD_USE_BROWSER must not reset the value")
	}
}

func TestApplyEnvError(t *testing.T) {
	t.Setenv("PAGEAHEAD_USE_BROWSER", "not-a-bool")

	err := ApplyEnv(Default())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
