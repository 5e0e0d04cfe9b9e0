// Package config provides configuration loading for pageahead using TOML,
// with environment overrides applied last.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/andybalholm/cascadia"

	"pageahead/gesture"
)

// Server locates the reading service's content endpoint.
type Server struct {
	BaseURL       string `toml:"baseURL"`
	ContentPath   string `toml:"contentPath"`
	ResourceParam string `toml:"resourceParam"`
	IndexParam    string `toml:"indexParam"`
}

// HTTP fetching settings
type Fetcher struct {
	UserAgent       string `toml:"userAgent"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	ChromePath      string `toml:"chromePath"`
	UseBrowser      bool   `toml:"useBrowser"`
	BrowserFallback bool   `toml:"browserFallback"`
}

// Display settings
type Display struct {
	ContentSelector string `toml:"contentSelector"`
	TitleSelector   string `toml:"titleSelector"`
	WideMode        bool   `toml:"wideMode"`
	ShowStatus      bool   `toml:"showStatus"`
	Justify         bool   `toml:"justify"`
	MaxWidth        int    `toml:"maxWidth"`
}

// Readiness bounds the wait for the first content region.
type Readiness struct {
	IntervalMillis int `toml:"intervalMillis"`
	MaxAttempts    int `toml:"maxAttempts"`
}

// Interceptor settings
type Interceptor struct {
	ContextMarker  string `toml:"contextMarker"`
	ControlSurface string `toml:"controlSurface"`
}

// Keybindings configuration. Each value is a named key (left, right, up,
// down, enter) or a single character.
type Keybindings struct {
	Quit       string `toml:"quit"`
	Advance    string `toml:"advance"`
	Retreat    string `toml:"retreat"`
	ScrollDown string `toml:"scrollDown"`
	ScrollUp   string `toml:"scrollUp"`
	PageDown   string `toml:"pageDown"`
	Reload     string `toml:"reload"`
	Help       string `toml:"help"`
}

// Log settings
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // empty = ~/.cache/pageahead/pageahead.log
}

// Config is the main configuration struct
type Config struct {
	Server      Server      `toml:"server"`
	Fetcher     Fetcher     `toml:"fetcher"`
	Display     Display     `toml:"display"`
	Readiness   Readiness   `toml:"readiness"`
	Interceptor Interceptor `toml:"interceptor"`
	Keybindings Keybindings `toml:"keybindings"`
	Log         Log         `toml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			BaseURL:       "http://127.0.0.1:1122",
			ContentPath:   "/getBookContent",
			ResourceParam: "url",
			IndexParam:    "index",
		},
		Fetcher: Fetcher{
			UserAgent:       "pageahead/1.0 (Terminal Reader)",
			TimeoutSeconds:  30,
			BrowserFallback: true,
		},
		Display: Display{
			ContentSelector: "div[chapterindex]",
			TitleSelector:   "div.title",
			ShowStatus:      true,
			Justify:         true,
			MaxWidth:        80,
		},
		Readiness: Readiness{
			IntervalMillis: 250,
			MaxAttempts:    40,
		},
		Interceptor: Interceptor{
			ContextMarker:  "chapter",
			ControlSurface: "toolbar",
		},
		Keybindings: Keybindings{
			Quit:       "q",
			Advance:    "right",
			Retreat:    "left",
			ScrollDown: "j",
			ScrollUp:   "k",
			PageDown:   " ",
			Reload:     "r",
			Help:       "?",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pageahead"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load layers the user config file and then the environment on top of the
// defaults, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if configPath, err := ConfigPath(); err == nil {
		if cfg, err = LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile layers the TOML file at path on top of base. A missing file
// returns base unchanged.
func LoadFile(base *Config, path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return base, nil
	}

	var user Config
	md, err := toml.DecodeFile(path, &user)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return merge(base, &user, md), nil
}

// merge layers user config on top of defaults. Strings and numbers override
// when non-zero; booleans override when the key is present in the file.
func merge(defaults, user *Config, md toml.MetaData) *Config {
	result := *defaults

	// Server
	mergeString(&result.Server.BaseURL, user.Server.BaseURL)
	mergeString(&result.Server.ContentPath, user.Server.ContentPath)
	mergeString(&result.Server.ResourceParam, user.Server.ResourceParam)
	mergeString(&result.Server.IndexParam, user.Server.IndexParam)

	// Fetcher
	mergeString(&result.Fetcher.UserAgent, user.Fetcher.UserAgent)
	mergeInt(&result.Fetcher.TimeoutSeconds, user.Fetcher.TimeoutSeconds)
	mergeString(&result.Fetcher.ChromePath, user.Fetcher.ChromePath)
	mergeBool(md, &result.Fetcher.UseBrowser, user.Fetcher.UseBrowser, "fetcher", "useBrowser")
	mergeBool(md, &result.Fetcher.BrowserFallback, user.Fetcher.BrowserFallback, "fetcher", "browserFallback")

	// Display
	mergeString(&result.Display.ContentSelector, user.Display.ContentSelector)
	mergeString(&result.Display.TitleSelector, user.Display.TitleSelector)
	mergeBool(md, &result.Display.WideMode, user.Display.WideMode, "display", "wideMode")
	mergeBool(md, &result.Display.ShowStatus, user.Display.ShowStatus, "display", "showStatus")
	mergeBool(md, &result.Display.Justify, user.Display.Justify, "display", "justify")
	mergeInt(&result.Display.MaxWidth, user.Display.MaxWidth)

	// Readiness
	mergeInt(&result.Readiness.IntervalMillis, user.Readiness.IntervalMillis)
	mergeInt(&result.Readiness.MaxAttempts, user.Readiness.MaxAttempts)

	// Interceptor
	mergeString(&result.Interceptor.ContextMarker, user.Interceptor.ContextMarker)
	mergeString(&result.Interceptor.ControlSurface, user.Interceptor.ControlSurface)

	// Keybindings - override each if set
	mergeString(&result.Keybindings.Quit, user.Keybindings.Quit)
	mergeString(&result.Keybindings.Advance, user.Keybindings.Advance)
	mergeString(&result.Keybindings.Retreat, user.Keybindings.Retreat)
	mergeString(&result.Keybindings.ScrollDown, user.Keybindings.ScrollDown)
	mergeString(&result.Keybindings.ScrollUp, user.Keybindings.ScrollUp)
	mergeString(&result.Keybindings.PageDown, user.Keybindings.PageDown)
	mergeString(&result.Keybindings.Reload, user.Keybindings.Reload)
	mergeString(&result.Keybindings.Help, user.Keybindings.Help)

	// Log
	mergeString(&result.Log.Level, user.Log.Level)
	mergeString(&result.Log.File, user.Log.File)

	return &result
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

func mergeBool(md toml.MetaData, dst *bool, src bool, key ...string) {
	if md.IsDefined(key...) {
		*dst = src
	}
}

// Validate checks selectors, bindings, the log level and the server URL.
func (c *Config) Validate() error {
	for name, sel := range map[string]string{
		"display.contentSelector": c.Display.ContentSelector,
		"display.titleSelector":   c.Display.TitleSelector,
	} {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("%s %q: %w", name, sel, err)
		}
	}

	for name, key := range c.Keybindings.named() {
		if _, err := gesture.ParseBinding(key); err != nil {
			return fmt.Errorf("keybindings.%s: %w", name, err)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q: expected debug, info, warn or error", c.Log.Level)
	}

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.baseURL %q: must be an absolute http(s) URL", c.Server.BaseURL)
	}
	if c.Readiness.IntervalMillis <= 0 || c.Readiness.MaxAttempts <= 0 {
		return fmt.Errorf("readiness: intervalMillis and maxAttempts must be positive")
	}
	return nil
}

func (k Keybindings) named() map[string]string {
	return map[string]string{
		"quit":       k.Quit,
		"advance":    k.Advance,
		"retreat":    k.Retreat,
		"scrollDown": k.ScrollDown,
		"scrollUp":   k.ScrollUp,
		"pageDown":   k.PageDown,
		"reload":     k.Reload,
		"help":       k.Help,
	}
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# pageahead configuration
# Save to ~/.config/pageahead/config.toml and customize
# Only include settings you want to change from defaults

# Reading service (Legado web service by default)
[server]
baseURL = "http://127.0.0.1:1122"
contentPath = "/getBookContent"
resourceParam = "url"         # query parameter carrying the book
indexParam = "index"          # query parameter carrying the chapter index

# HTTP fetching settings
[fetcher]
userAgent = "pageahead/1.0 (Terminal Reader)"
timeoutSeconds = 30
chromePath = ""               # Path to Chrome/Chromium (empty = auto-detect)
useBrowser = false            # Always fetch through headless Chrome
browserFallback = true        # Retry through Chrome when a bot wall answers

# Display settings
[display]
contentSelector = "div[chapterindex]"
titleSelector = "div.title"
wideMode = false              # Use the full terminal width
showStatus = true             # Show the status bar
justify = true                # Justify paragraph text
maxWidth = 80                 # Column width when not in wide mode

# Wait for the first chapter to appear
[readiness]
intervalMillis = 250
maxAttempts = 40

# Navigation interception
[interceptor]
contextMarker = "chapter"     # Intercept only while the location contains this
controlSurface = "toolbar"

# Keybindings: left, right, up, down, enter or a single character
[keybindings]
quit = "q"
advance = "right"
retreat = "left"
scrollDown = "j"
scrollUp = "k"
pageDown = " "
reload = "r"
help = "?"

[log]
level = "info"                # debug, info, warn, error
file = ""                     # empty = ~/.cache/pageahead/pageahead.log
`
}
