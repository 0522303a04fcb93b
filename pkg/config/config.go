// Package config holds the TOML configuration shared by relgraph and
// relview. Command line flags override whatever is loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds persistent settings.
type Config struct {
	View   ViewConfig   `toml:"view"`
	Source SourceConfig `toml:"source"`
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
	Log    LogConfig    `toml:"log"`
}

// ViewConfig sizes the layout viewport.
type ViewConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`
}

// SourceConfig controls where graph documents come from.
type SourceConfig struct {
	BaseURL      string   `toml:"base_url"`    // analysis backend, e.g. http://localhost:8000
	DetailBase   string   `toml:"detail_base"` // prefix for /job/<id> links; BaseURL when empty
	PollInterval Duration `toml:"poll_interval"`
	Debounce     Duration `toml:"debounce"`
	MaxPapers    int      `toml:"max_papers"` // papers per backend rebuild, 2 to 120
}

// ServerConfig controls relgraph serve.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// RenderConfig controls static output.
type RenderConfig struct {
	Renderer string `toml:"renderer"`  // "native" or "graphviz"
	FileType string `toml:"file_type"` // "png" or "svg"
	LastDir  string `toml:"last_dir"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // empty logs to stderr
}

// Duration is a time.Duration written as "5s" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		View: ViewConfig{Width: 960, Height: 640, FPS: 60},
		Source: SourceConfig{
			BaseURL:      "http://localhost:8000",
			PollInterval: Duration{5 * time.Second},
			Debounce:     Duration{500 * time.Millisecond},
			MaxPapers:    30,
		},
		Server: ServerConfig{
			Addr:           ":8090",
			AllowedOrigins: []string{"*"},
		},
		Render: RenderConfig{Renderer: "native", FileType: "png"},
		Log:    LogConfig{Level: "info"},
	}
}

// DetailURL returns the page that shows paper id.
func (c *Config) DetailURL(id string) string {
	base := c.Source.DetailBase
	if base == "" {
		base = c.Source.BaseURL
	}
	return fmt.Sprintf("%s/job/%s", trimSlash(base), id)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Dir returns the relgraph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".relgraph"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "relgraph")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fill()
	return cfg, nil
}

// fill restores defaults for values a file zeroed out.
func (c *Config) fill() {
	d := Default()
	if c.View.Width <= 0 {
		c.View.Width = d.View.Width
	}
	if c.View.Height <= 0 {
		c.View.Height = d.View.Height
	}
	if c.View.FPS <= 0 {
		c.View.FPS = d.View.FPS
	}
	if c.Source.PollInterval.Duration <= 0 {
		c.Source.PollInterval = d.Source.PollInterval
	}
	if c.Source.Debounce.Duration <= 0 {
		c.Source.Debounce = d.Source.Debounce
	}
	switch {
	case c.Source.MaxPapers <= 0:
		c.Source.MaxPapers = d.Source.MaxPapers
	case c.Source.MaxPapers < 2:
		c.Source.MaxPapers = 2
	case c.Source.MaxPapers > 120:
		c.Source.MaxPapers = 120
	}
	if c.Render.Renderer != "native" && c.Render.Renderer != "graphviz" {
		c.Render.Renderer = d.Render.Renderer
	}
	if c.Render.FileType != "png" && c.Render.FileType != "svg" {
		c.Render.FileType = d.Render.FileType
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString("# relgraph configuration\n"); err != nil {
		return err
	}
	return toml.NewEncoder(f).Encode(cfg)
}
