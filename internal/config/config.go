// Package config holds the process-wide serve settings.
// They are established once at startup and never change afterwards.
package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 8080
	DefaultDebounce = 300 * time.Millisecond
)

type Config struct {
	Host     string
	Port     int
	Root     string // absolute path of the document root
	Watch    bool
	Debounce time.Duration
}

// Default returns the compiled-in settings. The document root is the
// directory containing the running executable; under `go run` that is the
// temporary build directory.
func Default() *Config {
	return &Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Root:     executableDir(),
		Debounce: DefaultDebounce,
	}
}

// Load parses the serve flags from args on top of Default. Host, port and
// document root are fixed; only live reload can be switched on.
func Load(args []string) (*Config, error) {
	return load(args, os.Stderr)
}

func load(args []string, output io.Writer) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&cfg.Watch, "watch", false, "Reload connected browsers when files under the root change")
	fs.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "Quiet period before a reload is sent")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.Debounce <= 0 {
		return fmt.Errorf("invalid debounce %s: must be positive", c.Debounce)
	}

	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("invalid root %q: %w", c.Root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid root %s: not a directory", abs)
	}
	c.Root = abs
	return nil
}

// Addr returns the host:port pair to listen on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
