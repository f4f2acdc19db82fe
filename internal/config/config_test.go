package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(nil, io.Discard)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Watch {
		t.Error("Watch should be off by default")
	}
	if cfg.Debounce != 300*time.Millisecond {
		t.Errorf("Debounce = %s, want 300ms", cfg.Debounce)
	}
	if !filepath.IsAbs(cfg.Root) {
		t.Errorf("Root = %q, want an absolute path", cfg.Root)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable() error = %v", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if cfg.Root != filepath.Dir(exe) {
		t.Errorf("Root = %q, want executable dir %q", cfg.Root, filepath.Dir(exe))
	}
}

func TestLoad_ReloadFlags(t *testing.T) {
	cfg, err := load([]string{"-watch", "-debounce", "50ms"}, io.Discard)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if !cfg.Watch {
		t.Error("Watch should be on")
	}
	if cfg.Debounce != 50*time.Millisecond {
		t.Errorf("Debounce = %s, want 50ms", cfg.Debounce)
	}

	def := Default()
	if cfg.Host != def.Host || cfg.Port != def.Port {
		t.Errorf("Addr() = %q, want the compiled-in %q", cfg.Addr(), def.Addr())
	}
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:8080")
	}
}

func TestLoad_AddressAndRootAreFixed(t *testing.T) {
	for _, args := range [][]string{
		{"-host", "127.0.0.1"},
		{"-port", "9000"},
		{"-root", t.TempDir()},
	} {
		_, err := load(args, io.Discard)
		if err == nil || !strings.Contains(err.Error(), "flag provided but not defined") {
			t.Errorf("load(%v) error = %v, want an undefined flag error", args, err)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "zero debounce", args: []string{"-debounce", "0s"}, wantErr: "invalid debounce"},
		{name: "positional argument", args: []string{"extra"}, wantErr: "unexpected arguments"},
		{name: "unknown flag", args: []string{"-compress"}, wantErr: "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.args, io.Discard)
			if err == nil {
				t.Fatalf("load(%v) should fail", tt.args)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("load(%v) error = %q, want it to contain %q", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestNormalize_Root(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.html")
	if err := os.WriteFile(file, []byte("<h1>hi</h1>"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "site"), 0755); err != nil {
		t.Fatalf("Failed to create site dir: %v", err)
	}

	tests := []struct {
		name    string
		root    string
		wantErr string
	}{
		{name: "missing root", root: filepath.Join(dir, "nope"), wantErr: "invalid root"},
		{name: "root is a file", root: file, wantErr: "not a directory"},
		{name: "directory", root: filepath.Join(dir, "site")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Root = tt.root
			err := cfg.normalize()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("normalize() error = %v", err)
				}
				if cfg.Root != tt.root {
					t.Errorf("Root = %q, want %q", cfg.Root, tt.root)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("normalize() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Help(t *testing.T) {
	_, err := load([]string{"-h"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("load(-h) error = %v, want flag.ErrHelp", err)
	}
}
