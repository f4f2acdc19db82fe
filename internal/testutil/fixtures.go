// Package testutil provides document root fixtures and response assertions
// shared by the server tests.
package testutil

import (
	"net/http"
	"path"
	"testing"

	"github.com/spf13/afero"
)

// CreateRootFs creates an in-memory document root holding files.
// Keys are slash-separated paths relative to the root.
func CreateRootFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		full := path.Join("/", name)
		if err := fs.MkdirAll(path.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := afero.WriteFile(fs, full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return fs
}

// SampleSite mirrors a typical wasm build output.
func SampleSite() map[string]string {
	return map[string]string{
		"index.html":                    "<!doctype html><title>terminal</title>",
		"app.wasm":                      "\x00asm\x01\x00\x00\x00",
		"pkg/rust_web_terminal.js":      "export default function init() {}",
		"pkg/rust_web_terminal_bg.wasm": "\x00asm\x01\x00\x00\x00",
		"assets/style.css":              "body { margin: 0 }",
		"assets/notes.txt":              "plain notes",
		"docs/index.html":               "<h1>docs</h1>",
	}
}

// AssertIsolationHeaders checks both cross-origin isolation headers.
func AssertIsolationHeaders(t *testing.T, h http.Header) {
	t.Helper()
	if got := h.Get("Cross-Origin-Embedder-Policy"); got != "require-corp" {
		t.Errorf("Cross-Origin-Embedder-Policy = %q, want %q", got, "require-corp")
	}
	if got := h.Get("Cross-Origin-Opener-Policy"); got != "same-origin" {
		t.Errorf("Cross-Origin-Opener-Policy = %q, want %q", got, "same-origin")
	}
}
