// Package mimetype resolves the Content-Type served for a file name.
package mimetype

import (
	"maps"
	"mime"
	"path/filepath"
	"strings"
)

// overrides win over the standard extension table. Keys are matched as
// literal, case-sensitive name suffixes.
var overrides = map[string]string{
	".wasm": "application/wasm",
}

// TypeByName returns the Content-Type for a file name. The standard table
// is consulted first and an override replaces its answer, including the
// case where the standard table has no entry. An empty result means the
// type is unknown and the caller should sniff the content.
func TypeByName(name string) string {
	ctype := mime.TypeByExtension(filepath.Ext(name))
	for suffix, override := range overrides {
		if strings.HasSuffix(name, suffix) {
			return override
		}
	}
	return ctype
}

// Overrides returns a copy of the override table.
func Overrides() map[string]string {
	return maps.Clone(overrides)
}
