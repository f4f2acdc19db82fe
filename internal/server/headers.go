package server

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/Kush-Singh-26/isoserve/internal/mimetype"
)

// Cross-origin isolation headers sent on every response.
const (
	HeaderCOEP = "Cross-Origin-Embedder-Policy"
	HeaderCOOP = "Cross-Origin-Opener-Policy"

	valueCOEP = "require-corp"
	valueCOOP = "same-origin"
)

// isolationWriter injects the isolation headers at the moment the header
// block is finalized, whatever the status code.
type isolationWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *isolationWriter) WriteHeader(code int) {
	h := w.Header()
	h.Set(HeaderCOEP, valueCOEP)
	h.Set(HeaderCOOP, valueCOOP)
	// 1xx responses are followed by the real header block.
	if code >= http.StatusOK {
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *isolationWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *isolationWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *isolationWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func withIsolation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ic := connFrom(r.Context()); ic != nil {
			ic.enter()
			defer ic.exit()
		}
		iw := &isolationWriter{ResponseWriter: w}
		next.ServeHTTP(iw, r)
		// A handler that wrote nothing still gets an implicit 200.
		if !iw.wroteHeader {
			iw.WriteHeader(http.StatusOK)
		}
	})
}

// withContentType presets Content-Type when the request resolves to a
// regular file. http.FileServer keeps a preset type and only falls back to
// its own extension lookup or sniffing when none is set; error responses
// replace it with text/plain.
func (s *Server) withContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name, ok := s.resolveFile(r.URL.Path); ok {
			if ctype := mimetype.TypeByName(name); ctype != "" {
				w.Header().Set("Content-Type", ctype)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// resolveFile reports the base name of the regular file urlPath names
// under the root. Paths the file server answers with a redirect are skipped.
func (s *Server) resolveFile(urlPath string) (string, bool) {
	if strings.HasSuffix(urlPath, "/") || strings.HasSuffix(urlPath, "/index.html") {
		return "", false
	}
	info, err := s.fs.Stat(filepath.FromSlash(path.Clean("/" + urlPath)))
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return info.Name(), true
}
