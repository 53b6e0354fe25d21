// Package fixture runs an ephemeral HTTPS server that stands in for the
// release host during updater tests. It binds the first free port in a
// configurable range, serves an in-memory content overlay with an optional
// on-disk fallback, and records every request path it sees.
package fixture

import (
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leauto/leauto/pkg/ports"
)

// Config controls where the fixture binds and what it serves.
type Config struct {
	// Host to bind; defaults to localhost.
	Host string
	// PortRange to scan for a free port; defaults to ports.DefaultRange.
	PortRange ports.Range
	// Root is an optional directory served when the overlay has no entry
	// for a request path.
	Root string
}

// Server is a running fixture. Start it with Start and always pair it with
// Shutdown; the vended port stays reserved until then.
type Server struct {
	host    string
	port    int
	certPEM []byte

	srv       *http.Server
	serveDone chan struct{}

	mu       sync.Mutex
	overlay  map[string][]byte
	requests []string
	root     string
}

// Start generates a localhost certificate, binds a port from the configured
// range, and begins serving in the background. The listener is accepting
// connections before Start returns, so callers may fire requests immediately.
func Start(cfg Config) (*Server, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	portRange := cfg.PortRange
	if portRange == (ports.Range{}) {
		portRange = ports.DefaultRange
	}

	cert, certPEM, err := NewLocalhostCert()
	if err != nil {
		return nil, err
	}

	ln, port, err := ports.BindRange(host, portRange)
	if err != nil {
		return nil, err
	}

	s := &Server{
		host:      host,
		port:      port,
		certPEM:   certPEM,
		serveDone: make(chan struct{}),
		overlay:   make(map[string][]byte),
		root:      cfg.Root,
	}

	r := chi.NewRouter()
	r.Use(s.recordRequests)
	r.Get("/*", s.serveContent)

	s.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Keep TLS handshake noise from clients probing the fixture out of
		// the test output.
		ErrorLog: log.New(io.Discard, "", 0),
	}

	tlsLn := tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})

	go func() {
		defer close(s.serveDone)
		if err := s.srv.Serve(tlsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "fixture: serve: %v\n", err)
		}
	}()

	return s, nil
}

// Shutdown stops the server, waits for the serve loop to exit, and releases
// the vended port for reuse.
func (s *Server) Shutdown() error {
	err := s.srv.Close()
	<-s.serveDone
	ports.Release(s.port)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shut down fixture: %w", err)
	}
	return nil
}

// URL returns the fixture's base URL with a trailing slash.
func (s *Server) URL() string { return fmt.Sprintf("https://%s:%d/", s.host, s.port) }

// Port returns the bound port.
func (s *Server) Port() int { return s.port }

// CertificatePEM returns the fixture certificate for client trust roots.
func (s *Server) CertificatePEM() []byte { return append([]byte(nil), s.certPEM...) }

// WriteCABundle writes the fixture certificate to path so subprocesses can
// point their CA bundle override at it.
func (s *Server) WriteCABundle(path string) error {
	if err := os.WriteFile(path, s.certPEM, 0o644); err != nil {
		return fmt.Errorf("write CA bundle: %w", err)
	}
	return nil
}

// SetContent maps a request path to a response body in the overlay. Paths are
// stored without the leading slash.
func (s *Server) SetContent(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay[strings.TrimPrefix(path, "/")] = append([]byte(nil), body...)
}

// Reset replaces the whole overlay and clears the request log, so one fixture
// can serve a sequence of scenarios.
func (s *Server) Reset(contents map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = make(map[string][]byte, len(contents))
	for p, body := range contents {
		s.overlay[strings.TrimPrefix(p, "/")] = append([]byte(nil), body...)
	}
	s.requests = nil
}

// Requests returns the paths requested since the last Reset, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) serveContent(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.Lock()
	body, ok := s.overlay[key]
	root := s.root
	s.mu.Unlock()

	if ok {
		_, _ = w.Write(body)
		return
	}

	if key == "" {
		s.serveListing(w)
		return
	}

	if root != "" {
		fsPath := translatePath(root, r.URL.Path)
		if data, err := os.ReadFile(fsPath); err == nil { // #nosec G304 -- sandboxed by translatePath
			_, _ = w.Write(data)
			return
		}
	}

	http.NotFound(w, r)
}

// serveListing renders a minimal HTML index of the overlay, matching what a
// static release host would show at its root.
func (s *Server) serveListing(w http.ResponseWriter) {
	s.mu.Lock()
	names := make([]string, 0, len(s.overlay))
	for p := range s.overlay {
		names = append(names, p)
	}
	if s.root != "" {
		if entries, err := os.ReadDir(s.root); err == nil {
			for _, e := range entries {
				names = append(names, filepath.ToSlash(e.Name()))
			}
		}
	}
	s.mu.Unlock()

	sort.Strings(names)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><body>\n")
	for _, name := range names {
		fmt.Fprintf(&b, "<a href=\"/%s\">%s</a><br>\n", html.EscapeString(name), html.EscapeString(name))
	}
	b.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}
