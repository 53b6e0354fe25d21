package client

import (
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTLSFixture(t *testing.T, handler http.Handler) (*httptest.Server, string) {
	t.Helper()
	ts := httptest.NewTLSServer(handler)
	t.Cleanup(ts.Close)

	bundle := filepath.Join(t.TempDir(), "ca-bundle.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw})
	if err := os.WriteFile(bundle, certPEM, 0o644); err != nil {
		t.Fatalf("write CA bundle: %v", err)
	}
	return ts, bundle
}

func TestGetWithCABundle(t *testing.T) {
	ts, bundle := newTLSFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "leauto/test" {
			t.Errorf("unexpected user agent %q", got)
		}
		_, _ = w.Write([]byte("payload"))
	}))

	g, err := New(bundle, "leauto/test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	body, err := g.Get(ts.URL + "/thing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "payload" {
		t.Fatalf("body: got %q", body)
	}
}

func TestGetRefusesPlainHTTP(t *testing.T) {
	g, err := New("", "leauto/test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := g.Get("http://localhost/insecure"); err == nil {
		t.Fatal("expected refusal of http:// URL")
	}
}

func TestGetNotFound(t *testing.T) {
	ts, bundle := newTLSFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	g, err := New(bundle, "leauto/test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = g.Get(ts.URL + "/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetUntrustedCertificate(t *testing.T) {
	ts, _ := newTLSFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Without the bundle, the self-signed fixture certificate must be rejected.
	g, err := New("", "leauto/test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := g.Get(ts.URL); err == nil {
		t.Fatal("expected TLS verification failure without CA bundle")
	}
}

func TestNewRejectsBadBundle(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bundle.pem")
	if err := os.WriteFile(bad, []byte("not a cert"), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	if _, err := New(bad, "leauto/test"); err == nil {
		t.Fatal("expected error for bundle without certificates")
	}
	if _, err := New(filepath.Join(t.TempDir(), "absent.pem"), "leauto/test"); err == nil {
		t.Fatal("expected error for missing bundle file")
	}
}
