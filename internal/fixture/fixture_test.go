package fixture

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leauto/leauto/pkg/ports"
)

func startFixture(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.PortRange == (ports.Range{}) {
		cfg.PortRange = ports.Range{Lo: 43443, Hi: 43542}
	}
	s, err := Start(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func fixtureClient(t *testing.T, s *Server) *http.Client {
	t.Helper()
	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(s.CertificatePEM()))
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		},
	}
}

func get(t *testing.T, c *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestStartListensBeforeReturn(t *testing.T) {
	s := startFixture(t, Config{})

	// A plain TCP dial must succeed immediately; no retry loop needed.
	conn, err := net.Dial("tcp", net.JoinHostPort("localhost", strconv.Itoa(s.Port())))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.GreaterOrEqual(t, s.Port(), 43443)
	assert.LessOrEqual(t, s.Port(), 43542)
}

func TestOverlayAndRequestLog(t *testing.T) {
	s := startFixture(t, Config{})
	c := fixtureClient(t, s)

	s.SetContent("letsencrypt/json", []byte(`{"releases":{"1.0.0":null}}`))
	s.SetContent("/1.0.0/letsencrypt-auto", []byte("#!/bin/sh\n"))

	status, body := get(t, c, s.URL()+"letsencrypt/json")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"releases":{"1.0.0":null}}`, body)

	status, body = get(t, c, s.URL()+"1.0.0/letsencrypt-auto")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "#!/bin/sh\n", body)

	status, _ = get(t, c, s.URL()+"absent")
	assert.Equal(t, http.StatusNotFound, status)

	assert.Equal(t, []string{"/letsencrypt/json", "/1.0.0/letsencrypt-auto", "/absent"}, s.Requests())

	s.Reset(map[string][]byte{"only": []byte("x")})
	assert.Empty(t, s.Requests())
	status, _ = get(t, c, s.URL()+"letsencrypt/json")
	assert.Equal(t, http.StatusNotFound, status)
	status, body = get(t, c, s.URL()+"only")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "x", body)
}

func TestRootListingServed(t *testing.T) {
	s := startFixture(t, Config{})
	c := fixtureClient(t, s)

	s.SetContent("letsencrypt/json", []byte("{}"))

	status, body := get(t, c, s.URL())
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "letsencrypt/json")
	assert.Contains(t, body, "<html>")
}

func TestRootDirectoryFallback(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "static.txt"), []byte("from disk"), 0o644))

	s := startFixture(t, Config{Root: root})
	c := fixtureClient(t, s)

	status, body := get(t, c, s.URL()+"static.txt")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "from disk", body)

	// Overlay entries shadow the directory.
	s.SetContent("static.txt", []byte("from overlay"))
	status, body = get(t, c, s.URL()+"static.txt")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "from overlay", body)
}

func TestPortReleasedAfterShutdown(t *testing.T) {
	r := ports.Range{Lo: 43600, Hi: 43600}

	s, err := Start(Config{PortRange: r})
	require.NoError(t, err)
	port := s.Port()
	require.NoError(t, s.Shutdown())

	s2, err := Start(Config{PortRange: r})
	require.NoError(t, err)
	defer func() { _ = s2.Shutdown() }()
	assert.Equal(t, port, s2.Port())
}

func TestRangeExhausted(t *testing.T) {
	r := ports.Range{Lo: 43610, Hi: 43610}

	s, err := Start(Config{PortRange: r})
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	_, err = Start(Config{PortRange: r})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRangeExhausted)
}

func TestTranslatePathSandbox(t *testing.T) {
	root := string(filepath.Separator) + filepath.Join("srv", "fixture")

	tests := []struct {
		name string
		req  string
		want string
	}{
		{"plain file", "/letsencrypt-auto", filepath.Join(root, "letsencrypt-auto")},
		{"nested", "/0.5.0/letsencrypt-auto.sig", filepath.Join(root, "0.5.0", "letsencrypt-auto.sig")},
		{"dot dot stripped", "/../../etc/passwd", filepath.Join(root, "etc", "passwd")},
		{"encoded dot dot", "/%2e%2e/%2e%2e/etc/passwd", filepath.Join(root, "etc", "passwd")},
		{"query dropped", "/file?x=../../etc", filepath.Join(root, "file")},
		{"fragment dropped", "/file#frag", filepath.Join(root, "file")},
		{"drive letter stripped", "/C:/windows/system32", filepath.Join(root, "windows", "system32")},
		{"backslash heads stripped", "/\\\\server/share", filepath.Join(root, "server", "share")},
		{"root stays root", "/", root},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, translatePath(root, tc.req))
		})
	}
}

func TestShutdownIdempotentServeExit(t *testing.T) {
	s, err := Start(Config{PortRange: ports.Range{Lo: 43620, Hi: 43629}})
	require.NoError(t, err)

	require.NoError(t, s.Shutdown())
	// The serve goroutine has exited; serveDone is closed.
	select {
	case <-s.serveDone:
	default:
		t.Fatal("serve loop still running after Shutdown")
	}

	var errExhausted error
	func() {
		s2, err := Start(Config{PortRange: ports.Range{Lo: 43620, Hi: 43629}})
		if err != nil {
			errExhausted = err
			return
		}
		_ = s2.Shutdown()
	}()
	assert.False(t, errors.Is(errExhausted, ports.ErrRangeExhausted), "port must be reusable after shutdown")
}
