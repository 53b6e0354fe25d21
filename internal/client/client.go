// Package client provides the HTTPS-only getter the updater uses for release
// metadata and artifacts. Plain HTTP is refused outright so a network
// man-in-the-middle cannot downgrade the transport.
package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrNotFound reports a 404 from the remote. Callers use it to distinguish an
// optional resource that is simply absent from a failed download.
var ErrNotFound = errors.New("not found")

const (
	requestTimeout = 30 * time.Second
	maxErrorBody   = 512
)

type Getter struct {
	client    *http.Client
	userAgent string
}

// New builds a getter. caBundlePath, when non-empty, replaces the system roots
// with the PEM certificates in that file; the test harness uses it to make the
// updater trust the local fixture certificate.
func New(caBundlePath, userAgent string) (*Getter, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if caBundlePath != "" {
		pemBytes, err := os.ReadFile(caBundlePath) // #nosec G304 -- operator-supplied trust override
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("no certificates in CA bundle %s", caBundlePath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &Getter{
		client:    &http.Client{Timeout: requestTimeout, Transport: transport},
		userAgent: userAgent,
	}, nil
}

// Get fetches an HTTPS URL and returns the response body.
func (g *Getter) Get(url string) ([]byte, error) {
	if !strings.HasPrefix(strings.ToLower(url), "https://") {
		return nil, fmt.Errorf("refusing non-HTTPS URL %s", url)
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("status %d from %s: %s", resp.StatusCode, url, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
