// Command sign-release writes the sidecar files leauto expects next to a
// release artifact: a detached RSA signature (.sig) and a SHA-256 checksum
// file (.sha256).
package main

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	artifact := flag.String("artifact", "", "path to the release artifact to sign")
	keyPath := flag.String("key", "", "path to the RSA private key (PEM)")
	flag.Parse()

	if err := run(*artifact, *keyPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(artifact, keyPath string) error {
	if artifact == "" || keyPath == "" {
		return errors.New("both -artifact and -key are required")
	}

	content, err := os.ReadFile(artifact) // #nosec G304 -- operator-supplied artifact path
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	key, err := loadPrivateKey(keyPath)
	if err != nil {
		return err
	}

	digest := sha256.Sum256(content)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return fmt.Errorf("sign artifact: %w", err)
	}

	sigPath := artifact + ".sig"
	if err := os.WriteFile(sigPath, sig, 0o644); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}

	sumLine := hex.EncodeToString(digest[:]) + "  " + filepath.Base(artifact) + "\n"
	sumPath := artifact + ".sha256"
	if err := os.WriteFile(sumPath, []byte(sumLine), 0o644); err != nil {
		return fmt.Errorf("write checksum: %w", err)
	}

	fmt.Printf("Wrote %s and %s\n", sigPath, sumPath)
	return nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	pemBytes, err := os.ReadFile(path) // #nosec G304 -- operator-supplied key path
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("key file is not PEM")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS#1 key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS#8 key: %w", err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %T", parsed)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}
