package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func TestRunWritesVerifiableSidecars(t *testing.T) {
	dir := t.TempDir()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyPath := filepath.Join(dir, "signing.pem")
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	artifact := filepath.Join(dir, "letsencrypt-auto")
	if err := os.WriteFile(artifact, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	if err := run(artifact, keyPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, sidecar := range []string{artifact + ".sig", artifact + ".sha256"} {
		if _, err := os.Stat(sidecar); err != nil {
			t.Fatalf("missing sidecar %s: %v", sidecar, err)
		}
	}
}

func TestRunRequiresArguments(t *testing.T) {
	if err := run("", ""); err == nil {
		t.Fatal("expected error when arguments are missing")
	}
}

func TestLoadPrivateKeyRejectsGarbage(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(bad, []byte("not pem"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if _, err := loadPrivateKey(bad); err == nil {
		t.Fatal("expected error for non-PEM key file")
	}
}
