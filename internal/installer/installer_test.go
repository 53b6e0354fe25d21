package installer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInstalledVersionEmptyState(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := s.InstalledVersion()
	if err != nil {
		t.Fatalf("InstalledVersion: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty version, got %q", got)
	}
}

func TestInstallAndReadBack(t *testing.T) {
	t.Parallel()

	dataHome := t.TempDir()
	s, err := New(dataHome)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	content := []byte("#!/bin/sh\necho letsencrypt 99.9.9\n")
	if err := s.Install(content, "99.9.9"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	got, err := s.InstalledVersion()
	if err != nil {
		t.Fatalf("InstalledVersion: %v", err)
	}
	if got != "99.9.9" {
		t.Fatalf("version: got %q want %q", got, "99.9.9")
	}

	installed, err := os.ReadFile(s.ScriptPath())
	if err != nil {
		t.Fatalf("read installed script: %v", err)
	}
	if string(installed) != string(content) {
		t.Fatalf("installed content mismatch")
	}
	info, err := os.Stat(s.ScriptPath())
	if err != nil {
		t.Fatalf("stat installed script: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("installed script not executable: %v", info.Mode())
	}

	// Upgrade overwrites in place and leaves no staging files behind.
	if err := s.Install([]byte("#!/bin/sh\necho letsencrypt 99.9.10\n"), "99.9.10"); err != nil {
		t.Fatalf("second Install: %v", err)
	}
	got, err = s.InstalledVersion()
	if err != nil {
		t.Fatalf("InstalledVersion after upgrade: %v", err)
	}
	if got != "99.9.10" {
		t.Fatalf("version after upgrade: got %q", got)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("read state dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("staging file left behind: %s", e.Name())
		}
	}
}

func TestScriptPathUnderDataHome(t *testing.T) {
	t.Parallel()

	dataHome := t.TempDir()
	s, err := New(dataHome)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := filepath.Join(dataHome, "letsencrypt", ScriptName)
	if got := s.ScriptPath(); got != want {
		t.Fatalf("ScriptPath: got %q want %q", got, want)
	}
}
