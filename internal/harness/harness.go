// Package harness drives the updater under test: it assembles the
// environment overrides the updater honors, runs it as a subprocess with a
// timeout, and captures its output and exit code.
package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// EnvConfig holds the environment overrides passed to the updater. Zero-value
// fields are left unset so the updater falls back to its defaults.
type EnvConfig struct {
	// JSONURL overrides where the release index is fetched (LE_AUTO_JSON_URL).
	JSONURL string
	// DirTemplate overrides the artifact directory URL template, with one %s
	// for the version (LE_AUTO_DIR_TEMPLATE).
	DirTemplate string
	// DataHome overrides XDG_DATA_HOME so installs land in a test directory.
	DataHome string
	// CABundle points the updater's TLS trust at the fixture certificate
	// (LE_AUTO_CA_BUNDLE).
	CABundle string
	// PublicKeyPEM overrides the release signing key (LE_AUTO_PUBLIC_KEY).
	PublicKeyPEM string
}

// Environ appends the configured overrides to base and returns the result.
// base is typically os.Environ(); later entries win, so overrides take effect
// without scrubbing the inherited environment.
func (c EnvConfig) Environ(base []string) []string {
	env := append([]string(nil), base...)
	for _, kv := range []struct{ key, val string }{
		{"LE_AUTO_JSON_URL", c.JSONURL},
		{"LE_AUTO_DIR_TEMPLATE", c.DirTemplate},
		{"XDG_DATA_HOME", c.DataHome},
		{"LE_AUTO_CA_BUNDLE", c.CABundle},
		{"LE_AUTO_PUBLIC_KEY", c.PublicKeyPEM},
	} {
		if kv.val != "" {
			env = append(env, kv.key+"="+kv.val)
		}
	}
	return env
}

// Result captures one subprocess run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// DefaultTimeout bounds a single updater run; a hung subprocess fails the
// scenario instead of wedging the suite.
const DefaultTimeout = 2 * time.Minute

// Runner invokes the updater binary.
type Runner struct {
	// Command is the path to the updater binary under test.
	Command string
	// BaseEnv is the environment to extend; typically os.Environ().
	BaseEnv []string
	// Timeout per run; DefaultTimeout when zero.
	Timeout time.Duration
}

// Run executes the updater with the given overrides and arguments. A non-zero
// exit is reported through Result.ExitCode, not through err; err is reserved
// for failures to run at all, including hitting the timeout.
func (r *Runner) Run(ctx context.Context, env EnvConfig, args ...string) (Result, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command, args...) // #nosec G204 -- binary under test, chosen by the suite
	cmd.Env = env.Environ(r.BaseEnv)
	// Without a wait delay, Run blocks until every inherited pipe closes, so
	// a killed child with a lingering grandchild would stall past the
	// deadline.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		// A killed child surfaces as an ExitError too, so the deadline must
		// be checked first or a timeout would masquerade as an ordinary
		// nonzero exit.
		if ctx.Err() != nil {
			return res, fmt.Errorf("script under test timed out after %s", timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", r.Command, err)
	}
	return res, nil
}
