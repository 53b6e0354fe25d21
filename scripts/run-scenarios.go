// Command run-scenarios replays a scenario manifest against a leauto binary
// outside the test suite, for poking at fixture behavior by hand:
//
//	go build -o /tmp/leauto . && go run ./scripts -leauto-bin /tmp/leauto
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leauto/leauto/internal/fixture"
	"github.com/leauto/leauto/internal/harness"
)

func main() {
	manifestPath := flag.String("manifest", "testdata/scenarios.yaml", "path to scenario manifest")
	leautoBin := flag.String("leauto-bin", "leauto", "path to the leauto binary to run")
	keepGoing := flag.Bool("keep-going", false, "continue past a failed scenario")
	flag.Parse()

	if err := runAll(*manifestPath, *leautoBin, *keepGoing); err != nil {
		fmt.Fprintf(os.Stderr, "run-scenarios: %v\n", err)
		os.Exit(1)
	}
}

func runAll(manifestPath, leautoBin string, keepGoing bool) error {
	f, err := os.Open(manifestPath) // #nosec G304 -- operator-supplied manifest path
	if err != nil {
		return err
	}
	defer f.Close()
	scenarios, err := harness.LoadScenarios(f)
	if err != nil {
		return err
	}

	fx, err := fixture.Start(fixture.Config{})
	if err != nil {
		return err
	}
	defer fx.Shutdown() //nolint:errcheck

	key, err := harness.GenerateSigningKey()
	if err != nil {
		return err
	}
	pubPEM, err := key.PublicKeyPEM()
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "leauto-scenarios-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir) //nolint:errcheck

	bundle := filepath.Join(workDir, "fixture-ca.pem")
	if err := fx.WriteCABundle(bundle); err != nil {
		return err
	}

	env := harness.EnvConfig{
		JSONURL:      fx.URL() + harness.IndexPath,
		DirTemplate:  fx.URL() + "%s/",
		DataHome:     filepath.Join(workDir, "xdg"),
		CABundle:     bundle,
		PublicKeyPEM: string(pubPEM),
	}
	runner := &harness.Runner{Command: leautoBin, BaseEnv: os.Environ()}

	failures := 0
	for _, sc := range scenarios {
		status, err := runOne(runner, fx, env, sc, key)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		fmt.Printf("%-20s %s\n", sc.Name, status)
		if status != "ok" {
			failures++
			if !keepGoing {
				return fmt.Errorf("scenario %s failed", sc.Name)
			}
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d scenario(s) failed", failures)
	}
	return nil
}

func runOne(runner *harness.Runner, fx *fixture.Server, env harness.EnvConfig, sc harness.Scenario, key *harness.SigningKey) (string, error) {
	if err := harness.Stage(fx, sc, key); err != nil {
		return "", err
	}
	res, err := runner.Run(context.Background(), env, sc.Args...)
	if err != nil {
		return "", err
	}

	switch sc.ExpectExit {
	case "", "0":
		if res.ExitCode != 0 {
			return fmt.Sprintf("FAIL exit=%d stderr=%s", res.ExitCode, strings.TrimSpace(res.Stderr)), nil
		}
	case "nonzero":
		if res.ExitCode == 0 {
			return "FAIL expected non-zero exit", nil
		}
	default:
		return "", fmt.Errorf("unknown expect_exit %q", sc.ExpectExit)
	}

	if sc.ExpectStdout != "" && !strings.Contains(res.Stdout, sc.ExpectStdout) {
		return fmt.Sprintf("FAIL stdout missing %q", sc.ExpectStdout), nil
	}
	if sc.ExpectNoDownload {
		for _, path := range fx.Requests() {
			if strings.HasSuffix(path, "/letsencrypt-auto") {
				return fmt.Sprintf("FAIL artifact requested: %s", path), nil
			}
		}
	}
	return "ok", nil
}
