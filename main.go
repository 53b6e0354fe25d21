// Command leauto keeps the letsencrypt-auto client script up to date. On a
// plain run it consults the release index, downloads and verifies any newer
// release, installs it under the data home, and hands control to the
// installed client. Flags expose the individual steps for scripting.
package main

import (
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/leauto/leauto/internal/client"
	"github.com/leauto/leauto/internal/hostenv"
	"github.com/leauto/leauto/internal/index"
	"github.com/leauto/leauto/internal/installer"
	"github.com/leauto/leauto/internal/verify"
	"github.com/leauto/leauto/pkg/update"
)

var version = "dev"

//go:embed docs/quickstart.txt
var quickstartDoc string

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("leauto", flag.ContinueOnError)
	fs.SetOutput(stderr)
	latest := fs.Bool("latest-version", false, "print the latest stable release version and exit")
	fetchVersion := fs.String("fetch", "", "download, verify, and install the given release, then exit")
	showVersion := fs.Bool("version", false, "print the leauto version and exit")
	helpExtended := fs.Bool("helpextended", false, "print the extended quickstart guide")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "leauto %s\n", version)
		return 0
	}
	if *helpExtended {
		fmt.Fprint(stdout, quickstartDoc)
		return 0
	}

	env := envFromProcess()

	getter, err := client.New(env.caBundle, "leauto/"+version)
	if err != nil {
		fmt.Fprintf(stderr, "leauto: %v\n", err)
		return 1
	}

	if *latest {
		v, err := fetchLatest(getter, env)
		if err != nil {
			fmt.Fprintf(stderr, "leauto: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, v)
		return 0
	}

	state, err := installer.New(env.dataHome)
	if err != nil {
		fmt.Fprintf(stderr, "leauto: %v\n", err)
		return 1
	}

	if *fetchVersion != "" {
		if err := fetchAndInstall(getter, env, state, *fetchVersion, stderr); err != nil {
			fmt.Fprintf(stderr, "leauto: %v\n", err)
			return 1
		}
		return 0
	}

	return autoUpdateAndRun(getter, env, state, fs.Args(), stdout, stderr)
}

// autoUpdateAndRun is the default path: bring the installed client up to the
// latest stable release, then exec it with the remaining arguments.
func autoUpdateAndRun(getter *client.Getter, env envConfig, state *installer.State, clientArgs []string, stdout, stderr io.Writer) int {
	latestV, err := fetchLatest(getter, env)
	if err != nil {
		fmt.Fprintf(stderr, "leauto: %v\n", err)
		return 1
	}
	installed, err := state.InstalledVersion()
	if err != nil {
		fmt.Fprintf(stderr, "leauto: %v\n", err)
		return 1
	}

	decision, msg := update.DecideUpgrade(installed, latestV)
	fmt.Fprintln(stderr, msg)
	if decision != update.DecisionSkip {
		if err := fetchAndInstall(getter, env, state, latestV, stderr); err != nil {
			fmt.Fprintf(stderr, "leauto: %v\n", err)
			return 1
		}
	}

	return execClient(state.ScriptPath(), clientArgs, stdout, stderr)
}

// fetchLatest downloads the release index and returns the latest stable
// version it advertises.
func fetchLatest(getter *client.Getter, env envConfig) (string, error) {
	body, err := getter.Get(env.jsonURL)
	if err != nil {
		return "", err
	}
	idx, err := index.Parse(body)
	if err != nil {
		return "", err
	}
	return idx.LatestStable()
}

// fetchAndInstall downloads the release's client script with its detached
// signature, verifies both the signature and the optional checksum sidecar,
// and installs the script. Nothing touches the install state until every
// check has passed.
func fetchAndInstall(getter *client.Getter, env envConfig, state *installer.State, version string, stderr io.Writer) error {
	dir, err := renderDirTemplate(env.dirTemplate, version)
	if err != nil {
		return err
	}

	script, err := getter.Get(dir + scriptName)
	if err != nil {
		return err
	}
	sig, err := getter.Get(dir + scriptName + ".sig")
	if err != nil {
		return err
	}

	// The checksum sidecar is optional; older releases never published one.
	checksum, err := getter.Get(dir + scriptName + ".sha256")
	switch {
	case errors.Is(err, client.ErrNotFound):
	case err != nil:
		return err
	default:
		if err := verify.VerifyChecksum(script, checksum, scriptName); err != nil {
			return err
		}
	}

	if err := verifySignature(env, script, sig); err != nil {
		return err
	}

	if hostenv.InstallDirNoExec(state.Dir()) {
		fmt.Fprintf(stderr, "warning: %s is on a noexec filesystem; the installed client may not run\n", state.Dir())
	}
	if err := state.Install(script, version); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Installed %s %s to %s\n", scriptName, version, state.ScriptPath())
	return nil
}

// verifySignature dispatches on the detected signature format. The production
// scheme is a detached RSA signature; minisign and raw ed25519 are accepted
// when the corresponding key override is set.
func verifySignature(env envConfig, content, sig []byte) error {
	sd, err := verify.DetectSignature(sig)
	if err != nil {
		return err
	}
	switch sd.Format {
	case verify.FormatMinisign:
		if env.minisignKey == "" {
			return errors.New("got a minisign signature but LE_AUTO_MINISIGN_KEY is not set")
		}
		return verify.VerifyMinisign(content, sd.Bytes, env.minisignKey)
	case verify.FormatEd25519:
		if env.ed25519Key == "" {
			return errors.New("got an ed25519 signature but LE_AUTO_ED25519_KEY is not set")
		}
		return verify.VerifyEd25519(content, sd.Bytes, env.ed25519Key)
	default:
		return verify.VerifyRSA(content, sd.Bytes, []byte(env.publicKeyPEM))
	}
}

// renderDirTemplate expands the artifact directory template with the version.
// The template must contain exactly one %s; the result always ends with a
// slash so artifact names can be appended directly.
func renderDirTemplate(tpl, version string) (string, error) {
	if strings.Count(tpl, "%s") != 1 {
		return "", fmt.Errorf("dir template must contain exactly one %%s, got %q", tpl)
	}
	dir := fmt.Sprintf(tpl, version)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir, nil
}

// execClient runs the installed client script, forwarding its exit code.
func execClient(scriptPath string, args []string, stdout, stderr io.Writer) int {
	if _, err := os.Stat(scriptPath); err != nil {
		fmt.Fprintf(stderr, "leauto: client script not installed at %s\n", scriptPath)
		return 1
	}

	cmd := exec.Command(scriptPath, args...) // #nosec G204 -- script we just installed and verified
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(stderr, "leauto: run client: %v\n", err)
		return 1
	}
	return 0
}
