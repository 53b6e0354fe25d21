package harness

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leauto/leauto/internal/fixture"
	"github.com/leauto/leauto/internal/installer"
)

// IndexPath is where the fixture serves the release index, mirroring the
// path layout of the real JSON endpoint.
const IndexPath = "letsencrypt/json"

// Scenario is one named updater run against staged fixture content. Pre and
// Post document the state the scenario expects and guarantees; they replace
// the old habit of silently relying on whatever the previous test left
// behind.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Pre states what must already hold (for example "0.5.0 installed").
	Pre string `yaml:"pre,omitempty"`
	// Post states what the scenario leaves behind.
	Post string `yaml:"post,omitempty"`

	// Version is the release the fixture advertises and stages.
	Version string `yaml:"version,omitempty"`
	// CorruptSignature serves a signature that does not verify.
	CorruptSignature bool `yaml:"corrupt_signature,omitempty"`
	// CorruptChecksum serves a checksum sidecar that cannot match.
	CorruptChecksum bool `yaml:"corrupt_checksum,omitempty"`
	// Serve adds literal path/body pairs on top of the staged release.
	Serve map[string]string `yaml:"serve,omitempty"`

	// Args passed to the updater for this run.
	Args []string `yaml:"args,omitempty"`
	// ExpectExit is the expected exit code; "nonzero" accepts any failure.
	ExpectExit string `yaml:"expect_exit,omitempty"`
	// ExpectStdout is a substring that must appear on stdout.
	ExpectStdout string `yaml:"expect_stdout,omitempty"`
	// ExpectNoDownload asserts the artifact was never requested.
	ExpectNoDownload bool `yaml:"expect_no_download,omitempty"`
}

// LoadScenarios decodes a YAML scenario manifest. Unknown fields and
// duplicate or missing names are errors; a manifest typo should fail loudly,
// not silently skip a scenario.
func LoadScenarios(r io.Reader) ([]Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var scenarios []Scenario
	if err := dec.Decode(&scenarios); err != nil {
		return nil, fmt.Errorf("decode scenario manifest: %w", err)
	}

	seen := make(map[string]struct{}, len(scenarios))
	for i, sc := range scenarios {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return nil, fmt.Errorf("scenario %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q", name)
		}
		seen[name] = struct{}{}
	}
	return scenarios, nil
}

// Stage resets the fixture to serve exactly what the scenario calls for: the
// release index naming sc.Version, the client script with its signature and
// checksum sidecar, plus any literal Serve entries.
func Stage(fx *fixture.Server, sc Scenario, key *SigningKey) error {
	contents := make(map[string][]byte, len(sc.Serve)+4)

	if sc.Version != "" {
		contents[IndexPath] = []byte(fmt.Sprintf(`{"releases": {%q: null}}`, sc.Version))

		script := BuildScript(sc.Version)
		base := sc.Version + "/" + installer.ScriptName
		contents[base] = script

		sig, err := key.Sign(script)
		if err != nil {
			return fmt.Errorf("stage %s: %w", sc.Name, err)
		}
		if sc.CorruptSignature {
			sig = CorruptSignature(sig)
		}
		contents[base+".sig"] = sig

		sum := sha256.Sum256(script)
		digest := hex.EncodeToString(sum[:])
		if sc.CorruptChecksum {
			digest = strings.Repeat("0", 64)
		}
		contents[base+".sha256"] = []byte(digest + "  " + installer.ScriptName + "\n")
	}

	for p, body := range sc.Serve {
		contents[p] = []byte(body)
	}

	fx.Reset(contents)
	return nil
}
