package update

import (
	"fmt"
	"strconv"
	"strings"
)

type Decision string

const (
	DecisionProceed      Decision = "proceed"      // Upgrade to the latest release
	DecisionSkip         Decision = "skip"         // Installed version is current (or newer)
	DecisionFirstInstall Decision = "firstinstall" // Nothing installed yet
)

// NormalizeVersion trims v and validates that it is dotted-numeric (one or
// more non-empty numeric components separated by dots). Returns the trimmed
// version and whether comparison is possible.
func NormalizeVersion(v string) (string, bool) {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "", false
	}
	for _, part := range strings.Split(trimmed, ".") {
		if part == "" {
			return "", false
		}
		if _, err := strconv.Atoi(part); err != nil {
			return "", false
		}
	}
	return trimmed, true
}

// CompareDotted compares two dotted-numeric versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func CompareDotted(a, b string) (int, error) {
	as, err := parseDotted(a)
	if err != nil {
		return 0, err
	}
	bs, err := parseDotted(b)
	if err != nil {
		return 0, err
	}

	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		if as[i] < bs[i] {
			return -1, nil
		}
		if as[i] > bs[i] {
			return 1, nil
		}
	}
	switch {
	case len(as) < len(bs):
		return -1, nil
	case len(as) > len(bs):
		return 1, nil
	}
	return 0, nil
}

func parseDotted(v string) ([]int, error) {
	normalized, ok := NormalizeVersion(v)
	if !ok {
		return nil, fmt.Errorf("invalid version %q", v)
	}
	parts := strings.Split(normalized, ".")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse component %q: %w", part, err)
		}
		out[i] = n
	}
	return out, nil
}

// DecideUpgrade determines whether the installed client should be replaced by
// the latest release.
//
// installed: version recorded by the install marker ("" when nothing is installed)
// latest:    latest stable version from the release index
//
// Returns a Decision and a human message for stderr.
func DecideUpgrade(installed, latest string) (Decision, string) {
	if strings.TrimSpace(installed) == "" {
		return DecisionFirstInstall, fmt.Sprintf("Installing letsencrypt-auto %s", latest)
	}

	installedNorm, installedOK := NormalizeVersion(installed)
	latestNorm, latestOK := NormalizeVersion(latest)
	if !installedOK || !latestOK {
		// A marker or index entry we cannot compare: upgrade anyway, the
		// download is verified before it replaces anything.
		msg := fmt.Sprintf("Version comparison skipped (installed=%q, latest=%q). Proceeding with verified install.", installed, latest)
		return DecisionProceed, msg
	}

	cmp, err := CompareDotted(installedNorm, latestNorm)
	if err != nil {
		return DecisionProceed, fmt.Sprintf("Version comparison failed: %v. Proceeding with verified install.", err)
	}

	switch cmp {
	case -1:
		return DecisionProceed, fmt.Sprintf("Upgrading letsencrypt-auto: %s -> %s", installedNorm, latestNorm)
	case 1:
		return DecisionSkip, fmt.Sprintf("Installed version %s is newer than latest release %s; not downgrading.", installedNorm, latestNorm)
	}
	return DecisionSkip, fmt.Sprintf("Already at latest version (%s).", latestNorm)
}

// DescribeDecision returns a human-readable dry-run status.
func DescribeDecision(d Decision) string {
	switch d {
	case DecisionSkip:
		return "Already at latest version (no update needed)"
	case DecisionProceed:
		return "Update available"
	case DecisionFirstInstall:
		return "No installed version (first install)"
	default:
		return string(d)
	}
}
