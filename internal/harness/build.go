package harness

import "fmt"

// BuildScript renders a minimal stand-in for the client script at the given
// version. It answers --version the way the real client does and fails any
// other invocation, which is all the upgrade scenarios need.
func BuildScript(version string) []byte {
	return []byte(fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--version" ]; then
    echo "letsencrypt %s"
    exit 0
fi
exit 2
`, version))
}
