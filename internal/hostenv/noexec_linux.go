//go:build linux

package hostenv

import "os"

// InstallDirNoExec reports whether dir sits on a filesystem mounted noexec,
// which would make the installed client script fail with EACCES at exec time.
// Best effort: any parse trouble reports false.
func InstallDirNoExec(dir string) bool {
	if dir == "" {
		return false
	}

	if data, err := os.ReadFile("/proc/self/mountinfo"); err == nil { // #nosec G304 -- fixed procfs path
		if mounts := parseMountinfo(string(data)); len(mounts) > 0 {
			return noExecFor(dir, mounts)
		}
	}

	data, err := os.ReadFile("/proc/mounts") // #nosec G304 -- fixed procfs path
	if err != nil {
		return false
	}
	return noExecFor(dir, parseProcMounts(string(data)))
}
