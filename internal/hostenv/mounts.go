// Package hostenv inspects the host for conditions that would keep the
// installed client from running, such as a data home on a noexec mount.
package hostenv

import (
	"path/filepath"
	"strings"
)

type mountEntry struct {
	mountPoint string
	options    map[string]struct{}
}

// parseMountinfo reads /proc/self/mountinfo content. Mountinfo lines carry a
// "-" separator before the filesystem type; mount flags appear both before it
// and in the super options after it.
func parseMountinfo(content string) []mountEntry {
	var out []mountEntry
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 6 {
			continue
		}
		sep := -1
		for i, f := range fields {
			if f == "-" {
				sep = i
				break
			}
		}
		if sep < 0 {
			continue
		}

		entry := mountEntry{
			mountPoint: unescapeMountPath(fields[4]),
			options:    splitMountOptions(fields[5]),
		}
		if sep+3 < len(fields) {
			for opt := range splitMountOptions(fields[sep+3]) {
				entry.options[opt] = struct{}{}
			}
		}
		out = append(out, entry)
	}
	return out
}

// parseProcMounts reads classic /proc/mounts content: device, mount point,
// fstype, options.
func parseProcMounts(content string) []mountEntry {
	var out []mountEntry
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 4 {
			continue
		}
		out = append(out, mountEntry{
			mountPoint: unescapeMountPath(fields[1]),
			options:    splitMountOptions(fields[3]),
		})
	}
	return out
}

func splitMountOptions(raw string) map[string]struct{} {
	opts := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			opts[part] = struct{}{}
		}
	}
	return opts
}

// Procfs escapes whitespace and backslashes in mount paths as octal.
func unescapeMountPath(value string) string {
	return strings.NewReplacer(
		"\\040", " ",
		"\\011", "\t",
		"\\012", "\n",
		"\\134", "\\",
	).Replace(value)
}

// noExecFor reports whether the mount covering destPath carries noexec.
// The deepest (longest) matching mount point wins, so a noexec /home/user
// overrides an exec /home.
func noExecFor(destPath string, mounts []mountEntry) bool {
	dest := filepath.ToSlash(filepath.Clean(destPath))
	if dest == "" || dest == "." {
		return false
	}

	bestLen := -1
	noExec := false
	for _, m := range mounts {
		point := filepath.ToSlash(filepath.Clean(m.mountPoint))
		if point == "" || point == "." || !mountCovers(dest, point) {
			continue
		}
		if len(point) > bestLen {
			bestLen = len(point)
			_, noExec = m.options["noexec"]
		}
	}
	return noExec
}

func mountCovers(path, point string) bool {
	if point == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == point || strings.HasPrefix(path, point+"/")
}
