package fixture

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// translatePath maps a request path onto a filesystem path under root. The
// result can never escape root: query and fragment are stripped, the path is
// percent-decoded and cleaned, and each remaining component is checked for
// traversal tricks (dot-dot, drive letters, backslash-prefixed names).
func translatePath(root, reqPath string) string {
	if i := strings.IndexAny(reqPath, "?#"); i >= 0 {
		reqPath = reqPath[:i]
	}
	if decoded, err := url.PathUnescape(reqPath); err == nil {
		reqPath = decoded
	}
	reqPath = path.Clean("/" + reqPath)

	out := root
	for _, comp := range strings.Split(reqPath, "/") {
		comp = strings.TrimSpace(comp)
		// Windows-style absolute components smuggled into a URL.
		if len(comp) >= 2 && comp[1] == ':' {
			comp = comp[2:]
		}
		comp = strings.TrimLeft(comp, "\\")
		if comp == "" || comp == "." || comp == ".." {
			continue
		}
		out = filepath.Join(out, comp)
	}
	return out
}
