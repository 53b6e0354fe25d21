// Package update provides small, dependency-free helpers for deciding whether
// the bootstrap script should replace the installed client.
//
// It intentionally does not perform downloads, signature verification,
// checksum verification, or installation. It focuses on deciding whether an
// upgrade should proceed given the installed version and the latest release
// advertised by the index.
//
// Version model
//   - Versions are dotted-numeric strings ("0.4.2", "99.9.9"), the form the
//     release index uses. Prerelease tags are not comparable and are filtered
//     out before this package is consulted.
//   - Comparison is component-wise left to right; with an equal prefix the
//     longer version sorts higher ("1.2.1" > "1.2").
//   - Downgrades never proceed automatically: an index that reports an older
//     latest version than the installed one is a skip, not a rollback.
package update
