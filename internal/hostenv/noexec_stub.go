//go:build !linux

package hostenv

// InstallDirNoExec is Linux-only; elsewhere there is no procfs to consult.
func InstallDirNoExec(string) bool { return false }
