//go:build linux

package proctree

import "github.com/shirou/gopsutil/v3/process"

// PidLive reports whether pid currently identifies a live OS process.
// Callers (the catalog façade's list()) use this to turn a pid file's mere
// presence into spec.md's "running" flag.
func PidLive(pid int32) bool {
	alive, err := process.PidExists(pid)
	return err == nil && alive
}
