//go:build !unix

package out

import "os"

// processAlive relies on FindProcess failing for a pid that does not exist.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = proc.Release()
	return true
}
