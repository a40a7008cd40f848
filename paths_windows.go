//go:build windows

package provision

import (
	"os"
	"path/filepath"
)

// systemModelDirs returns the system-wide shared model locations for
// Windows, in precedence order.
func systemModelDirs() []string {
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return []string{
		filepath.Join(programData, "kokoro", "models"),
	}
}
