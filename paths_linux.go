//go:build linux

package provision

// systemModelDirs returns the system-wide shared model locations for
// Linux, in precedence order.
func systemModelDirs() []string {
	return []string{
		"/opt/kokoro/models",
		"/usr/local/share/kokoro/models",
	}
}
