package provision

import "errors"

// Sentinel errors for provisioning operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrNoWritablePath indicates no writable model directory could be
	// resolved. This is a fatal configuration error.
	ErrNoWritablePath = errors.New("provision: no writable model directory")

	// ErrUnknownVersion indicates the requested version is not in the
	// asset catalog and no override URL was supplied.
	ErrUnknownVersion = errors.New("provision: unknown model version")

	// ErrHashMismatch indicates a downloaded file failed SHA-256
	// verification. The temporary file has already been removed.
	ErrHashMismatch = errors.New("provision: hash verification failed")

	// ErrSizeMismatch indicates a file's size is outside the accepted
	// tolerance of the manifest's expected size.
	ErrSizeMismatch = errors.New("provision: file size mismatch")

	// ErrNetworkError indicates a network or connection failure.
	ErrNetworkError = errors.New("provision: network error")

	// ErrStorageError indicates a filesystem operation failed.
	ErrStorageError = errors.New("provision: storage error")

	// ErrDependencyMissing indicates a required external tool was not
	// found on the search path.
	ErrDependencyMissing = errors.New("provision: required dependency missing")

	// ErrNotSatisfied indicates required manifest files are missing or
	// mismatched at the target location.
	ErrNotSatisfied = errors.New("provision: model files not satisfied")
)
