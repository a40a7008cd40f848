// Command kokoro-models manages Kokoro model assets: downloading weights
// and voice packs, verifying installed files, and checking system
// dependencies.
//
// Configuration is loaded from environment variables:
//   - KOKORO_MODELS_DIR: Override for the model directory (optional)
//   - KOKORO_VOICES_DIR: Override for the voice directory (optional)
//   - KOKORO_MODEL_VERSION: Default model version (optional)
package main

import (
	"errors"
	"os"

	charmlog "github.com/charmbracelet/log"

	provision "github.com/mbailey/kokoro-provision"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments.
	ExitInvalidArgs = 2

	// ExitVersionNotFound indicates the version is not in the catalog.
	ExitVersionNotFound = 3

	// ExitNotSatisfied indicates installed files failed verification.
	ExitNotSatisfied = 4

	// ExitNetworkError indicates a network or connection failure.
	ExitNetworkError = 5

	// ExitVerifyError indicates hash or size verification failed.
	ExitVerifyError = 6

	// ExitStorageError indicates a filesystem operation failed.
	ExitStorageError = 7

	// ExitDependencyMissing indicates a required system dependency is absent.
	ExitDependencyMissing = 8
)

func main() {
	charmlog.SetReportTimestamp(false)

	cmd := provision.NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, provision.ErrUnknownVersion):
		return ExitVersionNotFound
	case errors.Is(err, provision.ErrNotSatisfied):
		return ExitNotSatisfied
	case errors.Is(err, provision.ErrNetworkError):
		return ExitNetworkError
	case errors.Is(err, provision.ErrHashMismatch), errors.Is(err, provision.ErrSizeMismatch):
		return ExitVerifyError
	case errors.Is(err, provision.ErrNoWritablePath), errors.Is(err, provision.ErrStorageError):
		return ExitStorageError
	case errors.Is(err, provision.ErrDependencyMissing):
		return ExitDependencyMissing
	default:
		return ExitGeneralError
	}
}
