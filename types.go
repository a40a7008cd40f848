package provision

import "fmt"

// FileSpec describes one file in an asset manifest.
type FileSpec struct {
	// Name is the file name relative to the version directory.
	Name string

	// Size is the expected size in bytes. Zero means unknown; the
	// satisfied-check and size verification are skipped.
	Size int64

	// SHA256 is the expected content hash as lowercase hex.
	// Empty means no hash verification is performed.
	SHA256 string
}

// VoiceSet describes the optional voice pack attached to a manifest.
// Voice files are fetched independently of the required files and an
// individual failure does not fail the acquisition.
type VoiceSet struct {
	// BaseURL is the base URL voice file names are appended to.
	BaseURL string

	// Files lists the voice pack file names.
	Files []string
}

// Manifest identifies a named model version and the files it requires.
// Manifests are defined statically in the catalog and never mutated.
type Manifest struct {
	// Version is the model version identifier, e.g. "v1_0".
	Version string

	// BaseURL is the base URL required file names are appended to.
	BaseURL string

	// Files is the ordered list of required files.
	Files []FileSpec

	// Voices is the optional voice pack. Nil means no voices.
	Voices *VoiceSet
}

// validate enforces the manifest invariant that file names are unique.
func (m Manifest) validate() error {
	seen := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		if f.Name == "" {
			return fmt.Errorf("manifest %s: empty file name", m.Version)
		}
		if seen[f.Name] {
			return fmt.Errorf("manifest %s: duplicate file name %q", m.Version, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// ResolvedPaths holds the directories computed by ResolvePaths. All four
// are absolute. The value is computed once per run and immutable; pass it
// by value.
type ResolvedPaths struct {
	// ProjectRoot is the detected project root, or the working directory
	// if no marker file was found.
	ProjectRoot string

	// ModelDir is the directory model versions are installed under.
	ModelDir string

	// VoiceDir is the directory voice packs are installed under.
	VoiceDir string

	// WorkDir is the working/temp directory for transient files.
	WorkDir string
}

// EnvironmentVars returns the resolved paths as an environment-variable
// map for propagation into a downstream service's process context.
func (p ResolvedPaths) EnvironmentVars() map[string]string {
	return map[string]string{
		"PROJECT_ROOT":    p.ProjectRoot,
		"MODEL_DIR":       p.ModelDir,
		"VOICES_DIR":      p.VoiceDir,
		"KOKORO_WORK_DIR": p.WorkDir,
	}
}

// OutcomeKind classifies the result of acquiring a single file.
type OutcomeKind int

const (
	// AlreadySatisfied means the file existed with an acceptable size
	// and no transfer was performed.
	AlreadySatisfied OutcomeKind = iota

	// Downloaded means the file was transferred, verified, and published.
	Downloaded

	// VerificationFailed means the transfer completed but the size or
	// hash check failed. The temporary file was removed.
	VerificationFailed

	// TransferFailed means the network or filesystem transfer failed.
	TransferFailed
)

// String returns a short label for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case AlreadySatisfied:
		return "already-satisfied"
	case Downloaded:
		return "downloaded"
	case VerificationFailed:
		return "verification-failed"
	case TransferFailed:
		return "transfer-failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-file result of an acquisition.
type Outcome struct {
	// Name is the file name from the manifest.
	Name string

	// Kind classifies what happened.
	Kind OutcomeKind

	// Voice reports whether this was an optional voice file.
	Voice bool

	// Err holds the failure reason for VerificationFailed and
	// TransferFailed outcomes.
	Err error
}

// DependencySpec describes one external command-line tool to probe.
// Specs are static, read-only data owned by the probe registry.
type DependencySpec struct {
	// Name is the dependency's display name, e.g. "espeak-ng".
	Name string

	// Command is the primary executable to look up on the search path.
	Command string

	// VersionArgs are the arguments that make Command print its version.
	VersionArgs []string

	// Fallbacks are alternate executables tried in order when Command is
	// absent. Finding one yields StatusFoundWithWarning, never
	// StatusFound, since a fallback may behave differently.
	Fallbacks []string

	// MinVersion is the minimum acceptable version, e.g. "1.50".
	// Empty disables the version check.
	MinVersion string

	// Required marks the dependency as mandatory for startup.
	Required bool

	// Feature describes what the dependency enables, for reports.
	Feature string

	// Install maps runtime.GOOS values to install hints.
	Install map[string]string
}

// Status is the ordered outcome of probing one dependency.
type Status int

const (
	// StatusMissing means neither the primary command nor any fallback
	// was found.
	StatusMissing Status = iota

	// StatusFoundWithWarning means a fallback was found, or the primary
	// command's version is below the declared minimum.
	StatusFoundWithWarning

	// StatusFound means the primary command was found and passed any
	// version check.
	StatusFound
)

// String returns a short label for the status.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusFoundWithWarning:
		return "found-with-warning"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Result is the outcome of probing a DependencySpec. Results are produced
// fresh on every probe and never persisted.
type Result struct {
	// Status is the probe outcome.
	Status Status

	// Reason explains a StatusFoundWithWarning result.
	Reason string

	// Path is the resolved executable path when one was found.
	Path string

	// Version is the extracted version token, when one was parsed.
	Version string
}

// OK reports whether the dependency is usable (found, possibly with a
// warning).
func (r Result) OK() bool {
	return r.Status != StatusMissing
}
