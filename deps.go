package provision

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// versionPatterns extract a version token from tool output, tried in
// order: explicit "version X.Y[.Z]", then "vX.Y[.Z]", then a bare
// dotted number.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)version\s+v?(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)\bv(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`),
}

// Dependencies returns the external tools probed before startup for the
// current operating system. The returned specs are fresh copies; callers
// may not rely on identity.
func Dependencies() []DependencySpec {
	deps := []DependencySpec{
		{
			Name:        "espeak-ng",
			Command:     "espeak-ng",
			VersionArgs: []string{"--version"},
			Fallbacks:   []string{"espeak"},
			Feature:     "phonemization (text-to-phoneme conversion)",
			Install: map[string]string{
				"linux":   "sudo apt-get install espeak-ng",
				"darwin":  "brew install espeak-ng",
				"windows": "Download from https://github.com/espeak-ng/espeak-ng/releases",
			},
		},
		{
			Name:        "ffmpeg",
			Command:     "ffmpeg",
			VersionArgs: []string{"-version"},
			Feature:     "audio format conversion (MP3, OGG, etc.)",
			Install: map[string]string{
				"linux":   "sudo apt-get install ffmpeg",
				"darwin":  "brew install ffmpeg",
				"windows": "Download from https://ffmpeg.org/download.html",
			},
		},
	}

	// A GPU probe only means something where NVIDIA drivers exist.
	if runtime.GOOS == "linux" || runtime.GOOS == "windows" {
		deps = append(deps, DependencySpec{
			Name:        "cuda",
			Command:     "nvidia-smi",
			VersionArgs: []string{"--query-gpu=name", "--format=csv,noheader"},
			Feature:     "GPU acceleration",
			Install: map[string]string{
				"linux":   "Install NVIDIA drivers from your distribution",
				"windows": "Download from https://www.nvidia.com/drivers",
			},
		})
	}

	return deps
}

// InstallHint returns the install instruction for the current OS, or an
// empty string when none is known.
func (s DependencySpec) InstallHint() string {
	return s.Install[runtime.GOOS]
}

// ProbeOne probes a single dependency.
//
// The primary command is looked up on the search path first. When absent,
// the fallbacks are tried in order; finding one yields
// StatusFoundWithWarning, never StatusFound, since a fallback may behave
// differently. When the primary command is present and a minimum version
// is declared, its version output is parsed and compared; an older
// version yields StatusFoundWithWarning, and an unparseable version
// fails open to StatusFound so a strange version string never blocks
// startup.
func ProbeOne(ctx context.Context, spec DependencySpec) Result {
	path, err := exec.LookPath(spec.Command)
	if err == nil {
		result := Result{Status: StatusFound, Path: path}
		if spec.MinVersion == "" {
			return result
		}

		out, err := exec.CommandContext(ctx, spec.Command, spec.VersionArgs...).CombinedOutput()
		if err != nil {
			// Command exists but the version invocation failed; fail open.
			return result
		}

		version, ok := extractVersion(string(out))
		if !ok {
			return result
		}
		result.Version = version

		if compareVersions(version, spec.MinVersion) < 0 {
			result.Status = StatusFoundWithWarning
			result.Reason = fmt.Sprintf("version %s is older than recommended %s", version, spec.MinVersion)
		}
		return result
	}

	for _, fallback := range spec.Fallbacks {
		if fbPath, err := exec.LookPath(fallback); err == nil {
			return Result{
				Status: StatusFoundWithWarning,
				Reason: fmt.Sprintf("found %s instead of %s", fallback, spec.Command),
				Path:   fbPath,
			}
		}
	}

	return Result{Status: StatusMissing}
}

// ProbeAll probes every dependency in the registry and returns the
// per-dependency results plus an all-clear flag. The flag is true if and
// only if every required dependency resolved to StatusFound or
// StatusFoundWithWarning; missing optional dependencies degrade
// functionality but never block readiness.
func ProbeAll(ctx context.Context, includeOptional bool) (map[string]Result, bool) {
	return probeSpecs(ctx, Dependencies(), includeOptional)
}

// probeSpecs is the ProbeAll core, split out so tests can supply their
// own registry.
func probeSpecs(ctx context.Context, specs []DependencySpec, includeOptional bool) (map[string]Result, bool) {
	results := make(map[string]Result, len(specs))
	allClear := true

	for _, spec := range specs {
		if !includeOptional && !spec.Required {
			continue
		}

		result := ProbeOne(ctx, spec)
		results[spec.Name] = result

		if spec.Required && !result.OK() {
			allClear = false
		}
	}

	return results, allClear
}

// extractVersion pulls a version token out of command output using the
// ordered pattern set.
func extractVersion(output string) (string, bool) {
	for _, pattern := range versionPatterns {
		if m := pattern.FindStringSubmatch(output); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// compareVersions compares two dotted version strings numerically,
// part by part. Missing parts count as zero. Returns -1, 0, or 1.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}

	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(aParts) {
			av, _ = strconv.Atoi(aParts[i])
		}
		if i < len(bParts) {
			bv, _ = strconv.Atoi(bParts[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}

	return 0
}
