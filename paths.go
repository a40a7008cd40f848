package provision

import (
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

// maxRootWalkLevels bounds the upward walk during project-root detection.
const maxRootWalkLevels = 10

// containerModelDir is the well-known mount path used by container images.
const containerModelDir = "/app/api/src/models"

// projectRootMarkers are the files/directories whose presence identifies
// the project root.
var projectRootMarkers = []string{"go.mod", ".git"}

// ResolvePaths computes the model, voice, and working directories for this
// process. The precedence chain is evaluated independently for the model
// and voice directories:
//
//  1. Explicit override argument.
//  2. Primary environment variable (KOKORO_MODELS_DIR / KOKORO_VOICES_DIR).
//  3. Legacy environment variable (MODEL_DIR / VOICES_DIR).
//  4. First existing conventional location.
//  5. First user-level conventional location, created lazily.
//
// Absent explicit input, the voice directory defaults to
// <modelDir>/voices/<version>. Resolution is idempotent: the same inputs
// and filesystem state yield identical results. It fails only when no
// writable location can be determined.
func ResolvePaths(settings Settings, modelOverride, voiceOverride string) (ResolvedPaths, error) {
	root := findProjectRoot()

	modelDir, err := resolveModelDir(settings, modelOverride, root)
	if err != nil {
		return ResolvedPaths{}, err
	}

	voiceDir, err := resolveVoiceDir(settings, voiceOverride, modelDir)
	if err != nil {
		return ResolvedPaths{}, err
	}

	workDir := filepath.Join(root, "api", "temp_files")

	paths := ResolvedPaths{
		ProjectRoot: root,
		ModelDir:    modelDir,
		VoiceDir:    voiceDir,
		WorkDir:     workDir,
	}

	for _, dir := range []string{paths.ModelDir, paths.VoiceDir, paths.WorkDir} {
		if err := ensureDir(dir); err != nil {
			return ResolvedPaths{}, fmt.Errorf("%w: %v", ErrNoWritablePath, err)
		}
	}

	return paths, nil
}

// resolveModelDir applies the model-directory precedence chain.
func resolveModelDir(settings Settings, override, projectRoot string) (string, error) {
	if override != "" {
		return expandPath(override)
	}
	if env := settings.modelOverride(); env != "" {
		return expandPath(env)
	}

	locations, err := defaultModelLocations(projectRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoWritablePath, err)
	}

	for _, loc := range locations {
		if dirExists(loc) {
			return filepath.Abs(loc)
		}
	}

	// Nothing exists yet: fall back to the first user-level location.
	// Creation happens in ResolvePaths.
	return filepath.Abs(locations[0])
}

// resolveVoiceDir applies the voice-directory precedence chain.
func resolveVoiceDir(settings Settings, override, modelDir string) (string, error) {
	if override != "" {
		return expandPath(override)
	}
	if env := settings.voiceOverride(); env != "" {
		return expandPath(env)
	}

	version := settings.Version
	if version == "" {
		version = DefaultVersion
	}
	return filepath.Join(modelDir, "voices", version), nil
}

// defaultModelLocations returns the ordered conventional locations the
// resolver considers: user home areas first, then system-wide shared
// areas, the container mount, and a path relative to the project root.
func defaultModelLocations(projectRoot string) ([]string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	locations := []string{
		filepath.Join(home, "models", "kokoro"),
		filepath.Join(home, ".kokoro", "models"),
	}
	locations = append(locations, systemModelDirs()...)
	locations = append(locations,
		containerModelDir,
		filepath.Join(projectRoot, "api", "src", "models"),
	)
	return locations, nil
}

// findProjectRoot walks upward from the working directory looking for a
// marker file, stopping after maxRootWalkLevels. Falls back to the working
// directory itself when no marker is found.
func findProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	current := cwd
	for i := 0; i < maxRootWalkLevels; i++ {
		for _, marker := range projectRootMarkers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return cwd
}

// ModelPath returns the directory for a specific model version.
func (p ResolvedPaths) ModelPath(version string) string {
	return filepath.Join(p.ModelDir, version)
}

// ModelsExist reports whether the required files of the manifest are
// present under the model directory. Size checking is left to Verify.
func (p ResolvedPaths) ModelsExist(m Manifest) bool {
	dir := p.ModelPath(m.Version)
	for _, f := range m.Files {
		if _, err := os.Stat(filepath.Join(dir, f.Name)); err != nil {
			return false
		}
	}
	return true
}

// VoicesExist reports whether at least one voice pack file is present.
func (p ResolvedPaths) VoicesExist() bool {
	entries, err := os.ReadDir(p.VoiceDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".pt" {
			return true
		}
	}
	return false
}

// expandPath expands a leading ~ and converts the result to an absolute
// path.
func expandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", path, err)
	}
	return abs, nil
}

// ensureDir creates a directory and all parents if they don't exist.
func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
