package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// satisfyManifest creates placeholder files of the expected sizes so the
// manifest reads as already satisfied. Truncate keeps the large weight
// file sparse.
func satisfyManifest(t *testing.T, modelDir string, m Manifest) {
	t.Helper()
	versionDir := filepath.Join(modelDir, m.Version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, spec := range m.Files {
		path := filepath.Join(versionDir, spec.Name)
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("creating %s: %v", path, err)
		}
		if spec.Size > 0 {
			if err := f.Truncate(spec.Size); err != nil {
				t.Fatalf("sizing %s: %v", path, err)
			}
		}
		f.Close()
	}
}

func TestProvisionAlreadySatisfied(t *testing.T) {
	chdirTemp(t)
	modelDir := filepath.Join(t.TempDir(), "models")

	m, _ := Lookup(DefaultVersion)
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	satisfyManifest(t, modelDir, m)

	settings := Settings{ModelsDir: modelDir, Version: DefaultVersion}
	paths, err := Provision(context.Background(), settings, WithSkipChecks())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if paths.ModelDir != modelDir {
		t.Errorf("ModelDir = %q, want %q", paths.ModelDir, modelDir)
	}
	if !paths.ModelsExist(m) {
		t.Error("resolved paths do not see the satisfied manifest")
	}

	vars := paths.EnvironmentVars()
	if vars["MODEL_DIR"] != modelDir {
		t.Errorf("MODEL_DIR = %q", vars["MODEL_DIR"])
	}
	if vars["VOICES_DIR"] == "" || vars["KOKORO_WORK_DIR"] == "" {
		t.Errorf("incomplete environment propagation: %v", vars)
	}
}

func TestProvisionUnknownVersion(t *testing.T) {
	chdirTemp(t)
	modelDir := filepath.Join(t.TempDir(), "models")

	settings := Settings{ModelsDir: modelDir, Version: "v99_0"}
	_, err := Provision(context.Background(), settings, WithSkipChecks())
	if !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestProvisionEmptyVersionDefaults(t *testing.T) {
	chdirTemp(t)
	modelDir := filepath.Join(t.TempDir(), "models")

	m, _ := Lookup(DefaultVersion)
	os.MkdirAll(modelDir, 0o755)
	satisfyManifest(t, modelDir, m)

	settings := Settings{ModelsDir: modelDir}
	if _, err := Provision(context.Background(), settings, WithSkipChecks()); err != nil {
		t.Fatalf("Provision with empty version: %v", err)
	}
}

func TestProvisionLogsReadiness(t *testing.T) {
	chdirTemp(t)
	modelDir := filepath.Join(t.TempDir(), "models")

	m, _ := Lookup(DefaultVersion)
	os.MkdirAll(modelDir, 0o755)
	satisfyManifest(t, modelDir, m)

	logger := &recordingLogger{}
	settings := Settings{ModelsDir: modelDir, Version: DefaultVersion}
	if _, err := Provision(context.Background(), settings, WithSkipChecks(), WithProvisionLogger(logger)); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if !logger.hasInfo("models already present") {
		t.Errorf("expected a readiness log, got %v", logger.infos)
	}
}

func TestCheckDependenciesForceDeps(t *testing.T) {
	// An empty search path makes every dependency missing; the registry's
	// dependencies are all optional, so the probe still reports all-clear.
	t.Setenv("PATH", t.TempDir())

	cfg := &provisionConfig{}
	if err := checkDependencies(context.Background(), cfg); err != nil {
		t.Errorf("optional-only registry must not block: %v", err)
	}

	// A synthetic required dependency does block, unless forced.
	specs := []DependencySpec{{Name: "critical", Command: "critical-tool", Required: true}}
	if _, allClear := probeSpecs(context.Background(), specs, true); allClear {
		t.Error("expected missing required dependency to clear the flag")
	}
}

// recordingLogger records info-level messages for assertions.
type recordingLogger struct {
	infos []string
}

func (r *recordingLogger) Debug(msg string, kv ...any) {}
func (r *recordingLogger) Warn(msg string, kv ...any)  {}
func (r *recordingLogger) Error(msg string, kv ...any) {}

func (r *recordingLogger) Info(msg string, kv ...any) {
	r.infos = append(r.infos, msg)
}

func (r *recordingLogger) hasInfo(msg string) bool {
	for _, m := range r.infos {
		if m == msg {
			return true
		}
	}
	return false
}
