package provision

import (
	"os"
	"path/filepath"
	"testing"
)

// chdirTemp moves the test into a fresh temp directory so the resolver's
// project-root detection (and the work dir it creates) stays out of the
// source tree.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })
	return dir
}

func TestResolvePathsOverridePrecedence(t *testing.T) {
	chdirTemp(t)
	base := t.TempDir()
	overrideDir := filepath.Join(base, "override")
	envDir := filepath.Join(base, "env")

	settings := Settings{ModelsDir: envDir, Version: "v1_0"}

	t.Run("explicit override wins over environment", func(t *testing.T) {
		paths, err := ResolvePaths(settings, overrideDir, "")
		if err != nil {
			t.Fatalf("ResolvePaths: %v", err)
		}
		if paths.ModelDir != overrideDir {
			t.Errorf("ModelDir = %q, want %q", paths.ModelDir, overrideDir)
		}
	})

	t.Run("environment wins when no override", func(t *testing.T) {
		paths, err := ResolvePaths(settings, "", "")
		if err != nil {
			t.Fatalf("ResolvePaths: %v", err)
		}
		if paths.ModelDir != envDir {
			t.Errorf("ModelDir = %q, want %q", paths.ModelDir, envDir)
		}
	})

	t.Run("legacy environment honored", func(t *testing.T) {
		legacy := filepath.Join(base, "legacy")
		paths, err := ResolvePaths(Settings{LegacyModelsDir: legacy, Version: "v1_0"}, "", "")
		if err != nil {
			t.Fatalf("ResolvePaths: %v", err)
		}
		if paths.ModelDir != legacy {
			t.Errorf("ModelDir = %q, want %q", paths.ModelDir, legacy)
		}
	})
}

func TestResolvePathsCreatesDirectories(t *testing.T) {
	chdirTemp(t)
	base := t.TempDir()
	modelDir := filepath.Join(base, "models")

	paths, err := ResolvePaths(Settings{Version: "v1_0"}, modelDir, "")
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}

	for _, dir := range []string{paths.ModelDir, paths.VoiceDir, paths.WorkDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected directory %s to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestResolvePathsVoiceDefault(t *testing.T) {
	chdirTemp(t)
	base := t.TempDir()
	modelDir := filepath.Join(base, "models")

	paths, err := ResolvePaths(Settings{Version: "v1_0"}, modelDir, "")
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}

	want := filepath.Join(modelDir, "voices", "v1_0")
	if paths.VoiceDir != want {
		t.Errorf("VoiceDir = %q, want %q", paths.VoiceDir, want)
	}
}

func TestResolvePathsVoiceOverride(t *testing.T) {
	chdirTemp(t)
	base := t.TempDir()
	modelDir := filepath.Join(base, "models")
	voiceDir := filepath.Join(base, "custom-voices")

	paths, err := ResolvePaths(Settings{Version: "v1_0"}, modelDir, voiceDir)
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if paths.VoiceDir != voiceDir {
		t.Errorf("VoiceDir = %q, want %q", paths.VoiceDir, voiceDir)
	}
}

func TestResolvePathsIdempotent(t *testing.T) {
	chdirTemp(t)
	base := t.TempDir()
	modelDir := filepath.Join(base, "models")
	settings := Settings{Version: "v1_0"}

	first, err := ResolvePaths(settings, modelDir, "")
	if err != nil {
		t.Fatalf("first ResolvePaths: %v", err)
	}
	second, err := ResolvePaths(settings, modelDir, "")
	if err != nil {
		t.Fatalf("second ResolvePaths: %v", err)
	}
	if first != second {
		t.Errorf("resolution not idempotent:\n first: %+v\nsecond: %+v", first, second)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	t.Run("tilde expansion", func(t *testing.T) {
		got, err := expandPath("~/models/kokoro")
		if err != nil {
			t.Fatalf("expandPath: %v", err)
		}
		want := filepath.Join(home, "models", "kokoro")
		if got != want {
			t.Errorf("expandPath(~/models/kokoro) = %q, want %q", got, want)
		}
	})

	t.Run("absolute path unchanged", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "x")
		got, err := expandPath(abs)
		if err != nil {
			t.Fatalf("expandPath: %v", err)
		}
		if got != abs {
			t.Errorf("expandPath(%q) = %q", abs, got)
		}
	})

	t.Run("relative made absolute", func(t *testing.T) {
		got, err := expandPath("relative/dir")
		if err != nil {
			t.Fatalf("expandPath: %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("expected absolute path, got %q", got)
		}
	})
}

func TestEnvironmentVars(t *testing.T) {
	paths := ResolvedPaths{
		ProjectRoot: "/proj",
		ModelDir:    "/proj/models",
		VoiceDir:    "/proj/models/voices/v1_0",
		WorkDir:     "/proj/api/temp_files",
	}

	vars := paths.EnvironmentVars()
	want := map[string]string{
		"PROJECT_ROOT":    "/proj",
		"MODEL_DIR":       "/proj/models",
		"VOICES_DIR":      "/proj/models/voices/v1_0",
		"KOKORO_WORK_DIR": "/proj/api/temp_files",
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("vars[%q] = %q, want %q", k, vars[k], v)
		}
	}
	if len(vars) != len(want) {
		t.Errorf("got %d vars, want %d", len(vars), len(want))
	}
}

func TestModelsExist(t *testing.T) {
	base := t.TempDir()
	m := Manifest{
		Version: "v1_0",
		Files:   []FileSpec{{Name: "model.pth"}, {Name: "config.json"}},
	}
	paths := ResolvedPaths{ModelDir: base}

	if paths.ModelsExist(m) {
		t.Error("expected ModelsExist false on empty dir")
	}

	versionDir := filepath.Join(base, "v1_0")
	os.MkdirAll(versionDir, 0o755)
	os.WriteFile(filepath.Join(versionDir, "model.pth"), []byte("w"), 0o644)

	if paths.ModelsExist(m) {
		t.Error("expected ModelsExist false with a file missing")
	}

	os.WriteFile(filepath.Join(versionDir, "config.json"), []byte("{}"), 0o644)
	if !paths.ModelsExist(m) {
		t.Error("expected ModelsExist true with all files present")
	}
}

func TestVoicesExist(t *testing.T) {
	base := t.TempDir()
	paths := ResolvedPaths{VoiceDir: filepath.Join(base, "voices")}

	if paths.VoicesExist() {
		t.Error("expected false for missing voice dir")
	}

	os.MkdirAll(paths.VoiceDir, 0o755)
	if paths.VoicesExist() {
		t.Error("expected false for empty voice dir")
	}

	os.WriteFile(filepath.Join(paths.VoiceDir, "notes.txt"), []byte("x"), 0o644)
	if paths.VoicesExist() {
		t.Error("expected false with no .pt files")
	}

	os.WriteFile(filepath.Join(paths.VoiceDir, "af_bella.pt"), []byte("v"), 0o644)
	if !paths.VoicesExist() {
		t.Error("expected true with a .pt file present")
	}
}

func TestFindProjectRoot(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("writing marker: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	got := findProjectRoot()
	// Resolve symlinks so macOS /private/var temp paths compare equal.
	wantReal, _ := filepath.EvalSymlinks(base)
	gotReal, _ := filepath.EvalSymlinks(got)
	if gotReal != wantReal {
		t.Errorf("findProjectRoot() = %q, want %q", got, base)
	}
}
