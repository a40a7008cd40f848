package provision

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fileSatisfied reports whether a file already satisfies its spec: it
// exists and, when an expected size is known, the actual size is within
// tolerance bytes of it. Hashes are not recomputed here; a file that
// passed verification at publish time is trusted by size alone.
func fileSatisfied(path string, spec FileSpec, tolerance int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if spec.Size == 0 {
		return true
	}
	return sizeWithin(info.Size(), spec.Size, tolerance)
}

// sizeWithin reports whether actual is within tolerance bytes of expected.
func sizeWithin(actual, expected, tolerance int64) bool {
	diff := actual - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// verifyFileHash computes the SHA-256 hash of the file at path by
// streaming its contents and compares it to expectedHash (lowercase hex).
// Returns ErrHashMismatch on a mismatch.
func verifyFileHash(path, expectedHash string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrStorageError, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("%w: hashing %s: %v", ErrStorageError, path, err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expectedHash {
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrHashMismatch)
	}
	return nil
}

// Verify walks a manifest's required files under targetDir/<version> and
// reports one issue string per missing or size-mismatched file. An empty
// result means the manifest is satisfied.
func Verify(targetDir string, m Manifest, tolerance int64) []string {
	var issues []string
	versionDir := filepath.Join(targetDir, m.Version)

	for _, spec := range m.Files {
		path := filepath.Join(versionDir, spec.Name)
		info, err := os.Stat(path)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: missing", spec.Name))
			continue
		}
		if spec.Size > 0 && !sizeWithin(info.Size(), spec.Size, tolerance) {
			issues = append(issues, fmt.Sprintf("%s: size mismatch (expected %d, got %d)", spec.Name, spec.Size, info.Size()))
		}
	}

	return issues
}

// Satisfied reports whether every required file of the manifest is present
// under targetDir with an acceptable size.
func Satisfied(targetDir string, m Manifest, tolerance int64) bool {
	return len(Verify(targetDir, m, tolerance)) == 0
}
