// Package provision resolves, verifies, and downloads the file assets and
// system dependencies a Kokoro TTS deployment needs before it can start.
//
// The package covers three independent concerns:
//
//  1. Path resolution - ResolvePaths computes the model, voice, and working
//     directories for the current installation context (bare checkout,
//     container, user-local install) under a fixed precedence chain of
//     explicit overrides, environment variables, and conventional locations.
//
//  2. Asset acquisition - a Downloader fetches the files named in a catalog
//     Manifest with size and SHA-256 verification. Files are streamed into a
//     temporary name and published with an atomic rename, so a partially
//     written file is never visible under its final name.
//
//  3. Dependency probing - ProbeAll detects the presence, version, and
//     fallback availability of external tools (espeak-ng, ffmpeg, GPU
//     drivers) without ever blocking startup on an unparseable version
//     string.
//
// Provision sequences the three for callers that want a single entry point,
// and NewCommand exposes the same operations as an embeddable Cobra command
// tree ("kokoro-models download", "kokoro-models verify", ...).
//
// # Storage Layout
//
// Assets are installed as:
//
//	<modelDir>/<version>/<weight-file>
//	<modelDir>/<version>/config.json
//	<modelDir>/voices/<version>/<voice-file>.pt
//
// The model directory can be overridden via KOKORO_MODELS_DIR (or the
// legacy MODEL_DIR), the voice directory via KOKORO_VOICES_DIR (legacy
// VOICES_DIR).
//
// # Thread Safety
//
// A Downloader is safe for concurrent use; concurrent acquisitions of the
// same target directory are serialized with a cross-process file lock.
// ResolvedPaths is an immutable value computed once per run.
package provision
