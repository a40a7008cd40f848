package provision

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings holds the environment-supplied configuration consumed by path
// resolution. Resolution reads this struct instead of the process
// environment directly, so tests and embedders can construct Settings
// without mutating global state.
type Settings struct {
	// ModelsDir is the primary model-directory override.
	ModelsDir string `env:"KOKORO_MODELS_DIR"`

	// LegacyModelsDir is the pre-rename override, kept for backward
	// compatibility. ModelsDir wins when both are set.
	LegacyModelsDir string `env:"MODEL_DIR"`

	// VoicesDir is the primary voice-directory override.
	VoicesDir string `env:"KOKORO_VOICES_DIR"`

	// LegacyVoicesDir is the pre-rename voice override.
	LegacyVoicesDir string `env:"VOICES_DIR"`

	// Version is the model version to provision.
	Version string `env:"KOKORO_MODEL_VERSION" envDefault:"v1_0"`
}

// LoadSettings parses Settings from the process environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parsing environment: %w", err)
	}
	return s, nil
}

// modelOverride returns the effective model-directory override, applying
// the primary-over-legacy precedence. Empty means no override.
func (s Settings) modelOverride() string {
	if s.ModelsDir != "" {
		return s.ModelsDir
	}
	return s.LegacyModelsDir
}

// voiceOverride returns the effective voice-directory override.
func (s Settings) voiceOverride() string {
	if s.VoicesDir != "" {
		return s.VoicesDir
	}
	return s.LegacyVoicesDir
}
