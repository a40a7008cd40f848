package provision

import "sort"

// DefaultVersion is the model version provisioned when none is specified.
const DefaultVersion = "v1_0"

// catalog is the built-in table of known model versions. It is read-only
// and process-wide; an override URL supplied at acquisition time takes
// precedence over a manifest's BaseURL but never replaces its file list.
var catalog = map[string]Manifest{
	"v1_0": {
		Version: "v1_0",
		BaseURL: "https://huggingface.co/hexgrad/Kokoro-82M/resolve/main",
		Files: []FileSpec{
			{
				Name:   "kokoro-v1_0.pth",
				Size:   327212226,
				SHA256: "496dba118d1a58f5f3db2efc88dbdc216e0483fc89fe6e47ee1f2c53f18ad1e4",
			},
			{
				// Small file, no hash published upstream.
				Name: "config.json",
				Size: 1439,
			},
		},
		Voices: &VoiceSet{
			BaseURL: "https://huggingface.co/hexgrad/Kokoro-82M/resolve/main/voices",
			Files: []string{
				"af_bella.pt", "af_nicole.pt", "af_sarah.pt", "af_sky.pt",
				"am_adam.pt", "am_michael.pt", "bf_emma.pt", "bf_isabella.pt",
				"bm_george.pt", "bm_lewis.pt",
			},
		},
	},
}

// The catalog is static data; a bad entry is a programming error caught
// at process start.
func init() {
	for _, m := range catalog {
		if err := m.validate(); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the manifest for a version, and whether it exists.
func Lookup(version string) (Manifest, bool) {
	m, ok := catalog[version]
	return m, ok
}

// Versions returns all known version identifiers in sorted order.
func Versions() []string {
	versions := make([]string, 0, len(catalog))
	for v := range catalog {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
