package provision

import (
	"context"
	"fmt"
)

// ProvisionOption configures a Provision run.
type ProvisionOption func(*provisionConfig)

// provisionConfig holds configuration for one Provision call.
type provisionConfig struct {
	// skipChecks disables dependency probing entirely.
	skipChecks bool

	// forceDeps continues past a missing required dependency.
	forceDeps bool

	// force re-downloads assets even when satisfied.
	force bool

	// downloader overrides the default Downloader.
	downloader *Downloader

	// logger receives readiness and remediation messages. May be nil.
	logger Logger

	// acquireOpts are forwarded to Acquire.
	acquireOpts []AcquireOption
}

// WithSkipChecks disables the dependency probe phase.
func WithSkipChecks() ProvisionOption {
	return func(c *provisionConfig) {
		c.skipChecks = true
	}
}

// WithForceDeps continues provisioning even when a required dependency
// is missing. Functionality depending on the missing tool will degrade.
func WithForceDeps() ProvisionOption {
	return func(c *provisionConfig) {
		c.forceDeps = true
	}
}

// WithRefresh re-downloads assets even when the target is already
// satisfied.
func WithRefresh() ProvisionOption {
	return func(c *provisionConfig) {
		c.force = true
	}
}

// WithDownloader supplies the Downloader used for acquisition.
func WithDownloader(d *Downloader) ProvisionOption {
	return func(c *provisionConfig) {
		c.downloader = d
	}
}

// WithProvisionLogger sets the logger for readiness and remediation
// messages.
func WithProvisionLogger(l Logger) ProvisionOption {
	return func(c *provisionConfig) {
		c.logger = l
	}
}

// WithAcquireOptions forwards options to the acquisition phase.
func WithAcquireOptions(opts ...AcquireOption) ProvisionOption {
	return func(c *provisionConfig) {
		c.acquireOpts = append(c.acquireOpts, opts...)
	}
}

// Provision prepares the environment for the downstream service:
// it probes system dependencies, resolves the model/voice/working
// directories, checks whether the configured version's manifest is
// already satisfied, and acquires anything missing. The returned
// ResolvedPaths is the single resolution for this run; callers propagate
// paths.EnvironmentVars() into the service's context rather than
// re-deriving paths.
//
// Provision is the one place that decides which outcomes are fatal.
// Every fatal path carries an actionable remediation in its error or in
// the log output preceding it.
func Provision(ctx context.Context, settings Settings, opts ...ProvisionOption) (ResolvedPaths, error) {
	cfg := &provisionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.downloader == nil {
		downloaderOpts := []DownloaderOption{}
		if cfg.logger != nil {
			downloaderOpts = append(downloaderOpts, WithLogger(cfg.logger))
		}
		cfg.downloader = NewDownloader(downloaderOpts...)
	}

	if !cfg.skipChecks {
		if err := checkDependencies(ctx, cfg); err != nil {
			return ResolvedPaths{}, err
		}
	}

	paths, err := ResolvePaths(settings, "", "")
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolving paths (set KOKORO_MODELS_DIR to a writable directory): %w", err)
	}

	version := settings.Version
	if version == "" {
		version = DefaultVersion
	}
	m, ok := Lookup(version)
	if !ok {
		return ResolvedPaths{}, fmt.Errorf("version %q: %w", version, ErrUnknownVersion)
	}

	if !cfg.force && Satisfied(paths.ModelDir, m, DefaultSizeTolerance) {
		if cfg.logger != nil {
			cfg.logger.Info("models already present", "version", version, "dir", paths.ModelDir)
		}
		return paths, nil
	}

	acquireOpts := cfg.acquireOpts
	if cfg.force {
		acquireOpts = append(acquireOpts, WithForce())
	}

	if _, err := cfg.downloader.Acquire(ctx, m, paths.ModelDir, acquireOpts...); err != nil {
		return ResolvedPaths{}, fmt.Errorf("acquiring %s (re-run with force to replace corrupt files): %w", version, err)
	}

	if cfg.logger != nil {
		cfg.logger.Info("environment ready", "version", version, "models", paths.ModelDir, "voices", paths.VoiceDir)
	}
	return paths, nil
}

// checkDependencies runs the probe phase and decides fatality for
// missing required tools. Missing optional tools and fallback hits are
// reported but never block readiness.
func checkDependencies(ctx context.Context, cfg *provisionConfig) error {
	results, allClear := ProbeAll(ctx, true)

	specs := Dependencies()
	for _, spec := range specs {
		result, ok := results[spec.Name]
		if !ok {
			continue
		}
		if cfg.logger == nil {
			continue
		}
		switch result.Status {
		case StatusFound:
			cfg.logger.Debug("dependency found", "name", spec.Name, "path", result.Path)
		case StatusFoundWithWarning:
			cfg.logger.Warn("dependency degraded", "name", spec.Name, "reason", result.Reason)
		case StatusMissing:
			if spec.Required {
				cfg.logger.Error("required dependency missing", "name", spec.Name, "install", spec.InstallHint())
			} else {
				cfg.logger.Warn("optional dependency missing", "name", spec.Name, "feature", spec.Feature, "install", spec.InstallHint())
			}
		}
	}

	if !allClear && !cfg.forceDeps {
		return fmt.Errorf("install the tools reported above or re-run with dependency checks forced off: %w", ErrDependencyMissing)
	}
	return nil
}
