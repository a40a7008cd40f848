package provision

import (
	"net/http"
	"time"
)

const (
	// DefaultSizeTolerance is the byte window within which an existing
	// file's size is considered to match the manifest's expected size.
	// Remote hosts occasionally report sizes that differ slightly from
	// the bytes actually served, so an exact match is too strict.
	DefaultSizeTolerance = 1000

	// DefaultVoiceConcurrency is the default number of concurrent voice
	// file downloads.
	DefaultVoiceConcurrency = 4

	// MaxVoiceConcurrency is the maximum allowed concurrent voice file
	// downloads.
	MaxVoiceConcurrency = 16

	// DefaultLockTimeout is the maximum wait for the cross-process
	// acquisition lock.
	DefaultLockTimeout = 30 * time.Second

	// userAgent is sent on every asset request.
	userAgent = "kokoro-provision/1.0"
)

// AcquireOption configures a single acquisition.
type AcquireOption func(*acquireConfig)

// acquireConfig holds configuration for one Acquire call.
type acquireConfig struct {
	// force skips the already-satisfied check and re-downloads.
	force bool

	// baseURL overrides the manifest's base URL. The file list is
	// unaffected.
	baseURL string

	// sizeTolerance is the accepted byte difference for size checks.
	sizeTolerance int64

	// voiceConcurrency is the voice download worker count.
	voiceConcurrency int

	// progressFn receives transfer progress updates.
	progressFn func(Progress)
}

// newAcquireConfig returns an acquireConfig with default values.
func newAcquireConfig() *acquireConfig {
	return &acquireConfig{
		sizeTolerance:    DefaultSizeTolerance,
		voiceConcurrency: DefaultVoiceConcurrency,
	}
}

// WithForce skips satisfaction checks and re-downloads every file.
func WithForce() AcquireOption {
	return func(c *acquireConfig) {
		c.force = true
	}
}

// WithBaseURL overrides the manifest's base URL for this acquisition.
// The manifest's file list still applies.
func WithBaseURL(url string) AcquireOption {
	return func(c *acquireConfig) {
		c.baseURL = url
	}
}

// WithSizeTolerance sets the accepted byte difference when comparing an
// existing file's size against the manifest. Default is
// DefaultSizeTolerance.
func WithSizeTolerance(bytes int64) AcquireOption {
	return func(c *acquireConfig) {
		if bytes < 0 {
			bytes = 0
		}
		c.sizeTolerance = bytes
	}
}

// WithVoiceConcurrency sets the number of concurrent voice downloads.
// Values are clamped to the range [1, MaxVoiceConcurrency].
func WithVoiceConcurrency(n int) AcquireOption {
	return func(c *acquireConfig) {
		if n < 1 {
			n = 1
		}
		if n > MaxVoiceConcurrency {
			n = MaxVoiceConcurrency
		}
		c.voiceConcurrency = n
	}
}

// Progress reports transfer progress for one file.
type Progress struct {
	// Name is the file being transferred.
	Name string

	// BytesTotal is the expected total from Content-Length, or 0 when
	// the server did not report one (indeterminate progress).
	BytesTotal int64

	// BytesDone is the cumulative bytes written so far.
	BytesDone int64
}

// WithProgress sets a callback for transfer progress. The callback is
// invoked from download goroutines and must be safe for concurrent use.
func WithProgress(fn func(Progress)) AcquireOption {
	return func(c *acquireConfig) {
		c.progressFn = fn
	}
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*downloaderConfig)

// downloaderConfig holds configuration for Downloader construction.
type downloaderConfig struct {
	httpClient HTTPClient
	logger     Logger
}

// WithHTTPClient sets a custom HTTP client for asset requests.
// Useful for testing with mock servers or customizing timeouts.
// If not set, http.DefaultClient is used.
func WithHTTPClient(client HTTPClient) DownloaderOption {
	return func(c *downloaderConfig) {
		c.httpClient = client
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) DownloaderOption {
	return func(c *downloaderConfig) {
		c.logger = logger
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, charmbracelet/log, and other structured
// loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
