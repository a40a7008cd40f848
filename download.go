package provision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// tmpSuffix distinguishes in-flight downloads from published files. The
// temporary file shares the target directory so the final rename never
// crosses a filesystem boundary.
const tmpSuffix = ".tmp"

// Downloader fetches catalog assets with integrity verification and
// atomic publication. Safe for concurrent use.
type Downloader struct {
	// httpClient is used for all asset requests.
	httpClient HTTPClient

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// acquireMu serializes in-process acquisitions; cross-process
	// exclusion is handled by the target directory's lock file.
	acquireMu sync.Mutex
}

// NewDownloader creates a Downloader.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	cfg := &downloaderConfig{
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Downloader{
		httpClient: cfg.httpClient,
		logger:     cfg.logger,
	}
}

// Acquire fetches every file of the manifest into
// targetDir/<version>, then the voice pack (if any) into
// targetDir/voices/<version>.
//
// Files already present with an acceptable size are skipped unless
// WithForce() is given. Each transfer streams into a temporary file and
// is verified (SHA-256 when the manifest declares a hash) before an
// atomic rename publishes it; a partially written file is never visible
// under its final name, and no temporary file survives a failure.
//
// A failed required file aborts the acquisition. Voice files are fetched
// independently with bounded concurrency; individual voice failures are
// logged and do not fail the call. No retries are performed; a caller
// seeing a failure re-invokes, optionally with WithForce().
//
// The returned outcomes describe every file considered, including the
// voice files, in no guaranteed order for the voice batch.
func (d *Downloader) Acquire(ctx context.Context, m Manifest, targetDir string, opts ...AcquireOption) ([]Outcome, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	cfg := newAcquireConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	baseURL := m.BaseURL
	if cfg.baseURL != "" {
		baseURL = cfg.baseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("manifest %s: no download URL: %w", m.Version, ErrUnknownVersion)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	versionDir := filepath.Join(targetDir, m.Version)
	if err := ensureDir(versionDir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	d.acquireMu.Lock()
	defer d.acquireMu.Unlock()

	// Cross-process lock so two processes never race on the same target.
	lock, err := newFileLock(filepath.Join(versionDir, ".download.lock"), DefaultLockTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: creating lock: %v", ErrStorageError, err)
	}
	if err := lock.Lock(); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("%w: another process is downloading this version: %v", ErrStorageError, err)
	}
	defer lock.Unlock()

	var outcomes []Outcome

	for _, spec := range m.Files {
		dest := filepath.Join(versionDir, spec.Name)

		if !cfg.force && fileSatisfied(dest, spec, cfg.sizeTolerance) {
			outcomes = append(outcomes, Outcome{Name: spec.Name, Kind: AlreadySatisfied})
			if d.logger != nil {
				d.logger.Debug("file already satisfied", "file", spec.Name)
			}
			continue
		}

		err := d.downloadFile(ctx, baseURL+"/"+spec.Name, dest, spec, cfg)
		if err != nil {
			outcome := Outcome{Name: spec.Name, Kind: outcomeKindFor(err), Err: err}
			outcomes = append(outcomes, outcome)
			return outcomes, fmt.Errorf("downloading %s: %w", spec.Name, err)
		}

		outcomes = append(outcomes, Outcome{Name: spec.Name, Kind: Downloaded})
		if d.logger != nil {
			d.logger.Info("file downloaded", "file", spec.Name)
		}
	}

	if m.Voices != nil && len(m.Voices.Files) > 0 {
		voiceOutcomes := d.acquireVoices(ctx, m, targetDir, cfg)
		outcomes = append(outcomes, voiceOutcomes...)
	}

	return outcomes, nil
}

// outcomeKindFor classifies a download error as a verification or
// transfer failure.
func outcomeKindFor(err error) OutcomeKind {
	if errors.Is(err, ErrHashMismatch) || errors.Is(err, ErrSizeMismatch) {
		return VerificationFailed
	}
	return TransferFailed
}

// downloadFile streams url into dest's temporary sibling, verifies size
// and hash against spec, and publishes the result with an atomic rename.
// Any failure removes the temporary file.
func (d *Downloader) downloadFile(ctx context.Context, url, dest string, spec FileSpec, cfg *acquireConfig) error {
	tmp := dest + tmpSuffix

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStorageError, err)
	}

	written, err := fetchToWriter(ctx, d.httpClient, url, spec.Name, f, cfg.progressFn)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("%w: closing temp file: %v", ErrStorageError, closeErr)
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	if spec.Size > 0 && !sizeWithin(written, spec.Size, cfg.sizeTolerance) {
		os.Remove(tmp)
		return fmt.Errorf("%s: expected %d bytes, got %d: %w", spec.Name, spec.Size, written, ErrSizeMismatch)
	}

	if spec.SHA256 != "" {
		if err := verifyFileHash(tmp, spec.SHA256); err != nil {
			os.Remove(tmp)
			return err
		}
	}

	// Sole publication point: readers never observe a partial file.
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: publishing %s: %v", ErrStorageError, spec.Name, err)
	}

	return nil
}

// voiceJob is a unit of work for the voice download worker pool.
type voiceJob struct {
	// name is the voice file to fetch.
	name string

	// url is the fully computed source URL.
	url string

	// dest is the final path under the voice directory.
	dest string
}

// acquireVoices fetches the manifest's voice pack into
// targetDir/voices/<version> with a bounded worker pool. Write targets
// never overlap, and each worker publishes through the same
// temp-then-rename step, so no additional locking is needed. Failures are
// reported in the outcomes and logged, never returned.
func (d *Downloader) acquireVoices(ctx context.Context, m Manifest, targetDir string, cfg *acquireConfig) []Outcome {
	voiceDir := filepath.Join(targetDir, "voices", m.Version)
	if err := ensureDir(voiceDir); err != nil {
		if d.logger != nil {
			d.logger.Warn("skipping voice pack", "error", err)
		}
		return nil
	}

	baseURL := strings.TrimRight(m.Voices.BaseURL, "/")

	jobs := make(chan voiceJob, len(m.Voices.Files))
	results := make(chan Outcome, len(m.Voices.Files))

	var wg sync.WaitGroup
	for i := 0; i < cfg.voiceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- d.fetchVoice(ctx, job, cfg)
			}
		}()
	}

	for _, name := range m.Voices.Files {
		jobs <- voiceJob{
			name: name,
			url:  baseURL + "/" + name,
			dest: filepath.Join(voiceDir, name),
		}
	}
	close(jobs)

	wg.Wait()
	close(results)

	outcomes := make([]Outcome, 0, len(m.Voices.Files))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// fetchVoice downloads a single voice file. Voice files carry no size or
// hash metadata; satisfaction is presence alone.
func (d *Downloader) fetchVoice(ctx context.Context, job voiceJob, cfg *acquireConfig) Outcome {
	if !cfg.force {
		if _, err := os.Stat(job.dest); err == nil {
			return Outcome{Name: job.name, Kind: AlreadySatisfied, Voice: true}
		}
	}

	err := d.downloadFile(ctx, job.url, job.dest, FileSpec{Name: job.name}, cfg)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("voice download failed", "voice", job.name, "error", err)
		}
		return Outcome{Name: job.name, Kind: outcomeKindFor(err), Voice: true, Err: err}
	}

	if d.logger != nil {
		d.logger.Debug("voice downloaded", "voice", job.name)
	}
	return Outcome{Name: job.name, Kind: Downloaded, Voice: true}
}
