package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"lecturesync/internal/config"
	"lecturesync/internal/logging"
	"lecturesync/internal/services"
	"lecturesync/internal/textutil"
)

// Extensions lists local video extensions in lookup order.
var Extensions = []string{".mp4", ".m4v", ".mkv"}

const (
	downloadExt = ".mp4"
	partialExt  = ".part"
)

// Options configures resolution and download.
type Options struct {
	VideosDir       string
	Enabled         bool
	URLTemplate     string
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	Timeout         time.Duration
	VerifyIntegrity bool
}

// OptionsFromConfig maps [paths] and [download].
func OptionsFromConfig(cfg *config.Config) Options {
	dl := cfg.Download
	return Options{
		VideosDir:       cfg.Paths.VideosDir,
		Enabled:         dl.Enabled,
		URLTemplate:     dl.URLTemplate,
		MaxAttempts:     dl.MaxAttempts,
		InitialBackoff:  time.Duration(dl.InitialBackoffSeconds) * time.Second,
		MaxBackoff:      time.Duration(dl.MaxBackoffSeconds) * time.Second,
		Timeout:         time.Duration(dl.TimeoutSeconds) * time.Second,
		VerifyIntegrity: dl.VerifyIntegrity,
	}
}

// Prober reports frame counts for the integrity check.
type Prober interface {
	// ExpectedFrames reads the frame count from container metadata.
	ExpectedFrames(ctx context.Context, path string) (int64, error)
	// DecodedFrames decodes the whole file and counts frames.
	DecodedFrames(ctx context.Context, path string) (int64, error)
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// Fetcher resolves clips to local files.
type Fetcher struct {
	opts   Options
	prober Prober
	client *http.Client
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger
}

// New builds a fetcher. prober may be nil when integrity checks are off.
func New(opts Options, prober Prober, logger *slog.Logger, options ...Option) *Fetcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	f := &Fetcher{
		opts:   opts,
		prober: prober,
		client: newHTTPClient(opts.Timeout),
		sleep:  services.SleepWithContext,
		logger: logging.NewComponentLogger(logger, "fetch"),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// newHTTPClient bounds connection setup and the wait for response headers by
// timeout. The body has no overall deadline since a lecture video can take
// far longer than timeout to stream; fetchOnce aborts stalled bodies instead.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
		transport.DialContext = dialer.DialContext
		transport.TLSHandshakeTimeout = timeout
		transport.ResponseHeaderTimeout = timeout
	}
	return &http.Client{Transport: transport}
}

// LocalPath returns an existing local video for clipID.
func (f *Fetcher) LocalPath(clipID string) (string, bool) {
	base := filepath.Join(f.opts.VideosDir, textutil.SanitizeFileName(clipID))
	for _, ext := range Extensions {
		path := base + ext
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
			return path, true
		}
	}
	return "", false
}

// Resolve returns a local, verified video for clipID, downloading it when
// needed and allowed.
func (f *Fetcher) Resolve(ctx context.Context, clipID string) (string, error) {
	if path, ok := f.LocalPath(clipID); ok {
		return path, nil
	}
	if !f.opts.Enabled || strings.TrimSpace(f.opts.URLTemplate) == "" {
		return "", services.Wrap(services.ErrDownload, "fetch", "resolve", "no local video for clip "+clipID+" and downloads are disabled", nil)
	}

	logger := logging.WithContext(services.WithClip(ctx, clipID), f.logger)
	target := filepath.Join(f.opts.VideosDir, textutil.SanitizeFileName(clipID)+downloadExt)
	if err := f.download(ctx, logger, f.URL(clipID), target); err != nil {
		return "", err
	}
	if f.opts.VerifyIntegrity {
		if err := f.Verify(ctx, target); err != nil {
			if rmErr := os.Remove(target); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				logger.Warn("failed to remove corrupted download", logging.Error(rmErr))
			}
			return "", err
		}
	}
	return target, nil
}

// URL expands the template's {clip_id} placeholder.
func (f *Fetcher) URL(clipID string) string {
	return strings.ReplaceAll(f.opts.URLTemplate, "{clip_id}", clipID)
}

// Verify compares decoded and advertised frame counts.
func (f *Fetcher) Verify(ctx context.Context, path string) error {
	if f.prober == nil {
		return nil
	}
	expected, err := f.prober.ExpectedFrames(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrDecode, "fetch", "probe", path, err)
	}
	decoded, err := f.prober.DecodedFrames(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrDecode, "fetch", "decode", path, err)
	}
	if decoded < expected {
		return services.Wrap(services.ErrIntegrity, "fetch", "verify",
			fmt.Sprintf("%s decoded %d of %d frames", path, decoded, expected), nil)
	}
	return nil
}

type statusError struct {
	StatusCode int
}

func (e *statusError) Error() string {
	return "unexpected HTTP status " + strconv.Itoa(e.StatusCode)
}

var errStalled = errors.New("download stalled")

func (f *Fetcher) download(ctx context.Context, logger *slog.Logger, url, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create videos dir: %w", err)
	}
	partial := target + partialExt
	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		err := f.fetchOnce(ctx, url, partial)
		if err == nil {
			if err := os.Rename(partial, target); err != nil {
				return fmt.Errorf("finalize download: %w", err)
			}
			logger.Info("video downloaded",
				logging.String("path", target),
				logging.Int("attempts", attempt),
				logging.String(logging.FieldEventType, "download_complete"),
			)
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) || attempt == f.opts.MaxAttempts {
			break
		}
		delay := f.backoffDelay(attempt)
		logger.Info("download attempt failed; retrying",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := f.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return services.Wrap(services.ErrDownload, "fetch", "download", url, lastErr)
}

// fetchOnce appends the remaining bytes of url to partial.
func (f *Fetcher) fetchOnce(ctx context.Context, url, partial string) error {
	var offset int64
	if info, err := os.Stat(partial); err == nil {
		offset = info.Size()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
		flags |= os.O_APPEND
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0:
		// partial already holds the whole file
		return nil
	case resp.StatusCode == http.StatusOK:
		flags |= os.O_TRUNC
	default:
		return &statusError{StatusCode: resp.StatusCode}
	}

	file, err := os.OpenFile(partial, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open partial download: %w", err)
	}
	body := io.Reader(resp.Body)
	var watchdog *idleWatchdog
	if f.opts.Timeout > 0 {
		watchdog = newIdleWatchdog(resp.Body, f.opts.Timeout, cancel)
		defer watchdog.stop()
		body = watchdog
	}
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr != nil && watchdog != nil && watchdog.fired() && ctx.Err() == nil {
		return fmt.Errorf("no data for %s after %d bytes: %w", f.opts.Timeout, written, errStalled)
	}
	if copyErr != nil {
		return fmt.Errorf("copy body after %d bytes: %w", written, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close partial download: %w", closeErr)
	}
	if resp.ContentLength >= 0 && written < resp.ContentLength {
		return fmt.Errorf("short body: %d of %d bytes: %w", written, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	return nil
}

// idleWatchdog cancels the request when the body yields no bytes for idle.
type idleWatchdog struct {
	r       io.Reader
	idle    time.Duration
	timer   *time.Timer
	tripped atomic.Bool
}

func newIdleWatchdog(r io.Reader, idle time.Duration, cancel context.CancelFunc) *idleWatchdog {
	w := &idleWatchdog{r: r, idle: idle}
	w.timer = time.AfterFunc(idle, func() {
		w.tripped.Store(true)
		cancel()
	})
	return w
}

func (w *idleWatchdog) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	if n > 0 {
		w.timer.Reset(w.idle)
	}
	return n, err
}

func (w *idleWatchdog) fired() bool { return w.tripped.Load() }

func (w *idleWatchdog) stop() { w.timer.Stop() }

func retryable(err error) bool {
	if errors.Is(err, errStalled) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// backoffDelay doubles from InitialBackoff per attempt, capped at MaxBackoff.
func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	delay := f.opts.InitialBackoff
	if delay <= 0 {
		return 0
	}
	maxDelay := f.opts.MaxBackoff
	for i := 1; i < attempt; i++ {
		if maxDelay > 0 && delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}
