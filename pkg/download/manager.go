// Package download implements the concurrent, retrying, integrity-verified
// bulk downloader. Each item is probed for its remote size, streamed to a
// temporary file, and promoted to its destination only when the written byte
// count matches the probe and the file's CRC-32 matches the manifest's
// declaration.
package download

import (
	"context"
	"hash/crc32"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/schale-tools/baad/internal/logger"
	pkgerrors "github.com/schale-tools/baad/pkg/errors"
	"github.com/schale-tools/baad/pkg/fsutil"
)

const (
	// DefaultRetries is the number of attempts per item.
	DefaultRetries = 3

	copyChunkSize = 8192
)

// Manager is the HTTP download manager.
type Manager struct {
	client    *http.Client
	userAgent string
	backoff   time.Duration // base delay unit between attempts
}

// NewManager creates a new download manager with the given timeout and user agent.
func NewManager(timeout time.Duration, userAgent string) *Manager {
	if userAgent == "" {
		userAgent = "baad/1.0"
	}
	return &Manager{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		backoff:   time.Second,
	}
}

// FetchAll downloads all items with bounded concurrency and returns one
// outcome per item, in input order. Items are expected to have distinct
// destination paths; the caller guarantees no two items share one.
func (m *Manager) FetchAll(ctx context.Context, items []Item, opts Options) []Outcome {
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	workers := opts.Concurrency
	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}

	outcomes := make([]Outcome, len(items))
	tasks := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				outcomes[idx] = m.fetchOne(ctx, items[idx], opts)
			}
		}()
	}

	for i := range items {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	return outcomes
}

func (m *Manager) fetchOne(ctx context.Context, item Item, opts Options) Outcome {
	dest := filepath.Join(opts.Dir, item.Path)

	if existingValid(dest, item.CRC) {
		logger.Infof("Skipping %s, already downloaded", item.Name)
		return Outcome{Item: item, Status: StatusSkipped}
	}

	if err := fsutil.EnsureFileDir(dest); err != nil {
		return Outcome{Item: item, Status: StatusFailed, Err: pkgerrors.Wrapf(err, "could not create directory for %s", dest)}
	}

	totalSize, err := m.probeSize(ctx, item.URL)
	if err != nil {
		// Without a size the transfer cannot be verified; not worth retrying.
		logger.Errorf("Failed to get file size for %s: %v", item.URL, err)
		return Outcome{Item: item, Status: StatusFailed, Err: err}
	}

	var lastErr error
	for attempt := 0; attempt < opts.Retries; attempt++ {
		if attempt > 0 {
			if err := m.sleepBackoff(ctx, attempt); err != nil {
				return Outcome{Item: item, Status: StatusFailed, Attempts: attempt, Err: err}
			}
		}

		lastErr = m.attempt(ctx, item, dest, totalSize)
		if lastErr == nil {
			logger.Infof("Successfully downloaded %s", item.Name)
			return Outcome{Item: item, Status: StatusSucceeded, Attempts: attempt + 1}
		}
		logger.Warnf("Error downloading %s: %v", item.Name, lastErr)
	}

	logger.Errorf("Failed to download %s after %d attempts", item.Name, opts.Retries)
	return Outcome{Item: item, Status: StatusFailed, Attempts: opts.Retries, Err: lastErr}
}

// attempt performs one probe-free transfer attempt: stream into a temporary
// file, verify size and CRC, then promote it to the destination. The
// destination only ever holds fully verified content.
func (m *Manager) attempt(ctx context.Context, item Item, dest string, totalSize int64) error {
	tmp := dest + ".part"
	written, err := m.stream(ctx, item.URL, tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if written != totalSize {
		_ = os.Remove(tmp)
		return pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "short read for %s: got %d of %d bytes", item.Name, written, totalSize)
	}

	crc, err := crc32File(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if crc != item.CRC {
		_ = os.Remove(tmp)
		return pkgerrors.Wrapf(pkgerrors.ErrChecksumMismatch, "%s: got %08x, want %08x", item.Name, crc, item.CRC)
	}
	return fsutil.Move(tmp, dest)
}

func (m *Manager) probeSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.ErrSizeUnknown, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, pkgerrors.Wrapf(pkgerrors.ErrSizeUnknown, "unexpected status %d for %s", resp.StatusCode, url)
	}
	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(pkgerrors.ErrSizeUnknown, "no content length for %s", url)
	}
	return size, nil
}

func (m *Manager) stream(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.ErrDownloadFailed, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "unexpected status %d for %s", resp.StatusCode, url)
	}

	f, err := fsutil.CreateFilePerm(dest, fsutil.FileModeDefault)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "could not create %s", dest)
	}
	defer func() { _ = f.Close() }()

	written, err := io.CopyBuffer(f, resp.Body, make([]byte, copyChunkSize))
	if err != nil {
		return written, pkgerrors.Wrap(pkgerrors.ErrDownloadFailed, err.Error())
	}
	return written, nil
}

// sleepBackoff waits before retry number attempt (1-based for waits): the
// delay doubles each attempt, starting at the base unit.
func (m *Manager) sleepBackoff(ctx context.Context, attempt int) error {
	delay := m.backoff << (attempt - 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func existingValid(path string, crc uint32) bool {
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		return false
	}
	got, err := crc32File(path)
	return err == nil && got == crc
}

func crc32File(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "open for checksum: %s", path)
	}
	defer func() { _ = f.Close() }()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, pkgerrors.Wrapf(err, "hashing %s", path)
	}
	return h.Sum32(), nil
}
