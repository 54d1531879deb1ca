package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"plowdown/internal"
	"plowdown/utils"
)

// serverBusyBackoff is how long the engine sleeps before re-attempting a
// transfer rejected with 503. Variable so tests can shorten it.
var serverBusyBackoff = 120 * time.Second

// TransferEngine performs the HTTP transfer for a resolved direct URL, with
// resume, collision-avoidance naming and final placement. Transient HTTP
// failures restart the whole transfer, bounded by the link's retry budget
// rather than looping forever on a misbehaving mirror.
type TransferEngine struct {
	httpClient *utils.HTTPClient
	fileOps    *utils.FileOperations
	limiter    internal.RateLimiter
}

// NewTransferEngine creates a transfer engine. limiter may be nil for
// unlimited bandwidth.
func NewTransferEngine(client *utils.HTTPClient, limiter internal.RateLimiter) *TransferEngine {
	return &TransferEngine{
		httpClient: client,
		fileOps:    utils.NewFileOperations(),
		limiter:    limiter,
	}
}

// computeTarget resolves the temp/final path pair for a filename under the
// configured directories. TempPath equals FinalPath unless a temp directory
// is set.
func (e *TransferEngine) computeTarget(filename string, opts *internal.DownloadOptions) internal.FileTarget {
	finalPath := filename
	if opts.OutputDirectory != "" {
		finalPath = filepath.Join(opts.OutputDirectory, filename)
	}

	tempPath := finalPath
	if opts.TempDirectory != "" {
		tempPath = filepath.Join(opts.TempDirectory, filename)
	}

	return internal.FileTarget{TempPath: tempPath, FinalPath: finalPath}
}

// Transfer downloads the resolved direct URL and returns the final local
// path. All failures come back as typed HosterErrors for the classifier.
func (e *TransferEngine) Transfer(ctx context.Context, lc *internal.LinkContext, outcome *internal.ResolveOutcome, jar *CookieJar) (string, *internal.HosterError) {
	opts := lc.Options

	filename := outcome.SuggestedFilename
	if filename == "" {
		filename = utils.FilenameFromURL(outcome.DirectURL)
	}
	filename = utils.TruncateFilename(filename)

	target := e.computeTarget(filename, opts)

	// Collision avoidance: pick a .N suffixed destination rather than
	// clobbering an existing file. When temp and final coincide the
	// transfer writes directly to the disambiguated name.
	if opts.NoOverwrite && e.fileOps.FileExists(target.FinalPath) {
		alt := e.fileOps.CreateAlternateName(target.FinalPath)
		if target.TempPath == target.FinalPath {
			target.TempPath = alt
		}
		target.FinalPath = alt
	}

	resumeEnabled := lc.Capabilities.SupportsResume && !opts.Overwrite

	var cookieHeader string
	if lc.Capabilities.NeedsCookieOnFinalRequest && jar != nil {
		header, err := jar.HeaderValue(utils.HostOf(outcome.DirectURL))
		if err != nil {
			return "", internal.NewSystemError(fmt.Sprintf("failed to read cookie jar: %v", err))
		}
		cookieHeader = header
	}

	restarts := 0
	for {
		finalPath, herr := e.attemptTransfer(ctx, outcome.DirectURL, target, resumeEnabled, cookieHeader, opts)
		if herr == nil {
			return finalPath, nil
		}
		if !herr.IsRetryable() {
			return "", herr
		}
		internal.LogHosterError(herr)

		// Restarts share the link's retry budget. A cap of 0 means a
		// single attempt; a negative cap restarts without limit.
		restarts++
		if opts.MaxRetries >= 0 && restarts > opts.MaxRetries {
			return "", internal.NewHosterError(internal.KindMaxTriesReached,
				"transfer retry budget exhausted").WithURL(outcome.DirectURL).
				WithContext("restarts", restarts-1)
		}

		if herr.HTTPStatus == http.StatusServiceUnavailable {
			internal.LogInfo("server busy (503), waiting %s before restarting transfer", serverBusyBackoff)
			select {
			case <-time.After(serverBusyBackoff):
			case <-ctx.Done():
				return "", internal.NewHosterError(internal.KindMaxWaitReached,
					"wait budget exceeded during server-busy backoff")
			}
		}
	}
}

// attemptTransfer runs one full pass of the transfer: request, body copy,
// final placement. Retryable verdicts come back as TemporarilyUnavailable
// HosterErrors carrying the HTTP status so the restart loop can apply the
// 503 backoff.
func (e *TransferEngine) attemptTransfer(ctx context.Context, directURL string, target internal.FileTarget, resumeEnabled bool, cookieHeader string, opts *internal.DownloadOptions) (string, *internal.HosterError) {
	headers := make(map[string]string)
	if cookieHeader != "" {
		headers["Cookie"] = cookieHeader
	}

	var resumeOffset int64
	if resumeEnabled {
		if size, err := e.fileOps.GetFileSize(target.TempPath); err == nil && size > 0 {
			resumeOffset = size
			headers["Range"] = fmt.Sprintf("bytes=%d-", resumeOffset)
		}
	}

	resp, err := e.httpClient.GetWithContext(ctx, directURL, headers)
	if err != nil {
		if ctx.Err() != nil {
			return "", internal.NewHosterError(internal.KindMaxWaitReached, "transfer cancelled")
		}
		return "", internal.NewNetworkError(fmt.Sprintf("transfer request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		if resumeEnabled {
			// The hoster refused the range because the file is already
			// complete from a previous run. Nothing left to transfer.
			internal.LogInfo("file already fully retrieved: %s", target.TempPath)
			return e.place(target)
		}
		// Without resume support the partial temp file is garbage.
		if err := os.Remove(target.TempPath); err != nil && !os.IsNotExist(err) {
			return "", internal.NewSystemError(fmt.Sprintf("failed to remove partial file: %v", err))
		}
		return "", internal.NewTempUnavailableError(directURL, 0).
			WithHTTPStatus(resp.StatusCode).
			WithContext("reason", "range not satisfiable, restarting from scratch")

	case resp.StatusCode == http.StatusServiceUnavailable:
		return "", internal.NewTempUnavailableError(directURL, 0).
			WithHTTPStatus(resp.StatusCode).
			WithContext("reason", "server busy")

	case resp.StatusCode/100 != 2:
		return "", internal.NewTempUnavailableError(directURL, 0).
			WithHTTPStatus(resp.StatusCode).
			WithContext("reason", "non-2xx status")
	}

	// A 200 answer to a ranged request restarts the body from byte zero.
	if resp.StatusCode == http.StatusOK {
		resumeOffset = 0
	}

	if err := e.writeBody(ctx, resp, target.TempPath, resumeOffset, opts.Quiet); err != nil {
		if ctx.Err() != nil {
			return "", internal.NewHosterError(internal.KindMaxWaitReached, "transfer cancelled")
		}
		if resumeEnabled {
			// Interrupted mid-body: a true retry of the byte transfer,
			// picked up from the current temp file size.
			internal.LogWarn("transfer interrupted (%v), will resume", err)
			return "", internal.NewTempUnavailableError(directURL, 0).
				WithContext("reason", "partial content, resuming")
		}
		return "", internal.NewNetworkError(fmt.Sprintf("transfer failed: %v", err), resp.StatusCode)
	}

	return e.place(target)
}

// writeBody streams the response body into the temp file, honoring the
// global rate limit and rendering progress.
func (e *TransferEngine) writeBody(ctx context.Context, resp *http.Response, tempPath string, offset int64, quiet bool) error {
	if err := e.fileOps.EnsureDir(tempPath); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(tempPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	defer file.Close()

	total := int64(0)
	if resp.ContentLength > 0 {
		total = offset + resp.ContentLength
	}
	tracker := utils.NewProgressTracker(total, quiet)
	tracker.Update(offset)
	defer tracker.Finish()

	buffer := make([]byte, 32*1024)
	written := offset
	for {
		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			if e.limiter != nil {
				if err := e.limiter.Wait(ctx, n); err != nil {
					return fmt.Errorf("rate limiting error: %w", err)
				}
			}

			w, writeErr := file.Write(buffer[:n])
			written += int64(w)
			tracker.Update(written)
			if writeErr != nil {
				return writeErr
			}
			if w != n {
				return fmt.Errorf("short write: wrote %d, expected %d", w, n)
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return readErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	// A known content length that doesn't line up means the body was cut
	// short even though the connection closed cleanly.
	if resp.ContentLength > 0 && written-offset != resp.ContentLength {
		return fmt.Errorf("incomplete body: got %d of %d bytes", written-offset, resp.ContentLength)
	}

	return nil
}

// place moves the temp file into its final location when the two differ and
// returns the final path.
func (e *TransferEngine) place(target internal.FileTarget) (string, *internal.HosterError) {
	if target.TempPath != target.FinalPath {
		if err := e.fileOps.EnsureDir(target.FinalPath); err != nil {
			return "", internal.NewSystemError(fmt.Sprintf("failed to create output directory: %v", err))
		}
		if err := e.fileOps.AtomicRename(target.TempPath, target.FinalPath); err != nil {
			return "", internal.NewSystemError(fmt.Sprintf("failed to move file into place: %v", err))
		}
	}
	return target.FinalPath, nil
}
