// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/charmbracelet/log"
)

// copyBufferSize is the size of the buffered writer placed in front of the
// destination file.
const copyBufferSize = 256 << 10

var (
	// ErrNetwork indicates the request could not be completed or the body
	// stream broke mid-transfer.
	ErrNetwork = errors.New("network error")
	// ErrBadStatus indicates the server answered with a non-2xx status.
	ErrBadStatus = errors.New("unexpected HTTP status")
	// ErrEmptyArtifact indicates the transfer completed but produced zero bytes.
	ErrEmptyArtifact = errors.New("downloaded file is empty")
	// ErrFilesystem indicates the destination file could not be written.
	ErrFilesystem = errors.New("cannot write download destination")
)

type (
	// DownloadError describes a failed Fetch. It wraps exactly one of
	// ErrNetwork, ErrBadStatus, ErrEmptyArtifact or ErrFilesystem.
	DownloadError struct {
		URL        string
		Dest       string
		StatusCode int
		Err        error
	}

	// Fetcher downloads artifacts over HTTP(S).
	Fetcher struct {
		httpClient *http.Client
		userAgent  string
		logger     *log.Logger
	}

	// Option configures a Fetcher during construction.
	Option func(*Fetcher)

	// countingWriter counts bytes passed through to w.
	countingWriter struct {
		w io.Writer
		n int64
	}
)

// Error formats the failure with a redacted URL.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", redactURL(e.URL), e.Err)
}

// Unwrap returns the classified cause.
func (e *DownloadError) Unwrap() error { return e.Err }

// RedactedURL returns URL without its query string and fragment.
func (e *DownloadError) RedactedURL() string { return redactURL(e.URL) }

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLogger sets the logger used for transfer progress.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher. Defaults: http.DefaultClient, userAgent="rtprov/dev",
// and a logger that discards output.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		userAgent:  "rtprov/dev",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	return f
}

// Fetch downloads rawURL into dest, creating or truncating it. On any failure
// the partially written destination is removed and a *DownloadError is
// returned.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string) error {
	f.logger.Debug("download started", "url", redactURL(rawURL), "dest", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return &DownloadError{URL: rawURL, Dest: dest, Err: fmt.Errorf("%w: creating request: %w", ErrNetwork, err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return &DownloadError{URL: rawURL, Dest: dest, Err: fmt.Errorf("%w: %w", ErrNetwork, err)}
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DownloadError{
			URL:        rawURL,
			Dest:       dest,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w %d", ErrBadStatus, resp.StatusCode),
		}
	}

	n, err := writeBody(resp.Body, dest)
	if err != nil {
		_ = os.Remove(dest)
		return &DownloadError{URL: rawURL, Dest: dest, StatusCode: resp.StatusCode, Err: err}
	}
	if n == 0 {
		_ = os.Remove(dest)
		return &DownloadError{URL: rawURL, Dest: dest, StatusCode: resp.StatusCode, Err: ErrEmptyArtifact}
	}

	f.logger.Debug("download finished", "dest", dest, "bytes", n)
	return nil
}

// writeBody streams body into dest and returns the number of bytes written.
// Read errors are classified as ErrNetwork, write errors as ErrFilesystem.
func writeBody(body io.Reader, dest string) (_ int64, err error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrFilesystem, closeErr)
		}
	}()

	buf := bufio.NewWriterSize(out, copyBufferSize)
	cw := &countingWriter{w: buf}
	if _, err := io.Copy(cw, body); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return cw.n, fmt.Errorf("%w: %w", ErrFilesystem, err)
		}
		return cw.n, fmt.Errorf("%w: reading response body: %w", ErrNetwork, err)
	}
	if err := buf.Flush(); err != nil {
		return cw.n, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	return cw.n, nil
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in error messages, preventing accidental exposure of tokens or sensitive data.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
