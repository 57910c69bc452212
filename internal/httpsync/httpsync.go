// Package httpsync downloads a single resource over HTTP(S) and writes it
// verbatim to disk. It serves both the url source type and the single-file
// git mode, which fetches one file through a derived raw-content URL.
package httpsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/nodeops/reposync/internal/config"
	"github.com/nodeops/reposync/internal/logging"
	"github.com/nodeops/reposync/internal/urls"
)

const (
	userAgent        = "Mozilla/5.0 (compatible; reposync)"
	requestTimeout   = 300 * time.Second
	fallbackFilename = "downloaded_file"
)

// Downloader implements the url source type. It issues exactly one blocking
// GET per run; nothing is retried.
type Downloader struct {
	cfg      *config.Sync
	log      *logging.Logger
	client   *http.Client
	progress bool
}

// New creates a Downloader for the request. The HTTP client carries the fixed
// 300 second timeout.
func New(cfg *config.Sync, log *logging.Logger) *Downloader {
	return &Downloader{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// WithProgress enables a byte progress bar on stderr. Callers should only
// turn this on when stderr is a terminal.
func (d *Downloader) WithProgress(enabled bool) *Downloader {
	d.progress = enabled
	return d
}

// WithClient overrides the HTTP client, used by tests.
func (d *Downloader) WithClient(client *http.Client) *Downloader {
	d.client = client
	return d
}

// Execute downloads the source URL to the target path. A target that is an
// existing directory or ends with a path separator gets the URL's basename
// (query string stripped) appended, falling back to a fixed name when the URL
// carries none.
func (d *Downloader) Execute(ctx context.Context) error {
	downloadURL := urls.ApplyProxy(d.cfg.SourceURL, d.cfg.Proxy, d.cfg.ProxyURL)
	d.log.Infof("download url: %s", downloadURL)

	dest := d.cfg.TargetPath
	if isDirTarget(dest) {
		dest = filepath.Join(dest, FileName(d.cfg.SourceURL))
		d.log.Infof("target file: %s", dest)
	}

	return d.fetch(ctx, downloadURL, dest)
}

// Close implements the Synchronizer interface; there are no resources to
// release.
func (*Downloader) Close(context.Context) {}

// DownloadTo fetches url to the literal destination path, no filename
// inference. Single-file git mode comes through here with a derived raw URL.
func (d *Downloader) DownloadTo(ctx context.Context, url, dest string) error {
	d.log.Infof("download url: %s", url)
	return d.fetch(ctx, url, dest)
}

func (d *Downloader) fetch(ctx context.Context, url, dest string) error {
	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	if d.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "token "+d.cfg.AuthToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("download failed, HTTP status code: %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var bar *progressbar.ProgressBar
	if d.progress {
		bar = progressbar.DefaultBytes(resp.ContentLength, "downloading")
		w = io.MultiWriter(f, bar)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	d.log.Infof("target path: %s", dest)
	d.log.Infof("file size: %d bytes", n)
	return nil
}

// FileName derives the destination filename from a source URL: the basename
// with any query string stripped, or a fixed fallback when that is empty.
func FileName(sourceURL string) string {
	trimmed, _, _ := strings.Cut(sourceURL, "?")
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if name == "" {
		name = fallbackFilename
	}
	return name
}

func isDirTarget(dest string) bool {
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return true
	}
	return strings.HasSuffix(dest, "/") || strings.HasSuffix(dest, string(os.PathSeparator))
}
