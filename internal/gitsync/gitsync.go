// Package gitsync reconciles a local path with a Git repository by driving
// the external git client: clone for a fresh destination, pull for an
// existing checkout, sparse checkout for a subpath, and a direct raw-file
// download when the source turns out not to need git at all. The synchronizer
// is not thread-safe; a run issues at most one operation at a time.
package gitsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nodeops/reposync/internal/config"
	"github.com/nodeops/reposync/internal/logging"
	"github.com/nodeops/reposync/internal/urls"
)

// Runner abstracts the git child-process invocation so tests can capture
// argument vectors without a git binary.
type Runner interface {
	Run(ctx context.Context, dir string, env map[string]string, args ...string) error
}

// FileDownloader is the slice of the HTTP downloader the git synchronizer
// delegates to: full url-mode execution for raw-URL sources, and a literal
// single-file fetch for single-file mode.
type FileDownloader interface {
	Execute(ctx context.Context) error
	DownloadTo(ctx context.Context, url, dest string) error
}

// Synchronizer reconciles the destination with a Git source.
type Synchronizer struct {
	cfg *config.Sync
	log *logging.Logger
	git Runner
	dl  FileDownloader
}

// New creates a Synchronizer. The destination is not validated here; Execute
// decides between clone and pull based on what it finds on disk.
func New(cfg *config.Sync, log *logging.Logger, git Runner, dl FileDownloader) *Synchronizer {
	return &Synchronizer{cfg: cfg, log: log, git: git, dl: dl}
}

// Execute performs the synchronization. Any git command exiting non-zero is
// fatal and carries the child's exit code, with one exception: the
// best-effort branch switch before a pull.
func (s *Synchronizer) Execute(ctx context.Context) error {
	if route := urls.Decide(s.cfg.SourceURL); route.Kind == urls.RouteDownload {
		s.log.Infof("raw file URL detected, switching to direct download mode")
		return s.dl.Execute(ctx)
	}

	if s.cfg.Path != "" && s.cfg.SingleFile {
		return s.syncSingleFile(ctx)
	}

	// The proxy environment is scoped to git child processes; the current
	// process environment is never touched.
	var env map[string]string
	if s.cfg.HTTPProxy != "" {
		env = map[string]string{
			"http_proxy":  s.cfg.HTTPProxy,
			"https_proxy": s.cfg.HTTPProxy,
		}
	}

	repoURL := urls.ApplyProxy(s.cfg.SourceURL, s.cfg.Proxy, s.cfg.ProxyURL)
	repoURL = urls.SpliceToken(repoURL, s.cfg.AuthToken)

	dest := s.cfg.TargetPath
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		if _, err := os.Stat(filepath.Join(dest, ".git")); os.IsNotExist(err) {
			// An existing plain directory is treated as the parent; the
			// repository gets its own subdirectory.
			dest = filepath.Join(dest, urls.RepoName(s.cfg.SourceURL))
			s.log.Infof("destination extended with repository name: %s", dest)
		}
	}

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		return s.pull(ctx, dest, env)
	}
	return s.clone(ctx, repoURL, dest, env)
}

// Close implements the Synchronizer interface; there are no resources to
// release.
func (*Synchronizer) Close(context.Context) {}

func (s *Synchronizer) syncSingleFile(ctx context.Context) error {
	rawURL := urls.RawFileURL(s.cfg.SourceURL, s.cfg.Branch, s.cfg.Path)
	rawURL = urls.ApplyProxy(rawURL, s.cfg.Proxy, s.cfg.ProxyURL)
	s.log.Infof("single file mode: %s", s.cfg.Path)
	return s.dl.DownloadTo(ctx, rawURL, s.cfg.TargetPath)
}

func (s *Synchronizer) pull(ctx context.Context, dest string, env map[string]string) error {
	s.log.Infof("existing checkout detected at %s, pulling", dest)

	// Best effort: the checkout may fail on a dirty tree or an unknown
	// branch, and the pull still decides the outcome on its own.
	if err := s.git.Run(ctx, dest, env, "checkout", s.cfg.Branch); err != nil {
		s.log.Warnf("branch switch to %q failed (continuing): %v", s.cfg.Branch, err)
	}

	return s.git.Run(ctx, dest, env, "pull")
}

func (s *Synchronizer) clone(ctx context.Context, repoURL, dest string, env map[string]string) error {
	s.log.Infof("no checkout at %s, cloning", dest)

	if parent := filepath.Dir(dest); parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return err
		}
	}

	if entries, err := os.ReadDir(dest); err == nil && len(entries) > 0 {
		return fmt.Errorf("destination %q exists and is not empty, refusing to clone (clear it or choose a new directory)", dest)
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}

	if s.cfg.Path != "" {
		// Sparse checkout: defer materialization until the cone is set.
		if err := s.git.Run(ctx, "", env, "clone", "--depth", "1", "--filter=blob:none", "--no-checkout", "-b", s.cfg.Branch, repoURL, dest); err != nil {
			return err
		}
		if err := s.git.Run(ctx, dest, env, "sparse-checkout", "init", "--cone"); err != nil {
			return err
		}
		if err := s.git.Run(ctx, dest, env, "sparse-checkout", "set", s.cfg.Path); err != nil {
			return err
		}
		return s.git.Run(ctx, dest, env, "checkout")
	}

	return s.git.Run(ctx, "", env, "clone", "--depth", "1", "-b", s.cfg.Branch, repoURL, dest)
}
