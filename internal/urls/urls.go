// Package urls computes the literal transfer URLs a sync run will fetch:
// raw-file URL derivation for known Git hosting providers, raw-URL detection,
// proxy-base rewriting, and the git-vs-download routing decision.
package urls

import (
	"path"
	"strings"

	"github.com/nodeops/reposync/internal/config"
)

// provider pairs a hosting-provider predicate with its raw-URL template.
// The table is evaluated in order, first match wins, and the trailing entry
// matches everything. Adding a provider is one new entry, not a new branch.
type provider struct {
	name  string
	match func(url string) bool
	raw   func(base, branch, filePath string) string
}

var providers = []provider{
	{
		name:  "github",
		match: func(u string) bool { return strings.Contains(u, "github.com") },
		raw: func(base, branch, filePath string) string {
			base = strings.Replace(base, "github.com", "raw.githubusercontent.com", 1)
			return base + "/" + branch + "/" + filePath
		},
	},
	{
		name:  "gitlab",
		match: func(u string) bool { return strings.Contains(u, "gitlab.com") },
		raw: func(base, branch, filePath string) string {
			return base + "/-/raw/" + branch + "/" + filePath
		},
	},
	{
		name:  "gitee",
		match: func(u string) bool { return strings.Contains(u, "gitee.com") },
		raw: func(base, branch, filePath string) string {
			return base + "/raw/" + branch + "/" + filePath
		},
	},
	{
		// Unknown hosts get the generic /raw/ form as a best effort.
		name:  "generic",
		match: func(string) bool { return true },
		raw: func(base, branch, filePath string) string {
			return base + "/raw/" + branch + "/" + filePath
		},
	},
}

// rawMarkers identify URLs that already serve file content directly.
var rawMarkers = []string{
	"raw.githubusercontent.com",
	"/raw/",
	"/-/raw/",
	"/blob/",
}

// RawFileURL derives the raw-content URL for one file of a hosted repository.
// A trailing "/" and ".git" suffix on the source URL are stripped before the
// provider template is applied.
func RawFileURL(sourceURL, branch, filePath string) string {
	base := trimRepoSuffix(sourceURL)
	for _, p := range providers {
		if p.match(sourceURL) {
			return p.raw(base, branch, filePath)
		}
	}
	return base // unreachable, the table ends with a catch-all
}

// IsRawFileURL reports whether the URL already points at file content rather
// than a repository.
func IsRawFileURL(url string) bool {
	for _, marker := range rawMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// ApplyProxy prepends the resolved proxy base to the URL. The result is the
// exact concatenation base + url; no separator is inserted beyond the slash
// the base carries. URLs not starting with "http" are returned unchanged, as
// is everything when no base resolves.
func ApplyProxy(url string, kind config.ProxyKind, custom string) string {
	var base string
	switch kind {
	case config.ProxyGHProxy:
		base = "https://gh-proxy.com/"
	case config.ProxyMirror:
		base = "https://mirror.ghproxy.com/"
	case config.ProxyCustom:
		if custom != "" {
			base = strings.TrimRight(custom, "/") + "/"
		}
	}
	if base != "" && strings.HasPrefix(url, "http") {
		return base + url
	}
	return url
}

// RepoName extracts the repository name from a Git URL: the last path segment
// with trailing "/" and ".git" stripped.
func RepoName(url string) string {
	return path.Base(trimRepoSuffix(url))
}

// SpliceToken embeds a token as basic-auth-style credentials directly after
// the scheme. Only https URLs are touched.
func SpliceToken(url, token string) string {
	if token == "" || !strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + token + "@" + strings.TrimPrefix(url, "https://")
}

// RouteKind tags the transfer decision for a git-mode source URL.
type RouteKind int

const (
	// RouteGit means the source is a repository and the git client handles it.
	RouteGit RouteKind = iota
	// RouteDownload means the source already is a raw file URL and is fetched
	// directly, without invoking the git client.
	RouteDownload
)

// Route is the resolver's routing decision. URL is set for RouteDownload.
type Route struct {
	Kind RouteKind
	URL  string
}

// Decide returns the routing decision for a git-mode source URL. Callers and
// tests can assert on it independently of execution.
func Decide(sourceURL string) Route {
	if IsRawFileURL(sourceURL) {
		return Route{Kind: RouteDownload, URL: sourceURL}
	}
	return Route{Kind: RouteGit}
}

func trimRepoSuffix(url string) string {
	return strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
}
