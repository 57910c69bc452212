package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/thediveo/enumflag/v2"
)

// Internal configuration data structures for reposync. A Sync describes one
// invocation; nothing here persists beyond the process.

// DefaultBranch is used when no branch is given in git mode.
const DefaultBranch = "main"

// SourceType selects which synchronizer handles the request.
type SourceType enumflag.Flag

const (
	SourceTypeGit SourceType = iota
	SourceTypeURL
)

// SourceTypeIDs maps source types to their flag/config spellings.
var SourceTypeIDs = map[SourceType][]string{
	SourceTypeGit: {"git"},
	SourceTypeURL: {"url"},
}

func (t SourceType) String() string {
	if ids, ok := SourceTypeIDs[t]; ok {
		return ids[0]
	}
	return fmt.Sprintf("SourceType(%d)", t)
}

// UnmarshalYAML lets a defaults file spell the source type the same way the
// --source-type flag does.
func (t *SourceType) UnmarshalYAML(bs []byte) error {
	var s string
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return err
	}
	for id, names := range SourceTypeIDs {
		for _, name := range names {
			if name == s {
				*t = id
				return nil
			}
		}
	}
	return fmt.Errorf("invalid source type %q", s)
}

// ProxyKind selects the proxy base prepended to transfer URLs.
type ProxyKind enumflag.Flag

const (
	ProxyNone ProxyKind = iota
	ProxyGHProxy
	ProxyMirror
	ProxyCustom
)

// ProxyKindIDs maps proxy kinds to their flag/config spellings.
var ProxyKindIDs = map[ProxyKind][]string{
	ProxyNone:    {"none"},
	ProxyGHProxy: {"ghproxy"},
	ProxyMirror:  {"mirror"},
	ProxyCustom:  {"custom"},
}

func (k ProxyKind) String() string {
	if ids, ok := ProxyKindIDs[k]; ok {
		return ids[0]
	}
	return fmt.Sprintf("ProxyKind(%d)", k)
}

func (k *ProxyKind) UnmarshalYAML(bs []byte) error {
	var s string
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return err
	}
	for id, names := range ProxyKindIDs {
		for _, name := range names {
			if name == s {
				*k = id
				return nil
			}
		}
	}
	return fmt.Errorf("invalid proxy kind %q", s)
}

// Sync describes a single synchronization request. Field semantics follow the
// flag table: SingleFile only matters in git mode with Path set, ProxyURL only
// with Proxy=custom, and HTTPProxy only affects git child processes.
type Sync struct {
	SourceType SourceType `json:"source_type"`
	SourceURL  string     `json:"source_url"`
	TargetPath string     `json:"target_path"`
	Branch     string     `json:"branch"`
	Path       string     `json:"path,omitempty"`
	SingleFile bool       `json:"single_file,omitempty"`
	Proxy      ProxyKind  `json:"proxy"`
	ProxyURL   string     `json:"proxy_url,omitempty"`
	AuthToken  string     `json:"auth_token,omitempty"`
	HTTPProxy  string     `json:"http_proxy,omitempty"`
}

// Load reads a YAML defaults file. Flag values set on the command line take
// precedence over what the file carries.
func Load(path string) (*Sync, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Sync
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the request and fills in the branch default. It runs before
// any child process or network activity.
func (s *Sync) Validate() error {
	if s.SourceURL == "" {
		return errors.New("source-url is required")
	}
	if s.TargetPath == "" {
		return errors.New("target-path is required")
	}
	if s.Proxy == ProxyCustom && s.ProxyURL == "" {
		return errors.New("proxy-url is required when proxy=custom")
	}
	if s.Branch == "" {
		s.Branch = DefaultBranch
	}
	return nil
}
