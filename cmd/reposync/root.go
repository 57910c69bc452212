package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"

	"github.com/nodeops/reposync/internal/config"
	"github.com/nodeops/reposync/internal/gitcmd"
	"github.com/nodeops/reposync/internal/gitsync"
	"github.com/nodeops/reposync/internal/httpsync"
	"github.com/nodeops/reposync/internal/logging"
	pkgsync "github.com/nodeops/reposync/pkg/sync"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootParams struct {
	cfg        config.Sync
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	params := rootParams{
		cfg: config.Sync{
			SourceType: config.SourceTypeGit,
			Branch:     config.DefaultBranch,
			Proxy:      config.ProxyNone,
		},
	}

	cmd := &cobra.Command{
		Use:   "reposync",
		Short: "Synchronize a local path with a Git repository or a URL",
		Long: `reposync performs a single synchronization of a local path with a remote
source. In git mode it drives the installed git client: a fresh destination is
shallow-cloned, an existing checkout is pulled, and --path restricts the
working tree via sparse checkout or, with --single-file, fetches exactly one
file through the provider's raw-content URL. In url mode the source is
downloaded directly over HTTP(S).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &params)
		},
	}

	flags := cmd.Flags()
	flags.Var(enumflag.New(&params.cfg.SourceType, "source-type", config.SourceTypeIDs, enumflag.EnumCaseInsensitive),
		"source-type", "source type: git or url")
	flags.StringVar(&params.cfg.SourceURL, "source-url", "", "Git repository URL or file URL (required)")
	flags.StringVar(&params.cfg.TargetPath, "target-path", "", "destination path (required)")
	flags.StringVar(&params.cfg.Branch, "branch", config.DefaultBranch, "Git branch (git mode only)")
	flags.StringVar(&params.cfg.Path, "path", "", "restrict the sync to this file or directory (git mode only)")
	flags.BoolVar(&params.cfg.SingleFile, "single-file", false, "download --path as a single raw file instead of a sparse checkout")
	flags.Var(enumflag.New(&params.cfg.Proxy, "proxy", config.ProxyKindIDs, enumflag.EnumCaseInsensitive),
		"proxy", "proxy base: none, ghproxy, mirror or custom")
	flags.StringVar(&params.cfg.ProxyURL, "proxy-url", "", "custom proxy base (required with --proxy=custom)")
	flags.StringVar(&params.cfg.AuthToken, "auth-token", "", "token for private repositories")
	flags.StringVar(&params.cfg.HTTPProxy, "http-proxy", "", "HTTP proxy applied to git child processes, e.g. http://127.0.0.1:7890")
	flags.StringVar(&params.configFile, "config", "", "YAML file with defaults for the flags above")
	flags.StringVar(&params.logLevel, "log-level", "info", "log level: error, warn, info or debug")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reposync version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func run(cmd *cobra.Command, params *rootParams) error {
	level, err := logging.ParseLevel(params.logLevel)
	if err != nil {
		return err
	}
	log := logging.NewLogger(logging.Config{Level: level})

	cfg, err := resolveConfig(cmd.Flags(), params)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	dl := httpsync.New(cfg, log).WithProgress(isatty.IsTerminal(os.Stderr.Fd()))

	var synchronizer pkgsync.Synchronizer
	switch cfg.SourceType {
	case config.SourceTypeURL:
		synchronizer = dl
	default:
		synchronizer = gitsync.New(cfg, log, gitcmd.NewRunner(log), dl)
	}
	defer synchronizer.Close(ctx)

	if err := synchronizer.Execute(ctx); err != nil {
		return err
	}
	log.Infof("sync complete")
	return nil
}

// resolveConfig overlays command-line flags on top of the optional YAML
// defaults file: a flag explicitly set on the command line always wins.
func resolveConfig(flags *pflag.FlagSet, params *rootParams) (*config.Sync, error) {
	cfg := params.cfg
	if params.configFile == "" {
		return &cfg, nil
	}

	fileCfg, err := config.Load(params.configFile)
	if err != nil {
		return nil, err
	}

	fromFile := func(name string, apply func()) {
		if !flags.Changed(name) {
			apply()
		}
	}
	fromFile("source-type", func() { cfg.SourceType = fileCfg.SourceType })
	fromFile("source-url", func() { cfg.SourceURL = fileCfg.SourceURL })
	fromFile("target-path", func() { cfg.TargetPath = fileCfg.TargetPath })
	fromFile("branch", func() { cfg.Branch = fileCfg.Branch })
	fromFile("path", func() { cfg.Path = fileCfg.Path })
	fromFile("single-file", func() { cfg.SingleFile = fileCfg.SingleFile })
	fromFile("proxy", func() { cfg.Proxy = fileCfg.Proxy })
	fromFile("proxy-url", func() { cfg.ProxyURL = fileCfg.ProxyURL })
	fromFile("auth-token", func() { cfg.AuthToken = fileCfg.AuthToken })
	fromFile("http-proxy", func() { cfg.HTTPProxy = fileCfg.HTTPProxy })

	return &cfg, nil
}
