package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/internal/config"
	"github.com/vango-dev/loom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code. A
// failure is written to stderr in the configured log format.
func run(args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		errors.Print(stderr, err, errors.OutputFor(opts.errorFormat()))
		return 1
	}
	return 0
}

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	logFormat  string

	// resolved is log.format once a configuration loaded.
	resolved string
}

func (o *options) errorFormat() string {
	if o.resolved != "" {
		return o.resolved
	}
	return o.logFormat
}

func newRootCmd(opts *options) *cobra.Command {

	rootCmd := &cobra.Command{
		Use:   "loom",
		Short: "Drive and inspect the loom rendering scheduler",
		Long: `Loom is a concurrent rendering scheduler for component trees.

This tool runs built-in scenarios against an in-memory document,
benchmarks the scheduler and serves a live inspector:

  • simulate   run a scenario and print its commit profile
  • bench      render a fan-out tree under repeated updates
  • inspect    serve snapshots, metrics and events over HTTP
  • profiles   list and show stored commit profiles`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to loom.toml (default: ./loom.toml if present)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Override log.format (text, json)")

	rootCmd.AddCommand(
		simulateCmd(opts),
		benchCmd(opts),
		inspectCmd(opts),
		profilesCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// env is the loaded configuration of one command invocation.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func (o *options) load(cmd *cobra.Command) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o.resolved = cfg.Log.Format

	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}, nil
}
