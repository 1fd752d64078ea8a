// Package commands implements the lsparse command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ning0612/lsparse/internal/config"
	"github.com/Ning0612/lsparse/internal/logger"
	"github.com/Ning0612/lsparse/internal/render"
	"github.com/Ning0612/lsparse/internal/service"
)

// ErrLinesFailed is returned after output was written when some lines
// of a listing could not be parsed
var ErrLinesFailed = errors.New("listing has malformed lines")

func linesFailed(n int) error {
	return fmt.Errorf("%w: %d", ErrLinesFailed, n)
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrLinesFailed):
		return 2
	default:
		return 1
	}
}

// app carries state shared by all commands of one invocation
type app struct {
	v          *viper.Viper
	configPath string

	cfg *config.Config
	svc *service.ListingService
}

// setup loads configuration and starts logging before any command runs
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(a.v, a.configPath)
	if err != nil {
		return err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Outputs[0].Writer = cmd.ErrOrStderr()
	if err := logger.Init(logCfg); err != nil {
		return err
	}

	svc, err := service.NewListingService(cfg, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.svc = svc
	logger.Get().Debug("configuration loaded", "path", a.v.ConfigFileUsed(), "snapshots", cfg.Snapshots.Dir)
	return nil
}

func (a *app) close() error {
	var err error
	if a.svc != nil {
		err = a.svc.Close()
		a.svc = nil
	}
	return errors.Join(err, logger.Shutdown())
}

func (a *app) renderer(cmd *cobra.Command) (*render.Renderer, error) {
	return render.New(cmd.OutOrStdout(), a.cfg.Output.Format)
}

// newRootCommand builds the command tree bound to a
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lsparse",
		Short: "Parse ls -lpa listings into structured entries",
		Long: `lsparse turns the output of "ls -lpa" into files and folders with
permissions, ownership, sizes and timestamps.

Listings can be read from captured files, stdin, or fetched from
configured hosts over SSH. Parsed listings can be stored as snapshots
and compared over time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: search for lsparse.yaml)")
	flags.StringP("format", "o", "", "output format: table, json, yaml")
	flags.String("dialect", "", "name quoting style of the listing: c, escape, literal")
	flags.String("mode", "", "malformed line policy: fail-fast, collect")
	flags.Bool("skip-dot", false, `drop the "." and ".." entries`)
	flags.Bool("access-marker", false, "accept a trailing '.', '+' or '@' on the mode column")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	bindings := map[string]string{
		"output.format":              "format",
		"parser.dialect":             "dialect",
		"parser.mode":                "mode",
		"parser.skip_dot_entries":    "skip-dot",
		"parser.allow_access_marker": "access-marker",
		"log.level":                  "log-level",
	}
	for key, flag := range bindings {
		// Lookup cannot fail for flags registered above
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		parseCmd(a),
		fetchCmd(a),
		snapshotCmd(a),
		diffCmd(a),
		watchCmd(a),
	)
	return root
}

// Run executes lsparse with args and releases everything it opened
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{v: config.NewViper()}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}
