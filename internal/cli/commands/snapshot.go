package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/lsparse/internal/service"
	"github.com/Ning0612/lsparse/internal/source/local"
)

func snapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and inspect parsed listings",
		Long: `Snapshots keep parsed listings in a local database so later
listings of the same directory can be compared against them.`,
	}

	cmd.AddCommand(
		snapshotSaveCmd(a),
		snapshotListCmd(a),
		snapshotPruneCmd(a),
	)
	return cmd
}

// targetFlags selects the listing a snapshot or diff command reads
type targetFlags struct {
	host       string
	remoteFile bool
	dir        string
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.host, "host", "", "configured host to list the target directory on")
	cmd.Flags().BoolVar(&t.remoteFile, "file", false, "with --host, read a captured listing file over SFTP")
	cmd.Flags().StringVar(&t.dir, "dir", "", "directory recorded on entries")
}

// request turns the optional target argument into a parse request
func (t *targetFlags) request(args []string) (service.Request, error) {
	req := service.Request{
		Host:       t.host,
		Target:     local.Stdin,
		RemoteFile: t.remoteFile,
		Dir:        t.dir,
	}
	if len(args) > 0 {
		req.Target = args[0]
	}

	if t.host == service.LocalHost {
		if t.remoteFile {
			return req, fmt.Errorf("--file requires --host")
		}
	} else if len(args) == 0 {
		return req, fmt.Errorf("a remote directory or file is required with --host")
	}
	return req, nil
}

func snapshotSaveCmd(a *app) *cobra.Command {
	var target targetFlags

	cmd := &cobra.Command{
		Use:   "save <label> [file|-|dir]",
		Short: "Parse a listing and store it under a label",
		Example: `  ls -lpa | lsparse snapshot save home --dir "$HOME"
  lsparse snapshot save www --host web /var/www`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := target.request(args[1:])
			if err != nil {
				return err
			}

			res, err := a.svc.Parse(cmd.Context(), req)
			if err != nil {
				return err
			}
			id, err := a.svc.Save(cmd.Context(), args[0], res)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved snapshot %d of %s (%d entries)\n", id, args[0], len(res.Entries))
			if res.Failed() {
				return linesFailed(len(res.Errors))
			}
			return nil
		},
	}

	target.register(cmd)
	return cmd
}

func snapshotListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list [label]",
		Aliases: []string{"ls"},
		Short:   "List stored snapshots, newest first",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 1 {
				label = args[0]
			}

			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}
			snaps, err := a.svc.Snapshots(cmd.Context(), label, limit)
			if err != nil {
				return err
			}
			return r.Snapshots(snaps)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of snapshots to show")
	return cmd
}

func snapshotPruneCmd(a *app) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune <label>",
		Short: "Delete all but the newest snapshots of a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := a.svc.Prune(cmd.Context(), args[0], keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshots of %s\n", deleted, args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 5, "number of snapshots to keep")
	return cmd
}
