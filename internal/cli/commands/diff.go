package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Ning0612/lsparse/internal/core/diff"
	"github.com/Ning0612/lsparse/internal/service"
)

func diffCmd(a *app) *cobra.Command {
	var (
		against   string
		snapshots bool
		target    targetFlags
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two listings",
		Long: `Compare two captured listings and report added, removed and
modified entries.

With --against the listing given as the only argument (or stdin) is
compared with the newest snapshot of a label. With --snapshots both
arguments are snapshot ids.`,
		Example: `  lsparse diff before.txt after.txt
  lsparse diff --against www --host web /var/www
  lsparse diff --snapshots 3 7`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}

			var (
				changes []diff.Change
				failed  int
			)
			switch {
			case snapshots:
				changes, err = diffSnapshots(cmd, a, args)
			case against != "":
				changes, failed, err = diffAgainst(cmd, a, against, &target, args)
			default:
				changes, failed, err = diffFiles(cmd, a, args)
			}
			if err != nil {
				return err
			}

			if err := r.Changes(changes); err != nil {
				return err
			}
			if failed > 0 {
				return linesFailed(failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&against, "against", "", "compare with the newest snapshot of this label")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "arguments are snapshot ids")
	cmd.MarkFlagsMutuallyExclusive("against", "snapshots")
	target.register(cmd)
	return cmd
}

func diffFiles(cmd *cobra.Command, a *app, args []string) ([]diff.Change, int, error) {
	if len(args) != 2 {
		return nil, 0, fmt.Errorf("diff needs an old and a new listing")
	}

	prev, err := a.svc.Parse(cmd.Context(), service.Request{Target: args[0]})
	if err != nil {
		return nil, 0, err
	}
	next, err := a.svc.Parse(cmd.Context(), service.Request{Target: args[1]})
	if err != nil {
		return nil, 0, err
	}

	return diff.Compare(prev.Entries, next.Entries, nil), len(prev.Errors) + len(next.Errors), nil
}

func diffAgainst(cmd *cobra.Command, a *app, label string, target *targetFlags, args []string) ([]diff.Change, int, error) {
	if len(args) > 1 {
		return nil, 0, fmt.Errorf("--against takes at most one listing")
	}
	req, err := target.request(args)
	if err != nil {
		return nil, 0, err
	}

	res, err := a.svc.Parse(cmd.Context(), req)
	if err != nil {
		return nil, 0, err
	}
	changes, _, err := a.svc.Diff(cmd.Context(), label, res)
	if err != nil {
		return nil, 0, err
	}
	return changes, len(res.Errors), nil
}

func diffSnapshots(cmd *cobra.Command, a *app, args []string) ([]diff.Change, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("--snapshots needs two snapshot ids")
	}

	ids := make([]int64, 2)
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot id %q", arg)
		}
		ids[i] = id
	}
	return a.svc.DiffSnapshots(cmd.Context(), ids[0], ids[1])
}
