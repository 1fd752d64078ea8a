package commands

import (
	"github.com/spf13/cobra"

	"github.com/Ning0612/lsparse/internal/render"
	"github.com/Ning0612/lsparse/internal/service"
	"github.com/Ning0612/lsparse/internal/source/local"
)

func parseCmd(a *app) *cobra.Command {
	var req service.Request

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a captured listing",
		Long: `Parse a listing captured with "ls -lpa" from a file, or from stdin
when no file or "-" is given.`,
		Example: `  ls -lpa /srv | lsparse parse --dir /srv
  lsparse parse listing.txt -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Host = service.LocalHost
			req.Target = local.Stdin
			if len(args) == 1 {
				req.Target = args[0]
			}
			return runParse(cmd, a, req)
		},
	}

	cmd.Flags().StringVar(&req.Dir, "dir", "", "directory the listing was taken in")
	cmd.Flags().StringSliceVar(&req.Match, "match", nil, "only keep entries matching a glob (repeatable)")
	return cmd
}

// runParse parses and prints one listing
func runParse(cmd *cobra.Command, a *app, req service.Request) error {
	r, err := a.renderer(cmd)
	if err != nil {
		return err
	}

	res, err := a.svc.Parse(cmd.Context(), req)
	if err != nil {
		return err
	}

	if err := r.Report(render.NewReport(res.Source, res.Entries, res.Errors)); err != nil {
		return err
	}
	if res.Failed() {
		return linesFailed(len(res.Errors))
	}
	return nil
}
