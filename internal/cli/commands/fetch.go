package commands

import (
	"github.com/spf13/cobra"

	"github.com/Ning0612/lsparse/internal/service"
)

func fetchCmd(a *app) *cobra.Command {
	var req service.Request

	cmd := &cobra.Command{
		Use:   "fetch <host> <dir>",
		Short: "List a directory on a configured host and parse it",
		Long: `Run "ls -lpa" in a directory on a host from the config file over SSH
and parse the output. With --file the path names a captured listing
on the host, which is read over SFTP instead.`,
		Example: `  lsparse fetch web /var/www
  lsparse fetch web /tmp/listing.txt --file --dir /var/www`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Host = args[0]
			req.Target = args[1]
			return runParse(cmd, a, req)
		},
	}

	cmd.Flags().BoolVar(&req.RemoteFile, "file", false, "read a captured listing file instead of running ls")
	cmd.Flags().StringVar(&req.Dir, "dir", "", "directory recorded on entries (defaults to the listed dir)")
	cmd.Flags().StringSliceVar(&req.Match, "match", nil, "only keep entries matching a glob (repeatable)")
	return cmd
}
