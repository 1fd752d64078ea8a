package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/lsparse/internal/core/diff"
	"github.com/Ning0612/lsparse/internal/logger"
	"github.com/Ning0612/lsparse/internal/service"
)

func watchCmd(a *app) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch <host> <dir>...",
		Short: "Periodically snapshot directories and print what changed",
		Long: `Capture each directory on a configured host now and then once per
interval. Every capture is stored as a snapshot labelled host:dir and
the differences from the previous capture are printed.

Runs in the foreground until interrupted.`,
		Example: `  lsparse watch web /var/www /etc/nginx --every 10m`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watch, err := service.NewWatchService(a.svc, func(t service.WatchTarget, changes []diff.Change) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s:%s\n", time.Now().Format(time.DateTime), t.Host, t.Dir)
				if err := r.Changes(changes); err != nil {
					logger.Get().Error("failed to print changes", "error", err)
				}
			})
			if err != nil {
				return err
			}

			targets := make([]service.WatchTarget, 0, len(args)-1)
			for _, dir := range args[1:] {
				targets = append(targets, service.WatchTarget{Host: args[0], Dir: dir})
			}

			if err := watch.Start(ctx, every, targets); err != nil {
				return err
			}
			<-watch.Done()

			if err := watch.Stop(); err != nil {
				return err
			}
			logger.Get().Info("watch stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&every, "every", 5*time.Minute, "interval between captures")
	return cmd
}
