package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liamcoop/scid/internal/logger"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		engine string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			assessor, err := NewAssessorFromConfig(a.cfg, engine)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go reloadOnHangup(ctx, assessor)

			return Serve(ctx, a.cfg.Server, NewServer(assessor))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&engine, "engine", "", "evaluator: native or rules")
	return cmd
}

// reloadOnHangup rebuilds the rule engine on SIGHUP until ctx is done
func reloadOnHangup(ctx context.Context, assessor *Assessor) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if _, err := assessor.Reload(); err != nil {
				logger.Error("rule reload failed", "error", err)
			}
		}
	}
}
