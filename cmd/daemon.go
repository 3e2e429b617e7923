package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargewindow/api/schedule"
	"github.com/kilianp07/chargewindow/app"
	"github.com/kilianp07/chargewindow/infra/logger"
)

var (
	daemonNoAPI  bool
	daemonDryRun bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Re-plan on a cron schedule and serve the status API",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonNoAPI, "no-api", false, "do not start the HTTP API")
	daemonCmd.Flags().BoolVar(&daemonDryRun, "dry-run", false, "plan on schedule without programming the charger")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()
	log := logger.New("main")

	svc, closer, err := newService()
	if err != nil {
		return err
	}
	defer closer()

	d := app.NewDaemon(svc, cfg.Daemon.Cron, svc.Location(), cfg.Daemon.RunOnStart, !daemonDryRun)

	var srv *http.Server
	srvErr := make(chan error, 1)
	if !daemonNoAPI {
		srv = schedule.NewServer(cfg.API.Address, svc, schedule.Options{
			Token:          cfg.API.Token,
			AllowedOrigins: cfg.API.AllowedOrigins,
			Daemon:         d,
		})
		go func() {
			log.Infof("api listening on %s", cfg.API.Address)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srvErr <- err
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(runCtx) }()

	var runErr error
	select {
	case runErr = <-done:
	case err := <-srvErr:
		cancel()
		<-done
		runErr = fmt.Errorf("api server: %w", err)
	}

	if srv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api shutdown: %v", err)
		}
	}
	return runErr
}
