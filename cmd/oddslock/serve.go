package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oddslock/oddslock/internal/httpapi"
)

// newServeCmd starts the ops surface: health, metrics, decide, and
// audit lookups.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the decision engine over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			srv := httpapi.NewServer(httpapi.Config{
				Addr:         rt.cfg.HTTP.Addr,
				RateLimitRPS: rt.cfg.HTTP.RateLimitRPS,
			}, rt.engine, rt.audit, rt.verman, rt.metrics, log.Logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
}
