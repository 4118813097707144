package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context) error

// Run executes the service body under a signal-cancelled context and
// waits for it to drain before exiting. The runner owns its own
// shutdown: it must return once the context is cancelled.
func Run(serviceName string, log zerolog.Logger, run Runner) int {
	log = log.With().Str("service", serviceName).Logger()
	log.Info().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		if err := <-errCh; err != nil && !isCancel(err) {
			log.Error().Err(err).Msg("shutdown error")
			return 1
		}
		log.Info().Msg("stopped")
		return 0
	case err := <-errCh:
		if err != nil && !isCancel(err) {
			log.Error().Err(err).Msg("failed")
			return 1
		}
		log.Info().Msg("stopped")
		return 0
	}
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled)
}
