package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/hcaudit/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd(&options{}).ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("hcaudit failed")
	}
	cancel()
	os.Exit(exitCode(err))
}

// exitCode maps run errors onto the process exit policy: 2 when nothing could
// be audited, 3 for --fail-on-issues, 1 for usage and configuration errors.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrIssuesFound):
		return 3
	case errors.Is(err, app.ErrNoDocuments), errors.Is(err, app.ErrDocumentUnavailable):
		return 2
	default:
		return 1
	}
}

// setupLogging applies the verbosity and output format flags.
func setupLogging(verbose, jsonLogs bool) {
	if jsonLogs {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
