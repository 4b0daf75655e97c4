// Command catalog-crawler dumps every sheet of the catalog to a local
// JSON Lines store and builds the en/de/fr name dictionary from it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("catalog-crawler failed")
		stop()
		os.Exit(1)
	}
}
