// Command executor runs the transcription job executor: it pulls job
// requests off the queue and processes each recording to a terminal
// status.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/minutescript/MinScript-Backend/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consume jobs: %v", err)
	}
	log.Print("shutting down")
}
