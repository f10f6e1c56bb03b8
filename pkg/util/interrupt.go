package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/small-frappuccino/memebot/pkg/log"
)

// WaitForInterrupt blocks until SIGINT or SIGTERM is received.
func WaitForInterrupt() {
	waitForInterruptContext(context.Background(), nil)
}

// waitForInterruptContext lets tests cancel the wait without real signals.
func waitForInterruptContext(parent context.Context, callback func()) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.ApplicationLogger().Info("Received interrupt; shutting down")

	if callback != nil {
		callback()
	}
}
