package storage

import (
	"context"
	"time"

	"github.com/small-frappuccino/memebot/pkg/log"
)

// SchedulePrune deletes tally rows older than retention once at start and
// then on every interval tick. Close the returned channel to stop it. It
// returns nil when interval or retention is not positive.
func SchedulePrune(store *Store, interval, retention time.Duration) chan struct{} {
	if store == nil || interval <= 0 || retention <= 0 {
		return nil
	}

	stopChan := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		prune := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			cutoff := store.now().Add(-retention)
			n, err := store.PruneUsageBefore(ctx, cutoff)
			if err != nil {
				log.ErrorLoggerRaw().Error("Periodic usage prune failed", "err", err)
				return
			}
			if n > 0 {
				log.DatabaseLogger().Info("Pruned usage rows", "rows", n, "cutoff", cutoff.Format(dayLayout))
			}
		}

		prune()
		for {
			select {
			case <-ticker.C:
				prune()
			case <-stopChan:
				return
			}
		}
	}()

	return stopChan
}
