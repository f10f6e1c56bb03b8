// Package errutil runs an operation and logs its failure under the right
// category before handing the error back.
package errutil

import (
	"fmt"

	"github.com/small-frappuccino/memebot/pkg/log"
)

// HandleDiscordError executes fn and logs any error as a Discord failure.
// The error is returned unchanged.
func HandleDiscordError(operation string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("nil function provided")
	}
	err := fn()
	if err == nil {
		return nil
	}
	log.DiscordLogger().Error("Discord operation failed", "operation", operation, "err", err)
	return err
}

// HandleConfigError executes fn and logs any error as a configuration
// failure. The error is wrapped with the operation and path.
func HandleConfigError(operation, path string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("nil function provided")
	}
	err := fn()
	if err == nil {
		return nil
	}
	log.ErrorLoggerRaw().Error("Config operation failed", "operation", operation, "path", path, "err", err)
	return fmt.Errorf("config %s %s: %w", operation, path, err)
}
