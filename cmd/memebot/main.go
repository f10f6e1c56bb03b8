package main

import (
	"flag"
	"os"

	"github.com/small-frappuccino/memebot/pkg/app"
	"github.com/small-frappuccino/memebot/pkg/log"
)

// version is stamped with -ldflags "-X main.version=...".
var version string

// main is the entry point of the Discord bot.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: $MEMEBOT_CONFIG or ./memebot.yaml)")
	flag.Parse()

	if version != "" {
		app.SetAppVersion(version)
	}
	if err := app.Run("memebot", *configPath); err != nil {
		log.ErrorLoggerRaw().Error("Fatal", "err", err)
		os.Exit(1)
	}
}
