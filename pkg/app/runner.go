package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/small-frappuccino/memebot/pkg/config"
	"github.com/small-frappuccino/memebot/pkg/control"
	"github.com/small-frappuccino/memebot/pkg/discord/commands"
	"github.com/small-frappuccino/memebot/pkg/discord/session"
	"github.com/small-frappuccino/memebot/pkg/errutil"
	"github.com/small-frappuccino/memebot/pkg/imgflip"
	"github.com/small-frappuccino/memebot/pkg/log"
	"github.com/small-frappuccino/memebot/pkg/memes"
	"github.com/small-frappuccino/memebot/pkg/metrics"
	"github.com/small-frappuccino/memebot/pkg/storage"
	"github.com/small-frappuccino/memebot/pkg/theme"
	"github.com/small-frappuccino/memebot/pkg/util"
)

const (
	pruneInterval   = 6 * time.Hour
	shutdownTimeout = 30 * time.Second
)

// Run bootstraps the bot and blocks until SIGINT or SIGTERM.
// appName affects cache and log paths; configPath may be empty (see config.Load).
func Run(appName, configPath string) error {
	started := time.Now()

	// App name first (affects paths)
	util.SetAppName(appName)

	var cfg *config.Config
	if err := errutil.HandleConfigError("load", configPath, func() error {
		var loadErr error
		cfg, loadErr = config.Load(configPath)
		return loadErr
	}); err != nil {
		return err
	}

	// Logger first so subsequent steps can log meaningfully
	logger, err := log.SetupLogger(log.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	// Ensure logs are flushed on exit
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	memeOpts, _ := cfg.MemeOptions()

	if err := theme.SetCurrent(cfg.Theme); err != nil {
		log.ApplicationLogger().Warn("Failed to apply theme; using default", "theme", cfg.Theme, "available", theme.Names(), "err", err)
	}

	log.ApplicationLogger().Info(formatStartupMessage(appName, AppVersion(), Version))

	m := metrics.New(effectiveVersion(AppVersion(), Version))

	client := imgflip.NewClient(imgflip.Config{
		BaseURL:  cfg.Imgflip.BaseURL,
		Username: cfg.Imgflip.Username,
		Password: cfg.Imgflip.Password,
	}, imgflip.WithObserver(m), imgflip.WithUserAgent(userAgent(appName)))

	// Usage tally (optional)
	var (
		store     *storage.Store
		pruneStop chan struct{}
		flowOpts  []memes.FlowOption
	)
	if cfg.UsageEnabled() {
		store = storage.NewStore(cfg.Storage.Path)
		if err := store.Init(); err != nil {
			return fmt.Errorf("initialize usage store: %w", err)
		}
		flowOpts = append(flowOpts, memes.WithUsageRecorder(store))
		retention := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
		pruneStop = storage.SchedulePrune(store, pruneInterval, retention)
		log.DatabaseLogger().Info("Usage tally enabled", "path", cfg.Storage.Path, "retention_days", cfg.Storage.RetentionDays)
	} else {
		log.DatabaseLogger().Info("Usage tally disabled")
	}
	flow := memes.NewFlow(client, memeOpts, flowOpts...)

	// Discord session; the router is attached before the gateway opens
	var handler *commands.CommandHandler
	discordSession, err := session.NewDiscordSession(cfg.Discord.Token, func(s *discordgo.Session) {
		handler = commands.NewCommandHandler(s, flow, m)
		handler.Attach()
	})
	if err != nil {
		closeStore(store, pruneStop)
		return fmt.Errorf("create discord session: %w", err)
	}
	if discordSession.State != nil && discordSession.State.User != nil {
		log.DiscordLogger().Info("✅ Authenticated", "user", discordSession.State.User.Username, "id", discordSession.State.User.ID)
	}

	if err := handler.SetupCommands(cfg.Discord.ClientID, cfg.Discord.GuildID); err != nil {
		_ = session.Close(discordSession)
		closeStore(store, pruneStop)
		return fmt.Errorf("configure slash commands: %w", err)
	}

	// Control server (optional)
	deps := control.Deps{
		Metrics: m.Handler(),
		Checks: map[string]control.HealthCheck{
			"discord": gatewayCheck(discordSession),
		},
	}
	if store != nil {
		deps.Usage = store
		deps.Checks["usage_db"] = store.Ping
	}
	ctrl := control.NewServer(cfg.Control.Addr, deps)
	if err := ctrl.Start(); err != nil {
		_ = session.Close(discordSession)
		closeStore(store, pruneStop)
		return fmt.Errorf("start control server: %w", err)
	}

	log.ApplicationLogger().Info(fmt.Sprintf("🎯 %s initialized successfully in %s", appName, time.Since(started).Round(time.Millisecond)))
	log.ApplicationLogger().Info(fmt.Sprintf("🤖 %s running. Press Ctrl+C to stop...", appName))

	// Wait for shutdown signal
	util.WaitForInterrupt()
	log.ApplicationLogger().Info(fmt.Sprintf("🛑 Stopping %s...", appName))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeoutCause(context.Background(), shutdownTimeout, fmt.Errorf("application shutdown"))
	defer cancel()

	var g errgroup.Group
	g.Go(func() error { return ctrl.Stop(shutdownCtx) })
	g.Go(func() error { return session.Close(discordSession) })
	if err := g.Wait(); err != nil {
		log.ErrorLoggerRaw().Error("Some components failed to stop cleanly", "err", err)
	}

	// Interactions are no longer delivered, so the store can close
	closeStore(store, pruneStop)
	return nil
}

func closeStore(store *storage.Store, pruneStop chan struct{}) {
	if pruneStop != nil {
		close(pruneStop)
	}
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.DatabaseLogger().Warn("Failed to close usage store", "err", err)
	}
}

func gatewayCheck(s *discordgo.Session) control.HealthCheck {
	return func(context.Context) error {
		if s == nil || !s.DataReady {
			return errors.New("gateway not ready")
		}
		return nil
	}
}

func userAgent(appName string) string {
	name := strings.TrimSpace(appName)
	if name == "" {
		name = "memebot"
	}
	return fmt.Sprintf("%s/%s", name, strings.TrimPrefix(effectiveVersion(AppVersion(), Version), "v"))
}

func effectiveVersion(appVersion, buildVersion string) string {
	if v := strings.TrimSpace(appVersion); v != "" {
		return v
	}
	return strings.TrimSpace(buildVersion)
}

// formatStartupMessage renders the startup banner. The build version is
// appended only when the embedding binary stamps a different one.
func formatStartupMessage(appName, appVersion, buildVersion string) string {
	name := strings.TrimSpace(appName)
	appVersion = strings.TrimSpace(appVersion)
	buildVersion = strings.TrimSpace(buildVersion)

	switch {
	case appVersion == "" && buildVersion == "":
		return fmt.Sprintf("🚀 Starting %s...", name)
	case appVersion == "" || appVersion == buildVersion:
		return fmt.Sprintf("🚀 Starting %s %s...", name, effectiveVersion(appVersion, buildVersion))
	case buildVersion == "":
		return fmt.Sprintf("🚀 Starting %s %s...", name, appVersion)
	default:
		return fmt.Sprintf("🚀 Starting %s %s (memebot %s)...", name, appVersion, buildVersion)
	}
}
