package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zulandar/storefront/internal/alerts"
	"github.com/zulandar/storefront/internal/alerts/discord"
	"github.com/zulandar/storefront/internal/alerts/slack"
	"github.com/zulandar/storefront/internal/chat"
	"github.com/zulandar/storefront/internal/config"
	"github.com/zulandar/storefront/internal/db"
	"github.com/zulandar/storefront/internal/geoip"
	"github.com/zulandar/storefront/internal/ratelimit"
	"github.com/zulandar/storefront/internal/server"
	"github.com/zulandar/storefront/internal/timer"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront HTTP server",
		Long:  "Migrates the database, then serves the storefront, chat and back-office API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to storefront config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides http.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if port == 0 {
		port = cfg.HTTP.Port
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	notifier, err := buildNotifier(cfg.Alerts)
	if err != nil {
		return err
	}

	opts := server.StartOpts{
		DB:            gormDB,
		Port:          port,
		Out:           cmd.OutOrStdout(),
		Presence:      buildPresence(cfg.Chat, gormDB, rdb),
		Locator:       buildLocator(cfg.GeoIP),
		Notifier:      notifier,
		AlertTimeout:  alerts.DefaultTimeout,
		StaffAccounts: cfg.Admin.Accounts,
	}
	if cfg.RateLimit.Enabled && rdb != nil {
		opts.Limiter = ratelimit.New(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Timer.RestartSchedule != "" {
		go func() {
			if err := timer.RunRestartSchedule(ctx, gormDB, cfg.Timer.RestartSchedule, cfg.Timer.DefaultHours); err != nil {
				slog.Error("timer restart schedule stopped", "error", err)
			}
		}()
	}

	slog.Info("starting storefront", "store", cfg.StoreName, "port", port, "db", describeDB(cfg.Database))
	return server.Start(ctx, opts)
}

// buildPresence selects the staff availability signal.
func buildPresence(c config.ChatConfig, gormDB *gorm.DB, rdb *redis.Client) chat.Presence {
	if c.Presence == "redis" && rdb != nil {
		return chat.NewRedisPresence(rdb, c.PresenceWindow)
	}
	return chat.NewActivityPresence(gormDB, c.PresenceWindow, c.StaffRoster)
}

// buildLocator returns the ip-api client when lookups are enabled.
func buildLocator(c config.GeoIPConfig) geoip.Locator {
	if !c.Enabled {
		return geoip.Disabled{}
	}
	return geoip.NewClient(c.Endpoint, c.Timeout)
}

// buildNotifier wires every configured alert channel.
func buildNotifier(c config.AlertsConfig) (alerts.Notifier, error) {
	var multi alerts.Multi
	if c.Slack.Enabled() {
		n, err := slack.New(slack.NotifierOpts{BotToken: c.Slack.BotToken, ChannelID: c.Slack.Channel})
		if err != nil {
			return nil, err
		}
		multi = append(multi, n)
	}
	if c.Discord.Enabled() {
		n, err := discord.New(discord.NotifierOpts{BotToken: c.Discord.BotToken, ChannelID: c.Discord.Channel})
		if err != nil {
			return nil, err
		}
		multi = append(multi, n)
	}
	switch len(multi) {
	case 0:
		return alerts.Nop{}, nil
	case 1:
		return multi[0], nil
	default:
		return multi, nil
	}
}
