package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/harina-project/harina/internal/bot"
	"github.com/harina-project/harina/internal/category"
	"github.com/harina-project/harina/internal/scanning"
	"github.com/harina-project/harina/internal/server"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("harina")
	var (
		port          = fs.IntLong("port", 8000, "HTTP server port")
		databaseURL   = fs.StringLong("database-url", "", "Postgres DSN for category sync (optional)")
		cachePath     = fs.StringLong("snapshot-cache", "harina-categories.db", "Category snapshot cache file path")
		openaiBaseURL = fs.StringLong("openai-base-url", "", "Base URL for OpenAI-compatible models (default https://api.openai.com/v1)")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		discordToken  = fs.StringLong("discord-token", "", "Discord bot token; bot is disabled when empty")
		discordModel  = fs.StringLong("discord-model", "", "Model the Discord bot scans with")
		discordChans  = fs.StringLong("discord-channels", "", "Comma-separated channel IDs the bot listens on (empty = all)")
		discordMaxMB  = fs.IntLong("discord-max-file-mb", 15, "Largest Discord attachment to accept, in MB")
		logLevel      = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("HARINA"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	setupLogger(*logLevel)
	slog.Info("Starting harina", "version", version)
	logConfiguredKeys()

	// Category side channel: Postgres is optional, the snapshot cache is
	// optional, the bundled taxonomy always works.
	var store *category.Store
	if *databaseURL != "" {
		db, err := category.OpenDB(*databaseURL)
		if err != nil {
			slog.Warn("Category database unavailable, continuing without it", "error", err)
		} else {
			store = category.NewStore(db)
			defer store.Close()
		}
	} else {
		slog.Warn("No database configured; category sync disabled")
	}

	var cache *category.SnapshotCache
	if *cachePath != "" {
		var err error
		cache, err = category.NewSnapshotCache(*cachePath)
		if err != nil {
			slog.Warn("Snapshot cache unavailable, continuing without it", "error", err)
		} else {
			defer cache.Close()
		}
	}

	categories := category.NewProvider(store, cache)
	if store != nil {
		if snapshot, err := categories.Sync(context.Background()); err != nil {
			slog.Warn("Initial category sync failed", "error", err)
		} else {
			count, subCount := category.Stats(snapshot)
			slog.Info("Category sync complete", "categories", count, "subcategories", subCount)
		}
	}

	processor := scanning.NewProcessorWithDeps(
		categories,
		os.Getenv,
		scanning.Gemini{},
		scanning.NewOpenAICompat(*openaiBaseURL),
	)

	// Optional Discord front-end.
	if *discordToken != "" {
		var channels []string
		if *discordChans != "" {
			channels = strings.Split(*discordChans, ",")
		}
		discordBot, err := bot.New(bot.Config{
			Token:             *discordToken,
			Model:             *discordModel,
			AllowedChannelIDs: channels,
			MaxFileBytes:      int64(*discordMaxMB) << 20,
		}, processor)
		if err != nil {
			slog.Error("Failed to initialize Discord bot", "error", err)
			os.Exit(1)
		}
		if err := discordBot.Start(); err != nil {
			slog.Error("Failed to start Discord bot", "error", err)
			os.Exit(1)
		}
		defer discordBot.Close()
	}

	basicAuth := server.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	srv := server.NewServer(processor, categories, server.NewMetrics(), basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func setupLogger(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler).With("service", "harina"))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logConfiguredKeys reports which model credentials are present without
// printing their values.
func logConfiguredKeys() {
	var available []string
	for _, name := range []string{"GEMINI_API_KEY", "GEMINI_FREE_API_KEY", "OPENAI_API_KEY"} {
		if os.Getenv(name) != "" {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		slog.Warn("No model API keys configured")
		return
	}
	slog.Info("Configured API keys", "keys", strings.Join(available, ", "))
}
