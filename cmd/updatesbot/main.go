package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/drewdunne/updatesbot/internal/bot"
	"github.com/drewdunne/updatesbot/internal/config"
	"github.com/drewdunne/updatesbot/internal/discord"
	"github.com/drewdunne/updatesbot/internal/discourse"
	"github.com/drewdunne/updatesbot/internal/kv"
	"github.com/drewdunne/updatesbot/internal/logging"
	"github.com/drewdunne/updatesbot/internal/registry"
	"github.com/drewdunne/updatesbot/internal/server"
	"github.com/drewdunne/updatesbot/internal/state"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runOnce(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "seed":
		runSeed(os.Args[2:])
	case "state":
		runState(os.Args[2:])
	case "version":
		fmt.Printf("updatesbot v%s\n", version)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: updatesbot <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run      Check platforms once and post the next version")
	fmt.Println("  serve    Run on an interval and serve health, metrics and manual runs")
	fmt.Println("  seed     Write the initial state from a JSON file")
	fmt.Println("  state    Print the stored state")
	fmt.Println("  version  Print version information")
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet) (configPath, envFile *string) {
	configPath = fs.String("config", "config.yaml", "Path to config file")
	envFile = fs.String("env-file", "", "Path to .env file (optional)")
	return configPath, envFile
}

func loadConfig(configPath, envFile string) *config.Config {
	// Load .env file if specified or exists
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("Warning: could not load env file %s: %v", envFile, err)
		}
	} else {
		// Try default locations
		godotenv.Load(".env")
		godotenv.Load("/etc/updatesbot/updatesbot.env")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// newBot wires the bot's dependencies. The caller closes the returned store.
func newBot(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*bot.Bot, kv.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	store, err := kv.Open(ctx, cfg.State)
	if err != nil {
		return nil, nil, err
	}

	forum := discourse.New(cfg.Forum.BaseURL, cfg.Forum.APIKey, discourse.WithLogger(logger))
	notifier := &discord.Notifier{
		Updates: discord.NewWebhook(cfg.Chat.UpdatesWebhookURL, cfg.Chat.UpdatesRoleID),
		Errors:  discord.NewWebhook(cfg.Chat.ErrorsWebhookURL, cfg.Chat.ErrorsRoleID),
	}

	var opts []bot.Option
	if cfg.Logging.Dir != "" {
		opts = append(opts, bot.WithLogWriter(logging.NewWriter(cfg.Logging.Dir)))
	}
	return bot.New(cfg, store, registry.New(cfg), forum, notifier, opts...), store, nil
}

func runOnce(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath, envFile := commonFlags(fs)
	dryRun := fs.Bool("dry-run", false, "Log posts and state changes instead of making them")
	fs.Parse(args)

	cfg := loadConfig(*configPath, *envFile)
	if *dryRun {
		cfg.Bot.DryRun = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, store, err := newBot(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}
	defer store.Close()

	if err := runAndReport(ctx, b, os.Stdout); err != nil {
		// Already reported to operators; the next invocation retries.
		log.Printf("Run failed: %v", err)
	}
}

// runAndReport runs once and prints the report as JSON. The run's error is
// returned for logging only.
func runAndReport(ctx context.Context, runner server.Runner, out io.Writer) error {
	report, err := runner.Run(ctx)
	if report != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if eerr := enc.Encode(report); eerr != nil {
			log.Printf("Warning: could not print report: %v", eerr)
		}
	}
	return err
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath, envFile := commonFlags(fs)
	fs.Parse(args)

	cfg := loadConfig(*configPath, *envFile)

	logger, err := logging.New(cfg.Logging, nil)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logger.Sync()

	b, store, err := newBot(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up", zap.Error(err))
	}
	defer store.Close()

	if cfg.Logging.Dir != "" && cfg.Logging.RetentionDays > 0 {
		cleaner := logging.NewCleaner(cfg.Logging.Dir, cfg.Logging.RetentionDays)
		cleanup := logging.NewCleanupScheduler(cleaner, 24*time.Hour, logger)
		cleanup.Start()
		defer cleanup.Stop()
	}

	srv := server.New(cfg, b, logger)
	if err := srv.ListenAndServeWithShutdown(); err != nil {
		logger.Error("server error", zap.Error(err))
		store.Close()
		os.Exit(1)
	}
}

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath, envFile := commonFlags(fs)
	file := fs.String("file", "-", "Path to the initial state JSON, or - for stdin")
	fs.Parse(args)

	cfg := loadConfig(*configPath, *envFile)

	var data []byte
	var err error
	if *file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*file)
	}
	if err != nil {
		log.Fatalf("Failed to read state: %v", err)
	}

	ctx := context.Background()
	store, err := kv.Open(ctx, cfg.State)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer store.Close()

	if err := state.Seed(ctx, store, cfg.State.Key, data); err != nil {
		store.Close()
		log.Fatalf("Failed to seed state: %v", err)
	}
	fmt.Printf("Seeded state under key %q\n", cfg.State.Key)
}

func runState(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	configPath, envFile := commonFlags(fs)
	fs.Parse(args)

	cfg := loadConfig(*configPath, *envFile)

	ctx := context.Background()
	store, err := kv.Open(ctx, cfg.State)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer store.Close()

	data, err := store.Get(ctx, cfg.State.Key)
	if err != nil {
		store.Close()
		log.Fatalf("Failed to read state: %v", err)
	}
	if data == nil {
		fmt.Println("No state stored")
		return
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		// Not JSON; print it as stored.
		os.Stdout.Write(data)
		return
	}
	out.WriteByte('\n')
	out.WriteTo(os.Stdout)
}
