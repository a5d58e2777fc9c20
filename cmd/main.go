package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"chatcal/internal/config"
	"chatcal/internal/dedup"
	"chatcal/internal/extract"
	"chatcal/internal/ics"
	"chatcal/internal/models"
	"chatcal/internal/pipeline"
	"chatcal/internal/publish"
	"chatcal/internal/temporal"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "chatcal",
		Usage: "Turn event-like chat messages into announced calendar entries.",
		Commands: []*cli.Command{
			authCommand(),
			runCommand(),
			previewCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account for calendar delivery.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthCfg, err := publish.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := publish.TokenFromWeb(oauthCfg, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'default'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := publish.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Process a stream of chat messages (newline-delimited JSON on stdin).",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Usage: "Read messages from a file instead of stdin."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be announced without publishing."},
			&cli.StringFlag{Name: "sweep", Value: "@hourly", Usage: "Cron schedule for sweeping the dedup cache."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := setupLogger(cfg.LogLevel)

			if cfg.OpenAIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
			extractor := extract.NewOpenAIExtractor(cfg.OpenAIKey, cfg.OpenAIModel, logger)

			deduper, cleanup, err := buildDeduper(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			publishers, err := buildPublishers(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			logger.Info("Initialized publishers.", "count", len(publishers))

			routes, err := config.LoadChannels(cfg.ChannelsFile)
			if err != nil {
				return fmt.Errorf("failed to load channel routes: %w", err)
			}
			if routes != nil {
				logger.Info("Channel routing enabled.", "channels", len(routes))
			}

			p := pipeline.New(logger, extractor, deduper, publishers, routes, cfg.CivilLocation(), c.Bool("dry-run"))

			sweeper := cron.New()
			if _, err := sweeper.AddFunc(c.String("sweep"), p.SweepCache); err != nil {
				return fmt.Errorf("invalid sweep schedule: %w", err)
			}
			sweeper.Start()
			defer sweeper.Stop()

			in := os.Stdin
			if file := c.String("input"); file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open input file: %w", err)
				}
				defer f.Close()
				in = f
			}

			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				var msg models.Message
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					logger.Error("Skipping malformed message line", "error", err)
					continue
				}
				if err := p.HandleMessage(c.Context, msg); err != nil {
					logger.Error("Failed to handle message", "message_id", msg.ID, "error", err)
					// Continue with the next message even if one fails.
				}
			}
			return scanner.Err()
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Resolve and encode a single event candidate without any collaborators.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "date", Usage: "Free-text date phrase, e.g. 'next Friday' or '25/12/2024'."},
			&cli.StringFlag{Name: "time", Usage: "Free-text time phrase, e.g. '15:00' or '3 PM'."},
			&cli.StringFlag{Name: "location"},
			&cli.StringFlag{Name: "description"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			now := time.Now()
			start, end := temporal.Resolve(c.String("date"), c.String("time"), now, cfg.CivilLocation())
			uid := ics.GenerateUID()
			record := ics.Encode(uid, c.String("title"), c.String("description"), c.String("location"), start, end, now)

			fmt.Print(record)
			return nil
		},
	}
}

// buildDeduper picks the dedup store from the configuration: Redis when a
// URL is set, in-memory otherwise.
func buildDeduper(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dedup.Deduplicator, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("Using in-memory dedup store.", "retention", cfg.Retention)
		return dedup.New(dedup.NewMemoryStore(nil), cfg.Retention, logger), func() {}, nil
	}

	store, err := dedup.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis dedup store: %w", err)
	}
	logger.Info("Using redis dedup store.", "retention", cfg.Retention)
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close redis store", "error", err)
		}
	}
	return dedup.New(store, cfg.Retention, logger), cleanup, nil
}

// buildPublishers assembles the delivery backends. With nothing configured
// the records go to stdout.
func buildPublishers(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]publish.Publisher, error) {
	var publishers []publish.Publisher

	if cfg.CalDAVURL != "" {
		p, err := publish.NewCalDAVPublisher(ctx, logger, cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendar)
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav publisher: %w", err)
		}
		publishers = append(publishers, p)
	}

	if cfg.GoogleClientID != "" && cfg.GoogleCalendarID != "" {
		p, err := publish.NewGooglePublisher(ctx, logger, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleAccount, cfg.GoogleCalendarID)
		if err != nil {
			return nil, fmt.Errorf("failed to create google publisher: %w", err)
		}
		publishers = append(publishers, p)
	}

	if len(publishers) == 0 {
		logger.Info("No delivery backend configured, writing records to stdout.")
		publishers = append(publishers, publish.NewWriterPublisher(os.Stdout))
	}
	return publishers, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
