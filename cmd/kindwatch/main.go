package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ywkim/kindwatch/internal/ai"
	"github.com/ywkim/kindwatch/internal/config"
	"github.com/ywkim/kindwatch/internal/kind"
	"github.com/ywkim/kindwatch/internal/notify"
	"github.com/ywkim/kindwatch/internal/pipeline"
	"github.com/ywkim/kindwatch/internal/seen"
	"github.com/ywkim/kindwatch/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("unknown timezone, falling back to UTC")
		loc = time.UTC
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := kind.NewClient(kind.Options{
		Delay:    cfg.RequestDelay,
		Timezone: loc,
	}, log)

	store := seen.NewStore(cfg.SeenFile, log)
	if err := store.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.SeenFile).Msg("failed to load seen filings")
	}
	log.Info().Int("seen", store.Len()).Str("path", cfg.SeenFile).Msg("seen filings loaded")

	telegram := notify.NewTelegram(notify.TelegramConfig{
		BotToken:  cfg.TelegramBotToken,
		ChatID:    cfg.TelegramChatID,
		SafeLen:   cfg.SafeMessageLen,
		PartDelay: cfg.RequestDelay,
	}, log)

	var email *notify.EmailSender
	if cfg.EmailEnabled() {
		email = notify.NewEmailSender(notify.EmailConfig{
			SMTPServer: cfg.SMTPServer,
			SMTPPort:   cfg.SMTPPort,
			SMTPUser:   cfg.SMTPUser,
			SMTPPass:   cfg.SMTPPass,
			FromEmail:  cfg.FromEmail,
			ToEmail:    cfg.ToEmail,
			Enabled:    true,
		}, log)
		log.Info().Str("to", cfg.ToEmail).Msg("email mirror enabled")
	}

	dispatcher := notify.NewDispatcher(telegram, email, loc, log)

	var summarize pipeline.Summarizer
	if cfg.GeminiAPIKey != "" {
		apiKey, model := cfg.GeminiAPIKey, cfg.GeminiModel
		summarize = func(ctx context.Context, text string) (*ai.Analysis, error) {
			return ai.GenerateSummary(ctx, text, apiKey, model)
		}
		log.Info().Str("model", model).Msg("AI summaries enabled")
	}

	p := pipeline.New(pipeline.Config{
		LookbackDays:      cfg.LookbackDays,
		MaxPages:          cfg.MaxPages,
		ConfirmViaContent: cfg.ConfirmViaContent,
		KeepUnfetched:     cfg.KeepUnfetched,
		Timezone:          loc,
	}, client, client, dispatcher, store, summarize, log)

	stats, matches, err := p.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("monitoring run aborted")
	}

	notify.ReportMatches(matches, cfg.SeenFile)

	if path, err := notify.SaveResults(cfg.ResultsDir, matches, time.Now().In(loc)); err != nil {
		log.Error().Err(err).Msg("failed to save results")
	} else if path != "" {
		log.Info().Str("path", path).Msg("results saved")
	}

	if stats.Errors > 0 {
		log.Warn().Int("errors", stats.Errors).Msg("run finished with errors")
	}
}
