/*
Package notify renders classified filings into alert messages and delivers
them to the Telegram channel, with an optional SMTP mirror and a console
report.
*/
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ywkim/kindwatch/internal/retry"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig configures the Telegram sink.
type TelegramConfig struct {
	BotToken    string
	ChatID      string
	APIBaseURL  string        // override for tests; defaults to api.telegram.org
	SafeLen     int           // message-splitting threshold in runes
	PartDelay   time.Duration // delay between split parts
	MaxAttempts int
	RetryDelay  time.Duration
}

// Telegram delivers messages via the Telegram bot API.
type Telegram struct {
	cfg  TelegramConfig
	http *http.Client
	log  zerolog.Logger
}

// NewTelegram creates a Telegram sink.
func NewTelegram(cfg TelegramConfig, log zerolog.Logger) *Telegram {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultTelegramAPI
	}
	if cfg.SafeLen <= 0 {
		cfg.SafeLen = 3800
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	return &Telegram{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log.With().Str("component", "telegram").Logger(),
	}
}

// Send delivers text to the configured chat. Content exceeding the safe
// length is split into ordered numbered parts, each sent independently with a
// short inter-message delay; the message-length limit is a hard external
// constraint of the bot API.
func (t *Telegram) Send(ctx context.Context, text string) error {
	parts := SplitMessage(text, t.cfg.SafeLen)

	for i, part := range parts {
		if i > 0 && t.cfg.PartDelay > 0 {
			timer := time.NewTimer(t.cfg.PartDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := retry.Do(ctx, t.cfg.MaxAttempts, t.cfg.RetryDelay, func() error {
			return t.sendPart(ctx, part)
		})
		if err != nil {
			return fmt.Errorf("telegram part %d/%d: %w", i+1, len(parts), err)
		}
	}

	t.log.Info().Int("parts", len(parts)).Msg("telegram message sent")
	return nil
}

func (t *Telegram) sendPart(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.APIBaseURL, t.cfg.BotToken)

	form := url.Values{
		"chat_id":    {t.cfg.ChatID},
		"text":       {text},
		"parse_mode": {"HTML"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to POST sendMessage: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.log.Warn().Err(cerr).Msg("failed to close telegram response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SplitMessage splits text into rune-bounded chunks of at most limit runes,
// preferring to break at a newline in the back half of the window. Multi-part
// output gets an ordered "(i/n)" header on each part.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}

		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}

	for i := range chunks {
		chunks[i] = fmt.Sprintf("(%d/%d)\n%s", i+1, len(chunks), chunks[i])
	}
	return chunks
}
