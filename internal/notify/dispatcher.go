package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ywkim/kindwatch/internal/ai"
	"github.com/ywkim/kindwatch/internal/types"
)

// Dispatcher fans a classified filing out to the configured channels:
// Telegram is the primary sink, email is a best-effort mirror whose failure
// never fails the notification.
type Dispatcher struct {
	telegram *Telegram
	email    *EmailSender
	renderer *HTMLEmailRenderer
	loc      *time.Location
	log      zerolog.Logger
}

// NewDispatcher creates a dispatcher. email may be nil.
func NewDispatcher(telegram *Telegram, email *EmailSender, loc *time.Location, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		telegram: telegram,
		email:    email,
		renderer: NewHTMLEmailRenderer(),
		loc:      loc,
		log:      log.With().Str("component", "notify").Logger(),
	}
}

// Notify renders and delivers one alert.
func (d *Dispatcher) Notify(ctx context.Context, m types.Match, analysis *ai.Analysis) error {
	now := time.Now().In(d.loc)

	err := d.telegram.Send(ctx, FormatPurchaseMessage(m, analysis, now))

	if d.email != nil {
		msg, rerr := d.renderer.Render(NotificationData{Match: m, Analysis: analysis, GeneratedAt: now})
		if rerr != nil {
			d.log.Error().Err(rerr).Str("filing", m.ID).Msg("failed to render email")
		} else if serr := d.email.Send(msg); serr != nil {
			d.log.Error().Err(serr).Str("filing", m.ID).Msg("email mirror failed")
		}
	}

	return err
}
