/*
Package pipeline orchestrates one monitoring run: list filings, classify
titles, confirm against document text, extract details, gate on the seen-set
and notify.

Processing is sequential by design: one filing is fetched, classified and
notified before the next begins, as backpressure against the registry and the
messaging sink. Errors are isolated per filing, so one bad record never
aborts the batch. Notification is at-least-once across interrupted runs: a
filing is marked seen and the set persisted immediately after its
notification attempt.
*/
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ywkim/kindwatch/internal/ai"
	"github.com/ywkim/kindwatch/internal/classify"
	"github.com/ywkim/kindwatch/internal/extract"
	"github.com/ywkim/kindwatch/internal/types"
)

// ListingSource supplies paginated filing metadata for a date range.
type ListingSource interface {
	List(ctx context.Context, from, to time.Time, page int) ([]types.Filing, bool, error)
}

// DocumentSource supplies a filing's full document body.
type DocumentSource interface {
	FetchDocument(ctx context.Context, id string) (string, error)
}

// Notifier delivers one classified filing to the configured channels.
type Notifier interface {
	Notify(ctx context.Context, m types.Match, analysis *ai.Analysis) error
}

// SeenSet is the durable idempotency ledger.
type SeenSet interface {
	IsNew(id string) bool
	MarkSeen(id string)
	Persist() error
}

// Summarizer optionally produces an AI summary of a filing document.
type Summarizer func(ctx context.Context, text string) (*ai.Analysis, error)

// Config holds the pipeline's policy knobs.
type Config struct {
	LookbackDays int
	MaxPages     int

	// ConfirmViaContent re-checks title-level confirmed verdicts against the
	// document: a compound title without purchase evidence in the body is
	// rejected. With the flag off the title verdict stands alone.
	ConfirmViaContent bool

	// KeepUnfetched keeps candidate filings whose document could not be
	// retrieved or yields no text, notifying them flagged for manual review
	// instead of silently dropping them.
	KeepUnfetched bool

	Timezone *time.Location
}

// Stats summarizes one run.
type Stats struct {
	Listed     int
	Rejected   int
	Notified   int
	NeedReview int // notified but flagged for manual review
	Duplicates int
	Errors     int
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg       Config
	listings  ListingSource
	docs      DocumentSource
	notifier  Notifier
	seen      SeenSet
	titles    *classify.TitleClassifier
	content   *classify.ContentClassifier
	extractor *extract.Extractor
	summarize Summarizer // optional
	log       zerolog.Logger
}

// New creates a pipeline. summarize may be nil.
func New(cfg Config, listings ListingSource, docs DocumentSource, notifier Notifier, seenSet SeenSet, summarize Summarizer, log zerolog.Logger) *Pipeline {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}

	return &Pipeline{
		cfg:       cfg,
		listings:  listings,
		docs:      docs,
		notifier:  notifier,
		seen:      seenSet,
		titles:    classify.NewTitleClassifier(),
		content:   classify.NewContentClassifier(),
		extractor: extract.New(),
		summarize: summarize,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one monitoring pass and returns its stats and the notified
// matches. Listing failures end pagination but are not fatal; only context
// cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context) (Stats, []types.Match, error) {
	var stats Stats
	var matches []types.Match

	now := time.Now().In(p.cfg.Timezone)
	from := now.AddDate(0, 0, -p.cfg.LookbackDays)

	for page := 1; page <= p.cfg.MaxPages; page++ {
		filings, hasMore, err := p.listings.List(ctx, from, now, page)
		if err != nil {
			if ctx.Err() != nil {
				return stats, matches, ctx.Err()
			}
			p.log.Error().Err(err).Int("page", page).Msg("listing page failed, stopping pagination")
			stats.Errors++
			break
		}

		for _, f := range filings {
			stats.Listed++

			m, st := p.processFiling(ctx, f)
			switch st {
			case stateRejected:
				stats.Rejected++
			case stateDuplicate:
				stats.Duplicates++
			case stateNotified:
				stats.Notified++
				if !m.Confirmed {
					stats.NeedReview++
				}
				matches = append(matches, m)
			case stateError:
				stats.Errors++
			}

			if ctx.Err() != nil {
				return stats, matches, ctx.Err()
			}
		}

		if !hasMore {
			break
		}
	}

	if err := p.seen.Persist(); err != nil {
		p.log.Error().Err(err).Msg("failed to persist seen set")
		stats.Errors++
	}

	p.log.Info().
		Int("listed", stats.Listed).
		Int("rejected", stats.Rejected).
		Int("notified", stats.Notified).
		Int("need_review", stats.NeedReview).
		Int("duplicates", stats.Duplicates).
		Int("errors", stats.Errors).
		Msg("run complete")

	return stats, matches, nil
}

type filingState int

const (
	stateRejected filingState = iota
	stateDuplicate
	stateNotified
	stateError
)

// processFiling walks one filing through the per-filing state machine.
func (p *Pipeline) processFiling(ctx context.Context, f types.Filing) (types.Match, filingState) {
	log := p.log.With().Str("filing", f.ID).Str("issuer", f.Issuer).Logger()

	title := p.titles.Classify(f.Title)
	if title.Verdict == classify.Rejected {
		log.Debug().Msg("rejected by title")
		return types.Match{}, stateRejected
	}

	confirmed := title.Verdict == classify.ConfirmedPurchase
	terms := title.Matched

	var docText string
	if title.Verdict == classify.CandidatePurchase || p.cfg.ConfirmViaContent {
		text, err := p.docs.FetchDocument(ctx, f.ID)
		if err != nil {
			if ctx.Err() != nil {
				return types.Match{}, stateError
			}
			log.Warn().Err(err).Msg("document fetch failed")
			text = ""
		}
		docText = text

		matched, patterns := p.content.Classify(docText)
		switch {
		case matched:
			confirmed = true
			terms = append(terms, patterns...)
		case strings.TrimSpace(docText) == "":
			// Cannot determine. A confirmed title stands on its own evidence;
			// a candidate is kept for review or dropped per policy.
			if title.Verdict == classify.CandidatePurchase {
				if !p.cfg.KeepUnfetched {
					log.Info().Msg("candidate dropped, document unavailable")
					return types.Match{}, stateRejected
				}
				confirmed = false
			}
		default:
			// Document retrieved and it carries no purchase evidence.
			log.Debug().Msg("rejected by content")
			return types.Match{}, stateRejected
		}
	}

	details := p.extractor.Extract(docText)

	if !p.seen.IsNew(f.ID) {
		log.Info().Msg("duplicate filing skipped")
		return types.Match{}, stateDuplicate
	}

	m := types.Match{
		Filing:       f,
		MatchedTerms: terms,
		Confirmed:    confirmed,
		Context:      buildContext(f.Title, docText, terms),
		Details:      details,
	}

	var analysis *ai.Analysis
	if p.summarize != nil && strings.TrimSpace(docText) != "" {
		a, err := p.summarize(ctx, docText)
		if err != nil {
			log.Warn().Err(err).Msg("summary failed")
		} else {
			analysis = a
		}
	}

	if err := p.notifier.Notify(ctx, m, analysis); err != nil {
		// Marked seen regardless: one delivery attempt per filing. Retrying
		// stale alerts on later runs is worth less than avoiding duplicate
		// floods.
		log.Error().Err(err).Msg("notification failed")
	}

	p.seen.MarkSeen(f.ID)
	if err := p.seen.Persist(); err != nil {
		log.Error().Err(err).Msg("failed to persist seen set")
	}

	log.Info().Bool("confirmed", m.Confirmed).Strs("terms", terms).Msg("filing notified")
	return m, stateNotified
}

// buildContext returns a short snippet around the first matched term, or the
// title itself when the evidence came from the title.
func buildContext(title, text string, terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	term := terms[0]

	if strings.Contains(strings.ToLower(title), strings.ToLower(term)) {
		return title + " (match found in title)"
	}
	return snippet(text, term)
}

func snippet(fullText, keyword string) string {
	const contextSize = 50

	lowerText := strings.ToLower(fullText)
	index := strings.Index(lowerText, strings.ToLower(keyword))
	if index == -1 {
		return ""
	}

	runes := []rune(fullText)
	// Index is a byte offset; convert to rune offset for safe slicing.
	runeIndex := len([]rune(fullText[:index]))
	keywordLen := len([]rune(keyword))

	start := runeIndex - contextSize
	if start < 0 {
		start = 0
	}
	end := runeIndex + keywordLen + contextSize
	if end > len(runes) {
		end = len(runes)
	}

	s := string(runes[start:end])
	if start > 0 {
		s = "... " + s
	}
	if end < len(runes) {
		s = s + " ..."
	}
	return strings.ReplaceAll(s, "\n", " ")
}
