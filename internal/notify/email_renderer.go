package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ywkim/kindwatch/internal/ai"
	"github.com/ywkim/kindwatch/internal/types"
)

// NotificationData is the input for rendering a single alert.
type NotificationData struct {
	Match       types.Match
	Analysis    *ai.Analysis
	GeneratedAt time.Time
}

// RenderedMessage is a fully rendered notification ready for a sender.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// HTMLEmailRenderer renders notifications as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default email template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

// Render produces an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(data NotificationData) (*RenderedMessage, error) {
	subject := fmt.Sprintf("KIND Alert: %s - %s", data.Match.Issuer, data.Match.Title)

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject,
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

// renderPlainText produces a readable plain text version for email clients that don't support HTML.
func renderPlainText(data NotificationData) string {
	m := data.Match
	d := m.Details
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s - %s\n", m.Issuer, m.Title))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if !m.Confirmed {
		sb.WriteString("⚠ UNCONFIRMED - document unavailable, manual review needed\n\n")
	}

	sb.WriteString(fmt.Sprintf("Filing:    %s\n", m.ID))
	sb.WriteString(fmt.Sprintf("Date:      %s\n", m.SubmittedAt.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Reporter:  %s (%s)\n", d.Reporter, d.Position))
	sb.WriteString(fmt.Sprintf("Shares:    %s\n", d.Shares))
	sb.WriteString(fmt.Sprintf("Amount:    %s\n", d.Amount))
	sb.WriteString(fmt.Sprintf("Ownership: %s -> %s\n", d.OwnershipBefore, d.OwnershipAfter))

	if len(m.MatchedTerms) > 0 {
		sb.WriteString(fmt.Sprintf("Evidence:  %s\n", strings.Join(m.MatchedTerms, ", ")))
	}
	sb.WriteString("\n")

	if m.Context != "" {
		sb.WriteString("CONTEXT\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		sb.WriteString(m.Context + "\n\n")
	}

	if data.Analysis != nil {
		if len(data.Analysis.Summary) > 0 {
			sb.WriteString("AI SUMMARY\n")
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			for _, s := range data.Analysis.Summary {
				sb.WriteString(fmt.Sprintf("• %s\n", s))
			}
			sb.WriteString("\n")
		}
		if data.Analysis.Significance != "" {
			sb.WriteString(fmt.Sprintf("Significance: %s\n", data.Analysis.Significance))
		}
	}

	return sb.String()
}
