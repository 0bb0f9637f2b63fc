package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ywkim/kindwatch/internal/ai"
	"github.com/ywkim/kindwatch/internal/types"
)

// FormatPurchaseMessage renders a classified filing as a Telegram HTML
// message. Field values are escaped; unknown sentinels pass through as-is.
func FormatPurchaseMessage(m types.Match, analysis *ai.Analysis, now time.Time) string {
	d := m.Details

	var sb strings.Builder
	sb.WriteString("🏢 <b>임원 장내매수 알림</b>\n\n")

	if !m.Confirmed {
		sb.WriteString("⚠️ <b>문서 미확인</b> / 수동 검토 필요\n\n")
	}

	sb.WriteString(fmt.Sprintf("📊 <b>회사명:</b> %s\n", esc(m.Issuer)))
	sb.WriteString(fmt.Sprintf("👤 <b>보고자:</b> %s\n", esc(d.Reporter)))
	sb.WriteString(fmt.Sprintf("💼 <b>직위:</b> %s\n", esc(d.Position)))
	sb.WriteString(fmt.Sprintf("🪙 <b>매수주식수:</b> %s\n", esc(d.Shares)))
	sb.WriteString(fmt.Sprintf("💰 <b>매수금액:</b> %s\n", esc(d.Amount)))
	if d.OwnershipBefore != types.Unknown || d.OwnershipAfter != types.Unknown {
		sb.WriteString(fmt.Sprintf("📈 <b>소유비율:</b> %s → %s\n", esc(d.OwnershipBefore), esc(d.OwnershipAfter)))
	}
	sb.WriteString(fmt.Sprintf("📅 <b>보고일자:</b> %s\n", m.SubmittedAt.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("📋 <b>공시번호:</b> %s\n", esc(m.ID)))

	if len(m.MatchedTerms) > 0 {
		sb.WriteString(fmt.Sprintf("🔎 <b>판정근거:</b> %s\n", esc(strings.Join(m.MatchedTerms, ", "))))
	}
	if m.Context != "" {
		sb.WriteString(fmt.Sprintf("\n<i>%s</i>\n", esc(m.Context)))
	}

	if analysis != nil {
		if len(analysis.Summary) > 0 {
			sb.WriteString("\n📝 <b>요약:</b>\n")
			for _, s := range analysis.Summary {
				sb.WriteString(fmt.Sprintf("• %s\n", esc(s)))
			}
		}
		if analysis.Significance != "" {
			sb.WriteString(fmt.Sprintf("💡 %s\n", esc(analysis.Significance)))
		}
	}

	sb.WriteString(fmt.Sprintf("\n⏰ <b>알림시간:</b> %s\n", now.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n#임원매수 #KIND #장내매수")

	return sb.String()
}

func esc(s string) string {
	return html.EscapeString(s)
}
