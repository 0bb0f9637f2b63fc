package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywkim/kindwatch/internal/ai"
	"github.com/ywkim/kindwatch/internal/types"
)

func sampleMatch() types.Match {
	d := types.NewPurchaseDetails()
	d.Reporter = "김철수"
	d.Position = "대표이사"
	d.Shares = "1,000주"
	d.Amount = "50,000,000원"
	d.OwnershipBefore = "3.50%"
	d.OwnershipAfter = "3.62%"

	return types.Match{
		Filing: types.Filing{
			ID:          "20260828000123",
			Issuer:      "삼성전자",
			IssuerCode:  "005930",
			Title:       "임원ㆍ주요주주 특정증권등 소유상황보고서",
			SubmittedAt: time.Date(2026, 8, 28, 9, 15, 0, 0, time.UTC),
		},
		MatchedTerms: []string{"장내매수"},
		Confirmed:    true,
		Details:      d,
	}
}

func TestSplitMessage_ShortMessageUntouched(t *testing.T) {
	parts := SplitMessage("hello", 100)

	require.Len(t, parts, 1)
	assert.Equal(t, "hello", parts[0])
}

func TestSplitMessage_LongMessageNumberedParts(t *testing.T) {
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = strings.Repeat("a", 20)
	}
	text := strings.Join(lines, "\n")

	parts := SplitMessage(text, 200)

	require.Greater(t, len(parts), 1)
	for i, p := range parts {
		assert.True(t, strings.HasPrefix(p, "("), "part %d missing header", i)
		assert.Contains(t, p, "/")
	}
	assert.True(t, strings.HasPrefix(parts[0], "(1/"))

	// No content lost across the split.
	var joined strings.Builder
	for _, p := range parts {
		body := p[strings.Index(p, "\n")+1:]
		joined.WriteString(body)
		joined.WriteString("\n")
	}
	assert.Equal(t, strings.Count(text, "a"), strings.Count(joined.String(), "a"))
}

func TestSplitMessage_RuneBoundarySafe(t *testing.T) {
	text := strings.Repeat("한", 500)

	parts := SplitMessage(text, 200)

	require.Greater(t, len(parts), 1)
	total := 0
	for _, p := range parts {
		body := p[strings.Index(p, "\n")+1:]
		assert.True(t, strings.HasPrefix(body, "한"))
		total += strings.Count(body, "한")
	}
	assert.Equal(t, 500, total)
}

func TestFormatPurchaseMessage_ContainsFields(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	msg := FormatPurchaseMessage(sampleMatch(), nil, now)

	assert.Contains(t, msg, "삼성전자")
	assert.Contains(t, msg, "김철수")
	assert.Contains(t, msg, "1,000주")
	assert.Contains(t, msg, "50,000,000원")
	assert.Contains(t, msg, "3.50% → 3.62%")
	assert.Contains(t, msg, "20260828000123")
	assert.Contains(t, msg, "장내매수")
	assert.Contains(t, msg, "#임원매수")
	assert.NotContains(t, msg, "수동 검토")
}

func TestFormatPurchaseMessage_UnconfirmedMarker(t *testing.T) {
	m := sampleMatch()
	m.Confirmed = false

	msg := FormatPurchaseMessage(m, nil, time.Now())

	assert.Contains(t, msg, "수동 검토")
}

func TestFormatPurchaseMessage_EscapesHTML(t *testing.T) {
	m := sampleMatch()
	m.Details.Reporter = "<script>x</script>"

	msg := FormatPurchaseMessage(m, nil, time.Now())

	assert.NotContains(t, msg, "<script>")
	assert.Contains(t, msg, "&lt;script&gt;")
}

func TestFormatPurchaseMessage_WithAnalysis(t *testing.T) {
	analysis := &ai.Analysis{
		Summary:      []string{"CEO bought 1,000 shares"},
		Significance: "Meaningful stake increase.",
	}

	msg := FormatPurchaseMessage(sampleMatch(), analysis, time.Now())

	assert.Contains(t, msg, "CEO bought 1,000 shares")
	assert.Contains(t, msg, "Meaningful stake increase.")
}

func TestTelegram_SendSingleMessage(t *testing.T) {
	var gotPath, gotChatID, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChatID = r.Form.Get("chat_id")
		gotText = r.Form.Get("text")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{
		BotToken:   "token123",
		ChatID:     "chat456",
		APIBaseURL: srv.URL,
		SafeLen:    100,
	}, zerolog.Nop())

	require.NoError(t, tg.Send(context.Background(), "hello"))
	assert.Equal(t, "/bottoken123/sendMessage", gotPath)
	assert.Equal(t, "chat456", gotChatID)
	assert.Equal(t, "hello", gotText)
}

func TestTelegram_SendSplitsLongMessage(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		texts = append(texts, r.Form.Get("text"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{
		BotToken:   "t",
		ChatID:     "c",
		APIBaseURL: srv.URL,
		SafeLen:    50,
		PartDelay:  time.Millisecond,
	}, zerolog.Nop())

	require.NoError(t, tg.Send(context.Background(), strings.Repeat("x", 120)))
	require.Len(t, texts, 3)
	assert.True(t, strings.HasPrefix(texts[0], "(1/3)"))
	assert.True(t, strings.HasPrefix(texts[2], "(3/3)"))
}

func TestTelegram_SendErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{
		BotToken:    "t",
		ChatID:      "c",
		APIBaseURL:  srv.URL,
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
	}, zerolog.Nop())

	assert.Error(t, tg.Send(context.Background(), "hello"))
}

func TestRender_EmailSubjectAndBodies(t *testing.T) {
	r := NewHTMLEmailRenderer()

	msg, err := r.Render(NotificationData{
		Match:       sampleMatch(),
		GeneratedAt: time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, "KIND Alert: 삼성전자 - 임원ㆍ주요주주 특정증권등 소유상황보고서", msg.Subject)
	assert.Contains(t, msg.Text, "김철수")
	assert.Contains(t, msg.HTML, "삼성전자")
	assert.Contains(t, msg.HTML, "Open-market purchase")
}

func TestSaveResults_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	path, err := SaveResults(dir, []types.Match{sampleMatch()}, now)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "executive_purchases_20260828_120000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "20260828000123")
}

func TestSaveResults_NoopWithoutDir(t *testing.T) {
	path, err := SaveResults("", []types.Match{sampleMatch()}, time.Now())

	require.NoError(t, err)
	assert.Empty(t, path)
}
