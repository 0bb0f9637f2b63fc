package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywkim/kindwatch/internal/ai"
	"github.com/ywkim/kindwatch/internal/seen"
	"github.com/ywkim/kindwatch/internal/types"
)

type fakeListings struct {
	pages [][]types.Filing
	err   error
}

func (f *fakeListings) List(_ context.Context, _, _ time.Time, page int) ([]types.Filing, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if page > len(f.pages) {
		return nil, false, nil
	}
	return f.pages[page-1], page < len(f.pages), nil
}

type fakeDocs struct {
	docs  map[string]string
	errs  map[string]error
	calls int
}

func (f *fakeDocs) FetchDocument(_ context.Context, id string) (string, error) {
	f.calls++
	if err, ok := f.errs[id]; ok {
		return "", err
	}
	return f.docs[id], nil
}

type fakeNotifier struct {
	notified []types.Match
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, m types.Match, _ *ai.Analysis) error {
	f.notified = append(f.notified, m)
	return f.err
}

func purchaseFiling(id string) types.Filing {
	return types.Filing{
		ID:          id,
		Issuer:      "삼성전자",
		IssuerCode:  "005930",
		Title:       "주요주주 장내매수 보고",
		SubmittedAt: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
	}
}

func candidateFiling(id string) types.Filing {
	f := purchaseFiling(id)
	f.Title = "임원ㆍ주요주주 특정증권등 소유상황보고서"
	return f
}

const purchaseDoc = `<html><body><table>
<tr><th>보고자</th><td>김철수</td></tr>
<tr><th>직위</th><td>대표이사</td></tr>
<tr><th>보고사유</th><td>장내매수</td></tr>
<tr><th>매수주식수</th><td>1,000주</td></tr>
</table></body></html>`

func newSeenStore(t *testing.T, path string) *seen.Store {
	t.Helper()
	s := seen.NewStore(path, zerolog.Nop())
	require.NoError(t, s.Load())
	return s
}

func defaultConfig() Config {
	return Config{
		LookbackDays:      1,
		MaxPages:          5,
		ConfirmViaContent: true,
		KeepUnfetched:     true,
		Timezone:          time.UTC,
	}
}

func TestRun_NotifiesConfirmedPurchase(t *testing.T) {
	listings := &fakeListings{pages: [][]types.Filing{{purchaseFiling("F1")}}}
	docs := &fakeDocs{docs: map[string]string{"F1": purchaseDoc}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, docs, notifier, store, nil, zerolog.Nop())
	stats, matches, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Listed)
	assert.Equal(t, 1, stats.Notified)
	assert.Equal(t, 0, stats.NeedReview)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.True(t, m.Confirmed)
	assert.Equal(t, "김철수", m.Details.Reporter)
	assert.Equal(t, "1,000주", m.Details.Shares)
	assert.Contains(t, m.MatchedTerms, "장내매수")
	assert.False(t, store.IsNew("F1"))
}

func TestRun_CandidateConfirmedByContent(t *testing.T) {
	listings := &fakeListings{pages: [][]types.Filing{{candidateFiling("F1")}}}
	docs := &fakeDocs{docs: map[string]string{"F1": purchaseDoc}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, docs, notifier, store, nil, zerolog.Nop())
	stats, matches, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Notified)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Confirmed)
}

func TestRun_CandidateRejectedByContent(t *testing.T) {
	doc := `<html><body>보고사유: 주식배당</body></html>`
	listings := &fakeListings{pages: [][]types.Filing{{candidateFiling("F1")}}}
	docs := &fakeDocs{docs: map[string]string{"F1": doc}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, docs, notifier, store, nil, zerolog.Nop())
	stats, matches, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rejected)
	assert.Empty(t, matches)
	assert.True(t, store.IsNew("F1")) // rejected filings are not consumed
}

func TestRun_SecondRunSkipsDuplicate(t *testing.T) {
	seenPath := filepath.Join(t.TempDir(), "seen.json")
	listings := &fakeListings{pages: [][]types.Filing{{purchaseFiling("F1")}}}
	docs := &fakeDocs{docs: map[string]string{"F1": purchaseDoc}}

	first := &fakeNotifier{}
	p := New(defaultConfig(), listings, docs, first, newSeenStore(t, seenPath), nil, zerolog.Nop())
	_, _, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.notified, 1)

	// Fresh process: reload the persisted set.
	second := &fakeNotifier{}
	p2 := New(defaultConfig(), listings, docs, second, newSeenStore(t, seenPath), nil, zerolog.Nop())
	stats, matches, err := p2.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, second.notified)
	assert.Empty(t, matches)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestRun_DocFetchFailureSkipsFilingNotRun(t *testing.T) {
	cfg := defaultConfig()
	cfg.KeepUnfetched = false

	listings := &fakeListings{pages: [][]types.Filing{{
		candidateFiling("F1"),
		purchaseFiling("F2"),
	}}}
	docs := &fakeDocs{
		docs: map[string]string{"F2": purchaseDoc},
		errs: map[string]error{"F1": errors.New("timeout after 3 attempts")},
	}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(cfg, listings, docs, notifier, store, nil, zerolog.Nop())
	stats, matches, err := p.Run(context.Background())

	require.NoError(t, err) // run is non-fatal
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Notified)
	require.Len(t, matches, 1)
	assert.Equal(t, "F2", matches[0].ID)
}

func TestRun_UnfetchedCandidateKeptForReview(t *testing.T) {
	listings := &fakeListings{pages: [][]types.Filing{{candidateFiling("F1")}}}
	docs := &fakeDocs{errs: map[string]error{"F1": errors.New("timeout")}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, docs, notifier, store, nil, zerolog.Nop())
	stats, matches, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Notified)
	assert.Equal(t, 1, stats.NeedReview)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].Confirmed)
}

func TestRun_ContentVetoesCompoundTitle(t *testing.T) {
	doc := `<html><body>본 보고서는 주식배당에 관한 내용입니다.</body></html>`
	listings := &fakeListings{pages: [][]types.Filing{{purchaseFiling("F1")}}}
	docs := &fakeDocs{docs: map[string]string{"F1": doc}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, docs, notifier, store, nil, zerolog.Nop())
	stats, _, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rejected)
	assert.Empty(t, notifier.notified)
}

func TestRun_TitleVerdictStandsWithoutConfirmPolicy(t *testing.T) {
	cfg := defaultConfig()
	cfg.ConfirmViaContent = false

	listings := &fakeListings{pages: [][]types.Filing{{purchaseFiling("F1")}}}
	docs := &fakeDocs{}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(cfg, listings, docs, notifier, store, nil, zerolog.Nop())
	stats, matches, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Notified)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Confirmed)
	assert.Equal(t, 0, docs.calls) // confirmed title, no content pass requested
}

func TestRun_NotifierFailureStillMarksSeen(t *testing.T) {
	seenPath := filepath.Join(t.TempDir(), "seen.json")
	listings := &fakeListings{pages: [][]types.Filing{{purchaseFiling("F1")}}}
	docs := &fakeDocs{docs: map[string]string{"F1": purchaseDoc}}
	notifier := &fakeNotifier{err: errors.New("sink unavailable")}
	store := newSeenStore(t, seenPath)

	p := New(defaultConfig(), listings, docs, notifier, store, nil, zerolog.Nop())
	_, _, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.False(t, store.IsNew("F1")) // one delivery attempt per filing
}

func TestRun_ListingFailureIsNonFatal(t *testing.T) {
	listings := &fakeListings{err: errors.New("registry down")}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, &fakeDocs{}, notifier, store, nil, zerolog.Nop())
	stats, _, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Empty(t, notifier.notified)
}

func TestRun_PaginationWalksAllPages(t *testing.T) {
	listings := &fakeListings{pages: [][]types.Filing{
		{purchaseFiling("F1")},
		{purchaseFiling("F2")},
	}}
	docs := &fakeDocs{docs: map[string]string{"F1": purchaseDoc, "F2": purchaseDoc}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, docs, notifier, store, nil, zerolog.Nop())
	stats, _, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Listed)
	assert.Equal(t, 2, stats.Notified)
}

func TestRun_MaxPagesBoundsPagination(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPages = 1

	listings := &fakeListings{pages: [][]types.Filing{
		{purchaseFiling("F1")},
		{purchaseFiling("F2")},
	}}
	docs := &fakeDocs{docs: map[string]string{"F1": purchaseDoc, "F2": purchaseDoc}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(cfg, listings, docs, notifier, store, nil, zerolog.Nop())
	stats, _, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Listed)
}

func TestRun_SummarizerAttachedWhenDocumentPresent(t *testing.T) {
	var summarized int
	summarize := func(_ context.Context, text string) (*ai.Analysis, error) {
		summarized++
		return &ai.Analysis{Summary: []string{"bought shares"}}, nil
	}

	listings := &fakeListings{pages: [][]types.Filing{{purchaseFiling("F1")}}}
	docs := &fakeDocs{docs: map[string]string{"F1": purchaseDoc}}
	notifier := &fakeNotifier{}
	store := newSeenStore(t, filepath.Join(t.TempDir(), "seen.json"))

	p := New(defaultConfig(), listings, docs, notifier, store, summarize, zerolog.Nop())
	_, _, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summarized)
}
