/*
Package classify decides whether a KIND filing reports an insider open-market
purchase, first from the title alone and then from the document text.

Keyword and pattern policy lives in data tables so it can be tuned and tested
independently of the control flow.
*/
package classify

import "strings"

// Verdict is the outcome of title-level classification.
type Verdict int

const (
	Rejected Verdict = iota
	CandidatePurchase
	ConfirmedPurchase
)

func (v Verdict) String() string {
	switch v {
	case CandidatePurchase:
		return "candidate"
	case ConfirmedPurchase:
		return "confirmed"
	default:
		return "rejected"
	}
}

// TitleResult carries the verdict and the terms that produced it. Matched is
// empty for Rejected.
type TitleResult struct {
	Verdict Verdict
	Matched []string
}

// Default keyword tables. KIND titles mix Korean registry phrasing with
// English translations, so both spellings are carried.
var (
	// defaultPurchaseTerms alone are strong enough signal for a confirmed
	// title verdict.
	defaultPurchaseTerms = []string{
		"장내매수",
		"장내 매수",
		"open-market purchase",
		"open-market acquisition",
		"market purchase",
	}

	// defaultExclusionTerms are authoritative negative signal. Checked before
	// purchase terms and never overridden by them.
	defaultExclusionTerms = []string{
		"장내매도",
		"처분",
		"증여",
		"신규선임",
		"사임",
		"정정",
		"철회",
		"행사",
		"전환",
		"배당",
		"합병",
		"disposal",
		"gift",
		"new appointment",
		"resignation",
		"amendment",
		"cancellation",
		"exercise",
		"conversion",
		"dividend",
		"merger",
	}

	// defaultTopicalTerms mark a title as worth content-level confirmation
	// when no purchase term is present.
	defaultTopicalTerms = []string{
		"임원",
		"주요주주",
		"소유상황보고서",
		"executive",
		"insider",
		"major shareholder",
	}
)

// TitleClassifier is the fast first-pass filter over filing titles.
type TitleClassifier struct {
	purchase  []string
	exclusion []string
	topical   []string
}

// NewTitleClassifier returns a classifier using the default keyword tables.
func NewTitleClassifier() *TitleClassifier {
	return &TitleClassifier{
		purchase:  defaultPurchaseTerms,
		exclusion: defaultExclusionTerms,
		topical:   defaultTopicalTerms,
	}
}

// NewTitleClassifierWithTerms returns a classifier with caller-supplied tables.
func NewTitleClassifierWithTerms(purchase, exclusion, topical []string) *TitleClassifier {
	return &TitleClassifier{purchase: purchase, exclusion: exclusion, topical: topical}
}

// Classify inspects a title and returns a verdict. Matching is substring-based
// over the case-normalized title; exclusion terms win over any positive
// signal. A purchase term alone confirms; a topical term alone only nominates
// the filing for content-level confirmation.
func (c *TitleClassifier) Classify(title string) TitleResult {
	lower := strings.ToLower(title)

	for _, term := range c.exclusion {
		if strings.Contains(lower, term) {
			return TitleResult{Verdict: Rejected}
		}
	}

	var matched []string
	for _, term := range c.purchase {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	if len(matched) > 0 {
		return TitleResult{Verdict: ConfirmedPurchase, Matched: matched}
	}

	for _, term := range c.topical {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	if len(matched) > 0 {
		return TitleResult{Verdict: CandidatePurchase, Matched: matched}
	}

	return TitleResult{Verdict: Rejected}
}
