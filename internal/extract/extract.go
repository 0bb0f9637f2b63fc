/*
Package extract pulls structured purchase details out of filing documents.

Extraction is best-effort and never fails: a label/value table scan runs
first, then ordered regex fallback strategies fill any field still at the
unknown sentinel. Extracted values stay display strings because the registry
mixes units inconsistently.
*/
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ywkim/kindwatch/internal/types"
)

// labelRule maps table labels onto a details field. A label matches when it
// contains any of keys and, when qualify is non-empty, any of qualify too.
type labelRule struct {
	keys    []string
	qualify []string
	field   func(*types.PurchaseDetails) *string
}

var labelRules = []labelRule{
	{
		keys:  []string{"보고자", "성명", "reporter", "name"},
		field: func(d *types.PurchaseDetails) *string { return &d.Reporter },
	},
	{
		keys:  []string{"직위", "관계", "position", "relationship"},
		field: func(d *types.PurchaseDetails) *string { return &d.Position },
	},
	{
		keys:  []string{"매수일", "취득일", "purchase date", "acquisition date"},
		field: func(d *types.PurchaseDetails) *string { return &d.PurchaseDate },
	},
	{
		keys:  []string{"매수주식수", "주식수", "share count"},
		field: func(d *types.PurchaseDetails) *string { return &d.Shares },
	},
	{
		keys:  []string{"매수금액", "취득금액", "amount"},
		field: func(d *types.PurchaseDetails) *string { return &d.Amount },
	},
	{
		keys:    []string{"소유비율", "비율", "ownership ratio"},
		qualify: []string{"변동전", "변동 전", "before"},
		field:   func(d *types.PurchaseDetails) *string { return &d.OwnershipBefore },
	},
	{
		keys:    []string{"소유비율", "비율", "ownership ratio"},
		qualify: []string{"변동후", "변동 후", "after"},
		field:   func(d *types.PurchaseDetails) *string { return &d.OwnershipAfter },
	},
	{
		keys:  []string{"보고사유", "취득사유", "reason"},
		field: func(d *types.PurchaseDetails) *string { return &d.Reason },
	},
}

func (r labelRule) matches(label string) bool {
	hit := false
	for _, k := range r.keys {
		if strings.Contains(label, k) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	if len(r.qualify) == 0 {
		return true
	}
	for _, q := range r.qualify {
		if strings.Contains(label, q) {
			return true
		}
	}
	return false
}

// strategy is one fallback extractor: pure text in, optional value out.
// Strategies per field run in order and short-circuit on first success.
type strategy func(text string) (string, bool)

var (
	numericDateRe = regexp.MustCompile(`\d{4}[.\-/]\s*\d{1,2}[.\-/]\s*\d{1,2}`)
	koreanDateRe  = regexp.MustCompile(`\d{4}년\s*\d{1,2}월\s*\d{1,2}일`)
	sharesRe      = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+|\d+)\s*(주|shares)`)
	amountRe      = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+|\d+)\s*(원|won|krw)`)
	percentRe     = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)
)

func regexStrategy(re *regexp.Regexp) strategy {
	return func(text string) (string, bool) {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
		return "", false
	}
}

// unitSuffixStrategy captures a separated number and its unit marker, joined
// without the intervening whitespace ("1,000 shares" -> "1,000shares").
func unitSuffixStrategy(re *regexp.Regexp) strategy {
	return func(text string) (string, bool) {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1] + m[2], true
		}
		return "", false
	}
}

var (
	dateStrategies   = []strategy{regexStrategy(numericDateRe), regexStrategy(koreanDateRe)}
	sharesStrategies = []strategy{unitSuffixStrategy(sharesRe)}
	amountStrategies = []strategy{unitSuffixStrategy(amountRe)}
)

// Extractor performs best-effort field extraction from document markup.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract scans the document for label/value table pairs, then applies
// fallback strategies over the plain text for anything still unknown. It
// always returns a usable structure; partial extraction is expected.
func (e *Extractor) Extract(document string) types.PurchaseDetails {
	details := types.NewPurchaseDetails()
	plain := document

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err == nil {
		e.scanTables(doc, &details)
		plain = doc.Text()
	}

	applyStrategies(&details.PurchaseDate, plain, dateStrategies)
	applyStrategies(&details.Shares, plain, sharesStrategies)
	applyStrategies(&details.Amount, plain, amountStrategies)
	e.fillOwnership(&details, plain)

	return details
}

// scanTables walks every table row and assigns adjacent cell pairs through
// the label rules. First match per field wins; later conflicting pairs for an
// already-filled field are ignored.
func (e *Extractor) scanTables(doc *goquery.Document, details *types.PurchaseDetails) {
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			label := strings.ToLower(strings.TrimSpace(cells.Eq(i).Text()))
			value := strings.TrimSpace(cells.Eq(i + 1).Text())
			if label == "" || value == "" {
				continue
			}

			for _, rule := range labelRules {
				if !rule.matches(label) {
					continue
				}
				if f := rule.field(details); *f == types.Unknown {
					*f = value
				}
			}
		}
	})
}

// fillOwnership assigns the first percentage in the text to the "before"
// ratio and the next distinct percentage to "after", for whichever of the two
// the table scan left unknown.
func (e *Extractor) fillOwnership(details *types.PurchaseDetails, text string) {
	if details.OwnershipBefore != types.Unknown && details.OwnershipAfter != types.Unknown {
		return
	}

	percents := percentRe.FindAllString(text, -1)
	for i := range percents {
		percents[i] = strings.TrimSpace(percents[i])
	}
	if len(percents) == 0 {
		return
	}

	if details.OwnershipBefore == types.Unknown {
		details.OwnershipBefore = percents[0]
	}
	if details.OwnershipAfter == types.Unknown {
		for _, p := range percents[1:] {
			if p != details.OwnershipBefore {
				details.OwnershipAfter = p
				break
			}
		}
	}
}

func applyStrategies(field *string, text string, strategies []strategy) {
	if *field != types.Unknown {
		return
	}
	for _, s := range strategies {
		if v, ok := s(text); ok {
			*field = v
			return
		}
	}
}
