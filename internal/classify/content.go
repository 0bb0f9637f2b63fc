package classify

import (
	"regexp"
	"strings"
)

// contentPattern is one entry of the ordered pattern list. Exactly one of
// literal or re is set.
type contentPattern struct {
	name    string
	literal string
	re      *regexp.Regexp
}

func (p contentPattern) match(lower string) bool {
	if p.literal != "" {
		return strings.Contains(lower, p.literal)
	}
	return p.re.MatchString(lower)
}

// defaultContentPatterns covers the spacing and punctuation variants KIND
// documents use for the same semantic term. Cheap literals first.
var defaultContentPatterns = []contentPattern{
	{name: "장내매수", literal: "장내매수"},
	{name: "장내매수(spaced)", re: regexp.MustCompile(`장\s*내\s*매\s*수`)},
	{name: "open-market purchase", literal: "open-market purchase"},
	{name: "open-market purchase(spaced)", re: regexp.MustCompile(`open[\s-]*market\s+purchase`)},
	{name: "open-market acquisition", re: regexp.MustCompile(`open[\s-]*market\s+acquisition`)},
	{name: "market purchase", literal: "market purchase"},
}

// ContentClassifier scans full document text for purchase-pattern matches.
type ContentClassifier struct {
	patterns []contentPattern
}

// NewContentClassifier returns a classifier using the default pattern list.
func NewContentClassifier() *ContentClassifier {
	return &ContentClassifier{patterns: defaultContentPatterns}
}

// Classify applies the ordered pattern list over the case-normalized text and
// stops at the first match, returning the matching pattern name for audit
// logging. Empty text yields (false, nil): a "cannot determine" outcome, not
// a rejection. Caller policy decides what happens to the filing.
func (c *ContentClassifier) Classify(text string) (bool, []string) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	lower := strings.ToLower(text)
	for _, p := range c.patterns {
		if p.match(lower) {
			return true, []string{p.name}
		}
	}
	return false, nil
}
