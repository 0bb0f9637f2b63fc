package types

import (
	"time"
)

// Unknown is the sentinel value for details that extraction could not fill.
const Unknown = "N/A"

// Filing is a single disclosure record from the KIND registry, identified by
// its receipt number. Immutable once fetched.
type Filing struct {
	ID          string // receipt number, unique per filing
	Issuer      string
	IssuerCode  string
	Filer       string
	Title       string
	SubmittedAt time.Time
	Remark      string
}

// PurchaseDetails holds the best-effort structured extraction from a filing
// document. Numeric-looking values are kept as display strings because the
// source mixes units (shares, won, percent) inconsistently.
type PurchaseDetails struct {
	Reporter        string `json:"reporter"`
	Position        string `json:"position"`
	PurchaseDate    string `json:"purchase_date"`
	Shares          string `json:"purchase_shares"`
	Amount          string `json:"purchase_amount"`
	OwnershipBefore string `json:"ownership_before"`
	OwnershipAfter  string `json:"ownership_after"`
	Reason          string `json:"reason"`
}

// NewPurchaseDetails returns details with every field at the unknown sentinel.
func NewPurchaseDetails() PurchaseDetails {
	return PurchaseDetails{
		Reporter:        Unknown,
		Position:        Unknown,
		PurchaseDate:    Unknown,
		Shares:          Unknown,
		Amount:          Unknown,
		OwnershipBefore: Unknown,
		OwnershipAfter:  Unknown,
		Reason:          Unknown,
	}
}

// Match is a filing that classified as an open-market purchase, together with
// the evidence that produced the verdict and the extracted details.
type Match struct {
	Filing
	MatchedTerms []string        `json:"matched_terms"`
	Confirmed    bool            `json:"confirmed"` // false = kept for manual review
	Context      string          `json:"context,omitempty"`
	Details      PurchaseDetails `json:"details"`
}
