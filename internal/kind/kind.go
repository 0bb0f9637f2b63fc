/*
Package kind retrieves filing metadata and documents from the KIND disclosure
registry (kind.krx.co.kr).

The registry serves legacy server-rendered HTML: listings are table markup,
documents are either HTML bodies or zipped archives of HTML members, and
encodings vary between UTF-8 and EUC-KR. Requests are throttled and retried;
the registry's throughput tolerances are undocumented.
*/
package kind

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/ywkim/kindwatch/internal/retry"
	"github.com/ywkim/kindwatch/internal/types"
)

const (
	defaultBaseURL = "https://kind.krx.co.kr"
	listPath       = "/disclosure/details.do"
	viewerPath     = "/common/disclsviewer.do"

	defaultPageSize = 100
)

var (
	acptnoRe = regexp.MustCompile(`acptno=(\d+)`)
	isurCdRe = regexp.MustCompile(`isurCd=([A-Za-z0-9]+)`)
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL     string
	PageSize    int
	MaxAttempts int
	RetryDelay  time.Duration
	Delay       time.Duration // minimum spacing between registry requests
	Timezone    *time.Location
	HTTPClient  *http.Client
}

// Client is the HTTP client for the registry's listing and viewer endpoints.
type Client struct {
	http     *http.Client
	baseURL  string
	pageSize int
	attempts int
	delay    time.Duration
	limiter  *rate.Limiter
	loc      *time.Location
	log      zerolog.Logger
}

// NewClient creates a registry client.
func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &Client{
		http:     opts.HTTPClient,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		pageSize: opts.PageSize,
		attempts: opts.MaxAttempts,
		delay:    opts.RetryDelay,
		limiter:  rate.NewLimiter(limit, 1),
		loc:      opts.Timezone,
		log:      log.With().Str("component", "kind").Logger(),
	}
}

// List fetches one page of filing metadata for the date range. hasMore is
// true when the page was full, meaning pagination should continue (subject to
// the caller's page ceiling).
func (c *Client) List(ctx context.Context, from, to time.Time, page int) ([]types.Filing, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	form := url.Values{
		"method":          {"searchDetailsSub"},
		"currentPageSize": {fmt.Sprintf("%d", c.pageSize)},
		"pageIndex":       {fmt.Sprintf("%d", page)},
		"fromDate":        {from.In(c.loc).Format("2006-01-02")},
		"toDate":          {to.In(c.loc).Format("2006-01-02")},
		"reportNm":        {""},
	}

	var filings []types.Filing
	err := retry.Do(ctx, c.attempts, c.delay, func() error {
		var err error
		filings, err = c.fetchListingPage(ctx, form)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("listing page %d: %w", page, err)
	}

	c.log.Debug().Int("page", page).Int("filings", len(filings)).Msg("fetched listing page")
	return filings, len(filings) >= c.pageSize, nil
}

func (c *Client) fetchListingPage(ctx context.Context, form url.Values) ([]types.Filing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+listPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("failed to close listing response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-OK status code %d from listing", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		// Unparseable payload is treated as a zero-result page, never fatal.
		c.log.Warn().Err(err).Msg("malformed listing payload, treating as empty page")
		return nil, nil
	}

	return c.collectFilings(doc), nil
}

// collectFilings walks the listing table body. Expected columns per row:
// submission time, issuer (link carries the issuer code), title (link carries
// the receipt number), filer, remark.
func (c *Client) collectFilings(doc *html.Node) []types.Filing {
	var filings []types.Filing
	var inTableBody bool
	var current types.Filing

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tbody" {
			inTableBody = true
		}

		if inTableBody && n.Type == html.ElementNode && n.Data == "tr" {
			current = types.Filing{}
			tdCount := 0
			for cell := n.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && cell.Data == "td" {
					tdCount++
					c.processListingCell(cell, tdCount, &current)
				}
			}

			if current.ID != "" {
				filings = append(filings, current)
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			f(child)
		}
	}

	f(doc)
	return filings
}

func (c *Client) processListingCell(n *html.Node, tdIndex int, filing *types.Filing) {
	switch tdIndex {
	case 1: // submission date/time
		text := strings.TrimSpace(extractText(n))
		cleaned := regexp.MustCompile(`[\n\t\r\s\xA0]+`).ReplaceAllString(text, " ")
		cleaned = strings.TrimSpace(cleaned)

		for _, layout := range []string{"2006.01.02 15:04", "2006.01.02", "2006-01-02 15:04", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, cleaned, c.loc); err == nil {
				filing.SubmittedAt = t
				return
			}
		}
		c.log.Warn().Str("value", cleaned).Msg("failed to parse submission date")

	case 2: // issuer name and code
		filing.Issuer = strings.TrimSpace(extractText(n))
		if a := findAnchor(n); a != nil {
			if href := anchorAttr(a, "href"); href != "" {
				if m := isurCdRe.FindStringSubmatch(href); m != nil {
					filing.IssuerCode = m[1]
				}
			}
		}

	case 3: // title and receipt number
		a := findAnchor(n)
		if a == nil {
			return
		}
		filing.Title = strings.TrimSpace(extractText(a))

		for _, attr := range []string{"href", "onclick"} {
			if v := anchorAttr(a, attr); v != "" {
				if m := acptnoRe.FindStringSubmatch(v); m != nil {
					filing.ID = m[1]
					return
				}
			}
		}

	case 4: // filer display name
		filing.Filer = strings.TrimSpace(extractText(n))

	case 5: // remark
		filing.Remark = strings.TrimSpace(extractText(n))
	}
}

func findAnchor(n *html.Node) *html.Node {
	var aTag *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			aTag = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if aTag != nil {
				return
			}
			find(c)
		}
	}
	find(n)
	return aTag
}

func anchorAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	var extract func(*html.Node) string
	extract = func(n *html.Node) string {
		if n.Type == html.TextNode {
			return n.Data
		}
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sb.WriteString(extract(c))
		}
		return sb.String()
	}
	return extract(n)
}
