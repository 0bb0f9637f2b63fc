package kind

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/ywkim/kindwatch/internal/retry"
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// FetchDocument retrieves the full document body for a filing. The viewer
// endpoint returns either an HTML body or a zip archive of HTML members; zip
// members are decoded and concatenated in archive order.
func (c *Client) FetchDocument(ctx context.Context, id string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	docURL := fmt.Sprintf("%s%s?method=search&acptno=%s", c.baseURL, viewerPath, url.QueryEscape(id))

	var body []byte
	err := retry.Do(ctx, c.attempts, c.delay, func() error {
		var err error
		body, err = c.fetchBytes(ctx, docURL)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("document %s: %w", id, err)
	}

	if bytes.HasPrefix(body, zipMagic) {
		text, err := extractArchiveText(body)
		if err != nil {
			return "", fmt.Errorf("document %s: %w", id, err)
		}
		return text, nil
	}

	return decodeText(body), nil
}

func (c *Client) fetchBytes(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("failed to close document response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-OK status code %d from viewer", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// extractArchiveText concatenates the decoded text of every markup-bearing
// member of a zip archive.
func extractArchiveText(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open document archive: %w", err)
	}

	var sb strings.Builder
	for _, member := range r.File {
		if !isMarkupMember(member.Name) {
			continue
		}

		f, err := member.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
		}
		content, err := io.ReadAll(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("failed to read archive member %s: %w", member.Name, err)
		}

		sb.WriteString(decodeText(content))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func isMarkupMember(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".htm", ".html", ".xml", ".xhtml":
		return true
	}
	return false
}

// decodeText tries UTF-8 first, then EUC-KR, which the registry still serves
// for older filings. Undecodable bytes fall through verbatim.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), b)
	if err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}

	return string(b)
}
