package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"
	"github.com/Adda-Baaj/newsscrape/pkg/httpclient"
	"github.com/Adda-Baaj/newsscrape/pkg/siterules"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes    = 2 << 20 // 2 MiB, enforced while reading
	defaultFetchTimeout = 4 * time.Second
)

// Extractor fetches article pages and pulls body text out of them using the
// site rule table.
type Extractor struct {
	client  httpclient.Client
	table   *siterules.Table
	timeout time.Duration
	headers map[string]string
}

// Options configures page fetching.
type Options struct {
	Timeout time.Duration
	Headers map[string]string
}

// New builds an Extractor. A nil table uses the built-in rules and a nil client
// gets a resty client bounded by the fetch timeout.
func New(client httpclient.Client, table *siterules.Table, opts Options) *Extractor {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if table == nil {
		table = siterules.Default()
	}
	if client == nil {
		client = httpclient.NewRestyClientWithOptions(httpclient.Options{
			Timeout:      opts.Timeout,
			MaxBodyBytes: maxHTMLBodyBytes,
		})
	}
	return &Extractor{
		client:  client,
		table:   table,
		timeout: opts.Timeout,
		headers: opts.Headers,
	}
}

// Rule returns the rule that applies to host.
func (e *Extractor) Rule(host string) siterules.SiteRule {
	return e.table.Lookup(host)
}

// ExtractPage fetches the candidate's page and returns its article text.
// Candidates without a base URL are skipped without any fetch. A non-nil error
// means the page could not be fetched or parsed; the text is then empty.
func (e *Extractor) ExtractPage(ctx context.Context, c domain.Candidate) (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Get(fetchCtx, c.URL, e.headers)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	if err := httpclient.CheckStatus(c.URL, resp); err != nil {
		return "", err
	}

	return ExtractHTML(resp.Body(), e.Rule(c.BaseURL))
}

// ExtractHTML parses body and applies rule to it.
func ExtractHTML(body []byte, rule siterules.SiteRule) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return Extract(doc, rule), nil
}

// Extract concatenates, in document order and without separators, the text of
// every paragraph element the rule selects. Paragraphs are searched inside the
// first matching container when one is configured and present, otherwise across
// the whole document.
func Extract(doc *goquery.Document, rule siterules.SiteRule) string {
	if doc == nil {
		return ""
	}

	scope := doc.Selection
	if rule.Container.Tag.Present() {
		if container := findAll(doc.Selection, rule.Container).First(); container.Length() > 0 {
			scope = container
		}
	}

	var sb strings.Builder
	findAll(scope, rule.Paragraph).Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
	})
	return sb.String()
}

// findAll returns the descendants of sel matching m, in document order.
func findAll(sel *goquery.Selection, m siterules.TagMatcher) *goquery.Selection {
	tag, ok := m.Tag.Get()
	if !ok {
		tag = "*"
	}
	found := sel.Find(tag)

	attr, ok := m.Attr.Get()
	if !ok {
		return found
	}
	return found.FilterFunction(func(_ int, s *goquery.Selection) bool {
		value, exists := s.Attr(attr)
		return exists && m.AcceptsValue(value)
	})
}
