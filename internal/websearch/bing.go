// Package websearch runs domain-restricted queries against a general web
// search engine for sources whose own search is weak.
package websearch

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/fetch"
)

const (
	defaultEndpoint = "https://www.bing.com/search"
	maxCount        = 20
	noSnippet       = "No description available"
)

var snippetSelectors = []string{".b_caption p", ".b_snippet", ".b_caption", ".b_descript"}

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`
}

type Config struct {
	Endpoint string
	Fetcher  crawl.Fetcher
	Logger   *slog.Logger
}

type Bing struct {
	endpoint string
	fetcher  crawl.Fetcher
	logger   *slog.Logger
}

func NewBing(cfg Config) *Bing {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bing{
		endpoint: endpoint,
		fetcher:  cfg.Fetcher,
		logger:   logger.With(slog.String("component", "bing")),
	}
}

// SearchDomain queries "<query> site:<domain>" and keeps at most maxResults
// links whose URL contains domain.
func (b *Bing) SearchDomain(ctx context.Context, query, domain string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	values := url.Values{}
	values.Set("q", query+" site:"+domain)
	values.Set("count", strconv.Itoa(min(maxResults*2, maxCount)))
	searchURL := b.endpoint + "?" + values.Encode()
	b.logger.DebugContext(ctx, "web search", slog.String("url", searchURL))

	resp, err := b.fetcher.Fetch(ctx, searchURL,
		fetch.WithHeader("Accept-Language", "en-US,en;q=0.5"),
		fetch.WithHeader("DNT", "1"),
	)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("web search failed: %w", resp.Err())
	}
	doc, err := document.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	results := parseResults(doc, domain, maxResults)
	b.logger.DebugContext(ctx, "web search finished", slog.String("domain", domain), slog.Int("count", len(results)))
	return results, nil
}

// parseResults tries the result selectors in order and stops at the first
// one that yields anything. If none does, every anchor on the page is
// considered.
func parseResults(doc *document.Document, domain string, maxResults int) []Result {
	selectors := []string{
		".b_algo h2 a",
		".b_title a",
		".b_algo .b_title a",
		fmt.Sprintf(`h2 a[href*=%q]`, domain),
		fmt.Sprintf(`a[href*=%q]`, domain),
	}

	var results []Result
	seen := make(map[string]struct{})
	for _, selector := range selectors {
		for _, link := range doc.Find(selector).EachIter() {
			if len(results) >= maxResults {
				break
			}
			title := document.TextOf(link)
			target, ok := resultURL(document.AttrOf(link, "href"), domain)
			if title == "" || !ok {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			results = append(results, Result{
				Title:   title,
				URL:     target,
				Snippet: snippetFor(link),
				Domain:  domain,
			})
		}
		if len(results) > 0 {
			return results
		}
	}

	for _, link := range doc.Find("a").EachIter() {
		if len(results) >= maxResults {
			break
		}
		title := document.TextOf(link)
		if len([]rune(title)) < 5 {
			continue
		}
		target, ok := resultURL(document.AttrOf(link, "href"), domain)
		if !ok {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		results = append(results, Result{Title: title, URL: target, Snippet: "Found via general search", Domain: domain})
	}
	return results
}

// resultURL unwraps Bing click-tracking links and rejects anything that is
// internal to the engine or outside domain.
func resultURL(href, domain string) (string, bool) {
	if href == "" {
		return "", false
	}
	target := href
	if strings.HasPrefix(href, "/aclk?") || strings.Contains(href, "bing.com/ck/") {
		if unwrapped, ok := unwrapRedirect(href); ok {
			target = unwrapped
		}
	}
	if strings.HasPrefix(target, "/") || strings.Contains(target, "bing.com") {
		return "", false
	}
	if !strings.Contains(target, domain) {
		return "", false
	}
	return target, true
}

func unwrapRedirect(href string) (string, bool) {
	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	query := parsed.Query()
	if u := query.Get("u"); u != "" {
		// Current Bing links carry "a1" + unpadded base64url of the target.
		if strings.HasPrefix(u, "a1") {
			if decoded, err := base64.RawURLEncoding.DecodeString(u[2:]); err == nil {
				return string(decoded), true
			}
		}
		return u, true
	}
	if u := query.Get("url"); u != "" {
		return u, true
	}
	return "", false
}

func snippetFor(link *goquery.Selection) string {
	container := link.Closest(".b_algo, .b_caption")
	if container.Length() == 0 {
		return noSnippet
	}
	for _, selector := range snippetSelectors {
		if snippet := container.Find(selector).First(); snippet.Length() > 0 {
			if text := document.TextOf(snippet); text != "" {
				return text
			}
		}
	}
	for _, node := range container.Find("span, div").EachIter() {
		text := document.TextOf(node)
		length := len([]rune(text))
		if length > 50 && length < 300 && !strings.Contains(text, "http") {
			return text
		}
	}
	return noSnippet
}
