// Package vocaro resolves Korean vocaloid lyrics translations on the Vocaro
// wiki. The wiki's own search is weak, so lookups go through the resolve
// pipeline.
package vocaro

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/providers/common"
	"github.com/RanolP/imakaraokay/internal/resolve"
)

const (
	defaultEndpoint = "http://vocaro.wikidot.com"
	maxItems        = 5
	maxLinks        = 10
)

var (
	excludedPaths  = []string{"/forum/", "/system:", "/artist:", "/album:"}
	navigationText = []string{"전체", "목록"}
)

type Config struct {
	Endpoint       string
	Fetcher        crawl.Fetcher
	Fallback       resolve.DomainSearcher
	Investigator   resolve.PageInvestigator
	CrossReference []resolve.KaraokeSearcher
	Logger         *slog.Logger
}

type Provider struct {
	pipeline *resolve.Pipeline
	logger   *slog.Logger
}

func NewProvider(cfg Config) *Provider {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.String("provider", "vocaro"))

	return &Provider{
		pipeline: resolve.NewPipeline(resolve.Config{
			Site:           &site{endpoint: endpoint, fetcher: cfg.Fetcher, logger: logger},
			Fallback:       cfg.Fallback,
			Investigator:   cfg.Investigator,
			Fetcher:        cfg.Fetcher,
			CrossReference: cfg.CrossReference,
			Logger:         logger,
		}),
		logger: logger,
	}
}

func (p *Provider) Name() string {
	return "vocaro"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "Vocaro Wiki",
		Kind:    domain.ProviderKindLyrics,
		Enabled: true,
	}
}

func (p *Provider) Search(ctx context.Context, query domain.Query) []domain.LyricsResult {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return []domain.LyricsResult{}
	}
	resolved := p.pipeline.Resolve(ctx, text)

	results := make([]domain.LyricsResult, 0, len(resolved))
	seen := make(map[string]struct{}, len(resolved))
	for _, result := range resolved {
		results = common.AppendLyrics(results, seen, result)
	}
	p.logger.DebugContext(ctx, "Vocaro search finished", slog.Int("count", len(results)))
	return results
}

type site struct {
	endpoint string
	fetcher  crawl.Fetcher
	logger   *slog.Logger
}

func (s *site) Name() string {
	return "vocaro"
}

func (s *site) Domain() string {
	if parsed, err := url.Parse(s.endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return strings.TrimPrefix(strings.TrimPrefix(s.endpoint, "https://"), "http://")
}

func (s *site) LyricsSource() domain.LyricsSource {
	return domain.SourceVocaro
}

func (s *site) DirectSearch(ctx context.Context, query string) []domain.LyricsResult {
	searchURL := s.endpoint + "/search:site/q/" + url.PathEscape(query)
	resp, err := s.fetcher.Fetch(ctx, searchURL)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		s.logger.WarnContext(ctx, "vocaro direct search failed", slog.String("error", err.Error()))
		return nil
	}
	doc, err := document.Parse(resp.Body)
	if err != nil {
		s.logger.WarnContext(ctx, "vocaro search page unreadable", slog.String("error", err.Error()))
		return nil
	}
	return parseSearchResults(doc, s.endpoint)
}

// GuessURLs builds page slugs from the query: as typed, hyphen-joined and
// concatenated, all lowercase. Only whitespace is rewritten.
func (s *site) GuessURLs(query string) []string {
	lower := strings.ToLower(strings.TrimSpace(query))
	words := strings.Fields(lower)
	slugs := []string{
		lower,
		strings.Join(words, "-"),
		strings.Join(words, ""),
	}
	urls := make([]string, 0, len(slugs))
	seen := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		guess := s.endpoint + "/" + url.PathEscape(slug)
		if _, dup := seen[guess]; dup {
			continue
		}
		seen[guess] = struct{}{}
		urls = append(urls, guess)
	}
	return urls
}

func parseSearchResults(doc *document.Document, base string) []domain.LyricsResult {
	results := make([]domain.LyricsResult, 0, maxItems)
	seen := make(map[string]struct{})

	for index, item := range doc.Find(".search-results .w-item, .list-pages-item").EachIter() {
		if index >= maxItems {
			break
		}
		link := item.Find(".title a, h1 a, a").First()
		title := document.TextOf(link)
		if title == "" {
			title = document.TextOf(item.Find(".w-title"))
		}
		href := document.AttrOf(link, "href")
		if title == "" || href == "" {
			continue
		}
		results = common.AppendLyrics(results, seen, domain.LyricsResult{
			Title:  title,
			URL:    common.ResolveURL(base, href),
			Source: domain.SourceVocaro,
		})
	}
	if len(results) > 0 {
		return results
	}

	for index, link := range doc.Find(`a[href^="/"], a[href*="vocaro"]`).EachIter() {
		if index >= maxLinks {
			break
		}
		href := document.AttrOf(link, "href")
		text := document.TextOf(link)
		if href == "" || len([]rune(text)) <= 3 || isNavigation(href, text) {
			continue
		}
		results = common.AppendLyrics(results, seen, domain.LyricsResult{
			Title:  text,
			URL:    common.ResolveURL(base, href),
			Source: domain.SourceVocaro,
		})
	}
	return results
}

func isNavigation(href, text string) bool {
	for _, path := range excludedPaths {
		if strings.Contains(href, path) {
			return true
		}
	}
	for _, word := range navigationText {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
