// Package musixmatch scrapes the MusixMatch track search page.
package musixmatch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/providers/common"
)

const (
	defaultEndpoint = "https://www.musixmatch.com"
	maxResults      = 5
)

type Config struct {
	Endpoint string
	Fetcher  crawl.Fetcher
	Logger   *slog.Logger
}

type Provider struct {
	endpoint string
	fetcher  crawl.Fetcher
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
	return &Provider{
		endpoint: endpoint,
		fetcher:  cfg.Fetcher,
		logger:   logger.With(slog.String("provider", "musixmatch")),
	}
}

func (p *Provider) Name() string {
	return "musixmatch"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "MusixMatch",
		Kind:    domain.ProviderKindLyrics,
		Enabled: true,
	}
}

func (p *Provider) Search(ctx context.Context, query domain.Query) []domain.LyricsResult {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return []domain.LyricsResult{}
	}
	searchURL := p.endpoint + "/search/" + url.PathEscape(text) + "/tracks"
	p.logger.DebugContext(ctx, "searching MusixMatch", slog.String("query", text))

	resp, err := p.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		p.logger.WarnContext(ctx, "musixmatch search failed", slog.String("error", err.Error()))
		return []domain.LyricsResult{}
	}
	if err := resp.Err(); err != nil {
		p.logger.WarnContext(ctx, "musixmatch search failed", slog.String("error", err.Error()))
		return []domain.LyricsResult{}
	}
	doc, err := document.Parse(resp.Body)
	if err != nil {
		p.logger.WarnContext(ctx, "musixmatch page unreadable", slog.String("error", err.Error()))
		return []domain.LyricsResult{}
	}

	results := parseSearchResults(doc, p.endpoint)
	p.logger.DebugContext(ctx, "MusixMatch search finished", slog.Int("count", len(results)))
	return results
}

func parseSearchResults(doc *document.Document, base string) []domain.LyricsResult {
	results := make([]domain.LyricsResult, 0, maxResults)
	seen := make(map[string]struct{}, maxResults)

	for index, card := range doc.Find(".track-list__item, .media-card, .track-card").EachIter() {
		if index >= maxResults {
			break
		}
		title := document.TextOf(card.Find(".track-name, .title, h2").First())
		href := document.AttrOf(card.Find(`a[href*="/lyrics/"]`), "href")
		if title == "" || href == "" {
			continue
		}
		results = common.AppendLyrics(results, seen, domain.LyricsResult{
			Title:  title,
			Artist: document.TextOf(card.Find(".artist-name, .artist, h3").First()),
			URL:    common.ResolveURL(base, href),
			Source: domain.SourceMusixMatch,
		})
	}
	if len(results) > 0 {
		return results
	}

	for index, link := range doc.Find(`a[href*="/lyrics/"]`).EachIter() {
		if index >= maxResults {
			break
		}
		title := document.TextOf(link)
		href := document.AttrOf(link, "href")
		if title == "" || href == "" {
			continue
		}
		results = common.AppendLyrics(results, seen, domain.LyricsResult{
			Title:  title,
			URL:    common.ResolveURL(base, href),
			Source: domain.SourceMusixMatch,
		})
	}
	return results
}
