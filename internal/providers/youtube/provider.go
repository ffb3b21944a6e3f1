// Package youtube provides search suggestions from YouTube's autocomplete
// endpoint.
package youtube

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/fetch"
	"github.com/RanolP/imakaraokay/internal/providers/common"
)

const defaultEndpoint = "http://suggestqueries.google.com/complete/search"

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
	endpoint := strings.TrimSpace(cfg.Endpoint)
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
		logger:   logger.With(slog.String("provider", "youtube")),
	}
}

func (p *Provider) Name() string {
	return "youtube"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "YouTube Autocomplete",
		Kind:    domain.ProviderKindAutocomplete,
		Enabled: true,
	}
}

func (p *Provider) Suggestions(ctx context.Context, query domain.Query) []domain.AutocompleteResult {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return []domain.AutocompleteResult{}
	}
	values := url.Values{}
	values.Set("client", "firefox")
	values.Set("ds", "yt")
	values.Set("q", text)

	resp, err := p.fetcher.Fetch(ctx, p.endpoint+"?"+values.Encode(),
		fetch.WithHeader("Accept", "application/json, text/javascript, */*"),
	)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		p.logger.WarnContext(ctx, "youtube suggestions failed", slog.String("error", err.Error()))
		return []domain.AutocompleteResult{}
	}
	results, err := parseSuggestions(resp.Body)
	if err != nil {
		p.logger.WarnContext(ctx, "youtube suggestions unreadable", slog.String("error", err.Error()))
		return []domain.AutocompleteResult{}
	}
	p.logger.DebugContext(ctx, "youtube suggestions", slog.Int("count", len(results)))
	return results
}

// parseSuggestions reads ["query", ["s1", "s2", ...], ...], plain or JSONP.
// Some clients entity-escape the suggestions.
func parseSuggestions(body []byte) ([]domain.AutocompleteResult, error) {
	payload, err := document.ParseJSON(body)
	if err != nil {
		return nil, err
	}
	suggestions := payload.Strings("1")
	results := make([]domain.AutocompleteResult, 0, len(suggestions))
	for _, suggestion := range suggestions {
		if suggestion = common.CleanHTMLText(suggestion); suggestion != "" {
			results = append(results, domain.AutocompleteResult{Suggestion: suggestion, Source: domain.SourceYouTube})
		}
	}
	return results, nil
}
