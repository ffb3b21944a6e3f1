// Package vocadb completes song names against a VocaDB-family database.
// VocaDB and UtaiteDB share the same API, so one Provider type serves both
// instances.
package vocadb

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/fetch"
)

const (
	VocaDBEndpoint   = "https://vocadb.net"
	UtaiteDBEndpoint = "https://utaitedb.net"

	namesPath      = "/api/entries/names"
	maxSuggestions = 10
)

type Config struct {
	Name     string
	Label    string
	Endpoint string
	Source   domain.AutocompleteSource
	Fetcher  crawl.Fetcher
	Logger   *slog.Logger
}

type Provider struct {
	name     string
	label    string
	endpoint string
	source   domain.AutocompleteSource
	fetcher  crawl.Fetcher
	logger   *slog.Logger
}

func NewProvider(cfg Config) *Provider {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == "" {
		name = "vocadb"
	}
	label := strings.TrimSpace(cfg.Label)
	if label == "" {
		label = "VocaDB"
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = VocaDBEndpoint
	}
	source := cfg.Source
	if source == "" {
		source = domain.SourceVocaDB
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{
		name:     name,
		label:    label,
		endpoint: endpoint,
		source:   source,
		fetcher:  cfg.Fetcher,
		logger:   logger.With(slog.String("provider", name)),
	}
}

// NewVocaDB and NewUtaiteDB are the two known instances.
func NewVocaDB(fetcher crawl.Fetcher, endpoint string, logger *slog.Logger) *Provider {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = VocaDBEndpoint
	}
	return NewProvider(Config{Name: "vocadb", Label: "VocaDB", Endpoint: endpoint, Source: domain.SourceVocaDB, Fetcher: fetcher, Logger: logger})
}

func NewUtaiteDB(fetcher crawl.Fetcher, endpoint string, logger *slog.Logger) *Provider {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = UtaiteDBEndpoint
	}
	return NewProvider(Config{Name: "utaitedb", Label: "UtaiteDB", Endpoint: endpoint, Source: domain.SourceUtaiteDB, Fetcher: fetcher, Logger: logger})
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.name,
		Label:   p.label,
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
	values.Set("query", text)
	values.Set("nameMatchMode", "Auto")
	values.Set("maxResults", "10")

	resp, err := p.fetcher.Fetch(ctx, p.endpoint+namesPath+"?"+values.Encode(),
		fetch.WithHeader("Accept", "application/json"),
	)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		p.logger.WarnContext(ctx, "name completion failed", slog.String("error", err.Error()))
		return []domain.AutocompleteResult{}
	}
	payload, err := document.ParseJSON(resp.Body)
	if err != nil {
		p.logger.WarnContext(ctx, "name completion unreadable", slog.String("error", err.Error()))
		return []domain.AutocompleteResult{}
	}

	limit := query.Limit(maxSuggestions)
	results := make([]domain.AutocompleteResult, 0, limit)
	seen := make(map[string]struct{})
	for _, name := range payload.Strings("") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		results = append(results, domain.AutocompleteResult{Suggestion: name, Source: p.source})
		if len(results) >= limit {
			break
		}
	}
	return results
}
