// Package ky searches the KY (Kumyoung) karaoke catalog by title.
package ky

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/providers/common"
)

const (
	defaultEndpoint = "https://kysing.kr/search/"
	titleCategory   = "2"
	headerIDText    = "곡번호"
)

type Config struct {
	Endpoint string
	Fetcher  crawl.Fetcher
	Logger   *slog.Logger
	MaxPages int
}

type Provider struct {
	endpoint string
	fetcher  crawl.Fetcher
	logger   *slog.Logger
	maxPages int
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
		logger:   logger.With(slog.String("provider", "ky")),
		maxPages: cfg.MaxPages,
	}
}

func (p *Provider) Name() string {
	return "ky"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "KY Karaoke",
		Kind:    domain.ProviderKindKaraoke,
		Enabled: true,
	}
}

func (p *Provider) Search(ctx context.Context, query domain.Query) []domain.KaraokeResult {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return []domain.KaraokeResult{}
	}
	p.logger.DebugContext(ctx, "searching KY", slog.String("query", text))

	listing := crawl.NewListing(crawl.Config{
		Fetcher:  p.fetcher,
		Logger:   p.logger,
		MaxPages: p.maxPages,
	}, func(page int) string {
		return p.pageURL(text, page)
	}, extractPage)

	results := common.CollectKaraoke(ctx, p.logger, p.Name(), listing.Records(ctx), query.Limit(domain.DefaultKaraokeMaxResults))
	p.logger.DebugContext(ctx, "KY search finished", slog.Int("count", len(results)))
	return results
}

func (p *Provider) pageURL(query string, page int) string {
	values := url.Values{}
	values.Set("category", titleCategory)
	values.Set("keyword", query)
	values.Set("s_page", strconv.Itoa(page))
	return p.endpoint + "?" + values.Encode()
}

// extractPage skips the column header row, which KY renders with the same
// markup as data rows. A page holding only the header counts as empty.
func extractPage(doc *document.Document, page int) ([]domain.KaraokeResult, error) {
	var results []domain.KaraokeResult
	for _, row := range doc.Find(".search_chart_list").EachIter() {
		rawID := document.TextOf(row.Find("li.search_chart_num"))
		if rawID == headerIDText {
			continue
		}
		if !common.IsDigits(rawID) {
			return results, &crawl.InvalidRecordError{Page: page, Field: "id", Raw: rawID}
		}
		title := document.TextOf(row.Find("li.search_chart_tit span.tit:not(.mo-art)"))
		if title == "" {
			continue
		}
		results = append(results, domain.KaraokeResult{
			ID:          rawID,
			Title:       title,
			Artist:      document.TextOf(row.Find("li.search_chart_sng")),
			Source:      domain.SourceKY,
			Lyricist:    document.TextOf(row.Find("li.search_chart_wrt")),
			Composer:    document.TextOf(row.Find("li.search_chart_cmp")),
			ReleaseDate: document.TextOf(row.Find("li.search_chart_rel")),
			YouTube:     document.AttrOf(row.Find("li.search_chart_ytb > a"), "href"),
		})
	}
	return results, nil
}
