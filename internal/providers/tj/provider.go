// Package tj searches the TJ Media accompaniment catalog by title.
package tj

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/providers/common"
)

const (
	defaultEndpoint = "https://www.tjmedia.com/song/accompaniment_search"
	pageRowCount    = 15
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
		logger:   logger.With(slog.String("provider", "tj")),
		maxPages: cfg.MaxPages,
	}
}

func (p *Provider) Name() string {
	return "tj"
}

func (p *Provider) Info() domain.ProviderInfo {
	return domain.ProviderInfo{
		Name:    p.Name(),
		Label:   "TJ Media",
		Kind:    domain.ProviderKindKaraoke,
		Enabled: true,
	}
}

func (p *Provider) Search(ctx context.Context, query domain.Query) []domain.KaraokeResult {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return []domain.KaraokeResult{}
	}
	p.logger.DebugContext(ctx, "searching TJ", slog.String("query", text))

	listing := crawl.NewListing(crawl.Config{
		Fetcher:  p.fetcher,
		Logger:   p.logger,
		MaxPages: p.maxPages,
	}, func(page int) string {
		return p.pageURL(text, page)
	}, extractPage)

	results := common.CollectKaraoke(ctx, p.logger, p.Name(), listing.Records(ctx), query.Limit(domain.DefaultKaraokeMaxResults))
	p.logger.DebugContext(ctx, "TJ search finished", slog.Int("count", len(results)))
	return results
}

func (p *Provider) pageURL(query string, page int) string {
	values := url.Values{}
	values.Set("pageNo", strconv.Itoa(page))
	values.Set("pageRowCnt", strconv.Itoa(pageRowCount))
	values.Set("nationType", "")
	values.Set("strType", "1")
	values.Set("strSotrGubun", "ASC")
	values.Set("strSortType", "indexTitle")
	values.Set("searchTxt", query)
	return p.endpoint + "?" + values.Encode()
}

func extractPage(doc *document.Document, page int) ([]domain.KaraokeResult, error) {
	var results []domain.KaraokeResult
	for _, row := range doc.Find(".chart-list-area > li > ul:not(.top)").EachIter() {
		rawID := document.TextOf(row.Find(".mo-title ~ span"))
		if !common.IsDigits(rawID) {
			return results, &crawl.InvalidRecordError{Page: page, Field: "id", Raw: rawID}
		}
		title := rowTitle(row)
		if title == "" {
			continue
		}
		results = append(results, domain.KaraokeResult{
			ID:       rawID,
			Title:    title,
			Artist:   document.TextOf(row.Find(".title4 p > span")),
			Source:   domain.SourceTJ,
			Tags:     rowTags(row),
			Lyricist: document.TextOf(row.Find(".title5 p > span")),
			Composer: document.TextOf(row.Find(".title6 p > span")),
			YouTube:  document.AttrOf(row.Find(".youtube > a"), "href"),
		})
	}
	return results, nil
}

// rowTitle joins the highlight fragments TJ splits a matched title into.
func rowTitle(row *goquery.Selection) string {
	span := row.Find(".title3 p > span").First()
	children := span.Children()
	if children.Length() == 0 {
		return document.TextOf(span)
	}
	var b strings.Builder
	for _, child := range children.EachIter() {
		b.WriteString(child.Text())
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func rowTags(row *goquery.Selection) []string {
	var tags []string
	for _, li := range row.Find(".title3 ul > li").EachIter() {
		if tag := document.TextOf(li); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
