package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/textnorm"
)

var (
	headingSelectors = []string{"h1", "h2", "h3", ".page-title", "#page-title", ".title", ".song-title"}

	boilerplate = []*regexp.Regexp{
		regexp.MustCompile(`^(작성자|작성일|수정|편집|삭제|목록|검색|메뉴)`),
		regexp.MustCompile(`^(http|www\.)`),
		regexp.MustCompile(`^\d+$`),
		regexp.MustCompile(`^(다음|이전|홈|뒤로)`),
		regexp.MustCompile(`(로그인|회원가입|비밀번호)`),
	}
)

// ExtractAlternateTitle looks for a Japanese song title on a page found for
// query. Headings are tried first, then the first short text block holding
// Japanese. It returns "" when nothing plausible is found.
func ExtractAlternateTitle(doc *document.Document, query string) string {
	for _, selector := range headingSelectors {
		for _, node := range doc.Find(selector).EachIter() {
			text := strings.TrimSpace(node.Text())
			if textnorm.ContainsJapanese(text) && !textnorm.Equal(text, query) && textnorm.RuneLen(text) > 1 && isLikelySongTitle(text) {
				return text
			}
		}
	}

	for _, node := range doc.Find("p, div, span").EachIter() {
		text := strings.TrimSpace(node.Text())
		length := textnorm.RuneLen(text)
		if !textnorm.ContainsJapanese(text) || length <= 1 || length >= 100 || textnorm.Equal(text, query) {
			continue
		}
		if isLikelySongTitle(text) {
			return text
		}
		return ""
	}
	return ""
}

func isLikelySongTitle(text string) bool {
	for _, pattern := range boilerplate {
		if pattern.MatchString(text) {
			return false
		}
	}
	length := textnorm.RuneLen(text)
	return length >= 2 && length <= 50
}

func (p *Pipeline) enrich(ctx context.Context, query string, results []domain.LyricsResult) []domain.LyricsResult {
	ctx, span := p.startStage(ctx, stageEnrich)
	defer span.End()

	enriched := make([]domain.LyricsResult, len(results))
	var wg sync.WaitGroup
	for i, result := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enriched[i] = p.enrichOne(ctx, query, result)
		}()
	}
	wg.Wait()

	added := 0
	for _, result := range enriched {
		if result.Enrichment != nil && result.Enrichment.AlternateScriptTitle != "" {
			added++
		}
	}
	recordStage(span, stageEnrich, added)
	return enriched
}

// enrichOne returns result untouched whenever the page cannot be loaded or
// holds no Japanese title.
func (p *Pipeline) enrichOne(ctx context.Context, query string, result domain.LyricsResult) domain.LyricsResult {
	if p.fetcher == nil {
		return result
	}
	resp, err := p.fetcher.Fetch(ctx, result.URL)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		p.logger.DebugContext(ctx, "enrichment fetch failed", slog.String("url", result.URL), slog.String("error", err.Error()))
		return result
	}
	doc, err := document.Parse(resp.Body)
	if err != nil {
		return result
	}
	alternate := ExtractAlternateTitle(doc, query)
	if alternate == "" {
		return result
	}
	p.logger.DebugContext(ctx, "alternate title found", slog.String("url", result.URL), slog.String("title", alternate))

	karaoke := p.crossReferenceKaraoke(ctx, alternate)
	enrichment := domain.LyricsEnrichment{CrossReferencedKaraoke: karaoke}
	if result.Enrichment != nil {
		enrichment.Excerpt = result.Enrichment.Excerpt
	}
	enrichment.AlternateScriptTitle = alternate
	result.Enrichment = &enrichment
	if len(karaoke) > 0 {
		result.Title = fmt.Sprintf("%s (JP: %s) [%d karaoke matches]", result.Title, alternate, len(karaoke))
	}
	return result
}

// crossReferenceKaraoke queries every karaoke catalog concurrently and joins
// their results in configuration order.
func (p *Pipeline) crossReferenceKaraoke(ctx context.Context, title string) []domain.KaraokeResult {
	batches := make([][]domain.KaraokeResult, len(p.crossReference))
	var wg sync.WaitGroup
	for i, searcher := range p.crossReference {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batches[i] = searcher.Search(ctx, domain.Query{Text: title})
		}()
	}
	wg.Wait()

	karaoke := []domain.KaraokeResult{}
	for _, batch := range batches {
		karaoke = append(karaoke, batch...)
	}
	return karaoke
}
