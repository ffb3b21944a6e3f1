// Package resolve runs the staged lookup used for lyrics sites whose own
// search is unreliable: direct search, external web search, URL guessing,
// page investigation and cross-lingual karaoke enrichment.
package resolve

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/investigate"
	"github.com/RanolP/imakaraokay/internal/metrics"
	"github.com/RanolP/imakaraokay/internal/textnorm"
	"github.com/RanolP/imakaraokay/internal/websearch"
)

// Stage thresholds and caps. They bound the work done for a single query.
const (
	fallbackThreshold = 3
	guessThreshold    = 2
	fallbackResults   = 5
	maxInvestigated   = 5
	maxGuesses        = 3
	excerptRunes      = 200
)

const (
	stageDirect      = "direct"
	stageFallback    = "fallback"
	stageGuess       = "guess"
	stageInvestigate = "investigate"
	stageEnrich      = "enrich"
)

// Site is a lyrics source with a weak native search.
type Site interface {
	Name() string
	Domain() string
	LyricsSource() domain.LyricsSource
	DirectSearch(ctx context.Context, query string) []domain.LyricsResult
	GuessURLs(query string) []string
}

type DomainSearcher interface {
	SearchDomain(ctx context.Context, query, domain string, maxResults int) ([]websearch.Result, error)
}

type PageInvestigator interface {
	Investigate(ctx context.Context, url string) (investigate.Report, error)
}

type KaraokeSearcher interface {
	Search(ctx context.Context, query domain.Query) []domain.KaraokeResult
}

type Config struct {
	Site         Site
	Fallback     DomainSearcher
	Investigator PageInvestigator
	// Fetcher loads pages for alternate-title extraction.
	Fetcher        crawl.Fetcher
	CrossReference []KaraokeSearcher
	Logger         *slog.Logger
	Tracer         trace.Tracer
}

type Pipeline struct {
	site           Site
	fallback       DomainSearcher
	investigator   PageInvestigator
	fetcher        crawl.Fetcher
	crossReference []KaraokeSearcher
	logger         *slog.Logger
	tracer         trace.Tracer
}

func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/RanolP/imakaraokay/internal/resolve")
	}
	return &Pipeline{
		site:           cfg.Site,
		fallback:       cfg.Fallback,
		investigator:   cfg.Investigator,
		fetcher:        cfg.Fetcher,
		crossReference: cfg.CrossReference,
		logger:         logger.With(slog.String("pipeline", cfg.Site.Name())),
		tracer:         tracer,
	}
}

type candidate struct {
	result domain.LyricsResult
	stage  string
	report *investigate.Report
}

type workingSet struct {
	items []candidate
	seen  map[string]struct{}
}

func (w *workingSet) add(c candidate) bool {
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if c.result.URL == "" {
		return false
	}
	if _, dup := w.seen[c.result.URL]; dup {
		return false
	}
	w.seen[c.result.URL] = struct{}{}
	w.items = append(w.items, c)
	return true
}

// Resolve never fails. Each stage that breaks contributes nothing and the
// candidates gathered so far are returned.
func (p *Pipeline) Resolve(ctx context.Context, query string) []domain.LyricsResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.LyricsResult{}
	}
	ctx, span := p.tracer.Start(ctx, "resolve."+p.site.Name(),
		trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	var set workingSet
	direct := p.directSearch(ctx, query, &set)

	if len(set.items) < fallbackThreshold {
		p.externalFallback(ctx, query, &set)
	} else {
		metrics.PipelineStageTotal.WithLabelValues(stageFallback, "skipped").Inc()
	}

	if len(set.items) < guessThreshold {
		p.guessURLs(ctx, query, &set)
	} else {
		metrics.PipelineStageTotal.WithLabelValues(stageGuess, "skipped").Inc()
	}

	results := p.investigateCandidates(ctx, set.items)

	if textnorm.ScriptOf(query) == textnorm.ScriptKorean && direct > 0 && len(results) > 0 {
		results = p.enrich(ctx, query, results)
	} else {
		metrics.PipelineStageTotal.WithLabelValues(stageEnrich, "skipped").Inc()
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	p.logger.DebugContext(ctx, "resolution finished", slog.String("query", query), slog.Int("count", len(results)))
	return results
}

func (p *Pipeline) startStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "resolve.stage."+stage, trace.WithAttributes(attribute.String("stage", stage)))
}

func recordStage(span trace.Span, stage string, added int) {
	outcome := "empty"
	if added > 0 {
		outcome = "ok"
	}
	span.SetAttributes(attribute.Int("added", added))
	metrics.PipelineStageTotal.WithLabelValues(stage, outcome).Inc()
}

func (p *Pipeline) directSearch(ctx context.Context, query string, set *workingSet) int {
	ctx, span := p.startStage(ctx, stageDirect)
	defer span.End()

	added := 0
	for _, result := range p.site.DirectSearch(ctx, query) {
		if set.add(candidate{result: result, stage: stageDirect}) {
			added++
		}
	}
	p.logger.DebugContext(ctx, "direct search", slog.Int("count", added))
	recordStage(span, stageDirect, added)
	return added
}

func (p *Pipeline) externalFallback(ctx context.Context, query string, set *workingSet) {
	if p.fallback == nil {
		return
	}
	ctx, span := p.startStage(ctx, stageFallback)
	defer span.End()

	found, err := p.fallback.SearchDomain(ctx, query, p.site.Domain(), fallbackResults)
	if err != nil {
		p.logger.WarnContext(ctx, "external search failed", slog.String("error", err.Error()))
		span.RecordError(err)
		metrics.PipelineStageTotal.WithLabelValues(stageFallback, "error").Inc()
		return
	}
	added := 0
	for _, item := range found {
		if set.add(candidate{
			result: domain.LyricsResult{Title: item.Title, URL: item.URL, Source: p.site.LyricsSource()},
			stage:  stageFallback,
		}) {
			added++
		}
	}
	p.logger.DebugContext(ctx, "external search", slog.Int("found", len(found)), slog.Int("added", added))
	recordStage(span, stageFallback, added)
}

func (p *Pipeline) guessURLs(ctx context.Context, query string, set *workingSet) {
	ctx, span := p.startStage(ctx, stageGuess)
	defer span.End()

	guesses := p.site.GuessURLs(query)
	if len(guesses) > maxGuesses {
		guesses = guesses[:maxGuesses]
	}
	added := 0
	for _, url := range guesses {
		if ctx.Err() != nil {
			break
		}
		report, err := p.investigator.Investigate(ctx, url)
		if err != nil {
			p.logger.DebugContext(ctx, "guessed url unreachable", slog.String("url", url), slog.String("error", err.Error()))
			continue
		}
		if !report.Valid {
			continue
		}
		title := firstNonEmpty(report.SongTitle, report.Title, query)
		if set.add(candidate{
			result: domain.LyricsResult{Title: title, Artist: report.Artist, URL: url, Source: p.site.LyricsSource()},
			stage:  stageGuess,
			report: &report,
		}) {
			added = 1
		}
		p.logger.DebugContext(ctx, "guessed url matched", slog.String("url", url))
		break
	}
	recordStage(span, stageGuess, added)
}

func (p *Pipeline) investigateCandidates(ctx context.Context, items []candidate) []domain.LyricsResult {
	ctx, span := p.startStage(ctx, stageInvestigate)
	defer span.End()

	if len(items) > maxInvestigated {
		items = items[:maxInvestigated]
	}
	outcomes := make([]*domain.LyricsResult, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = p.investigateOne(ctx, item)
		}()
	}
	wg.Wait()

	results := make([]domain.LyricsResult, 0, len(items))
	for _, outcome := range outcomes {
		if outcome != nil {
			results = append(results, *outcome)
		}
	}
	p.logger.DebugContext(ctx, "investigation finished",
		slog.Int("candidates", len(items)),
		slog.Int("valid", len(results)),
	)
	recordStage(span, stageInvestigate, len(results))
	return results
}

// investigateOne returns nil when the page was reached but rejected. A page
// that could not be reached keeps its pre-investigation record.
func (p *Pipeline) investigateOne(ctx context.Context, item candidate) *domain.LyricsResult {
	result := item.result
	report := item.report
	if report == nil {
		r, err := p.investigator.Investigate(ctx, result.URL)
		if err != nil {
			p.logger.DebugContext(ctx, "investigation failed, keeping candidate",
				slog.String("url", result.URL),
				slog.String("error", err.Error()),
			)
			return &result
		}
		report = &r
	}
	if err := report.Err(); err != nil {
		p.logger.DebugContext(ctx, "candidate dropped", slog.String("url", result.URL), slog.String("stage", item.stage))
		return nil
	}

	result.Title = firstNonEmpty(report.SongTitle, report.Title, result.Title)
	if report.Artist != "" {
		result.Artist = report.Artist
	}
	if report.Lyrics != "" {
		result.Enrichment = &domain.LyricsEnrichment{
			CrossReferencedKaraoke: []domain.KaraokeResult{},
			Excerpt:                textnorm.Truncate(report.Lyrics, excerptRunes) + "...",
		}
	}
	return &result
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
