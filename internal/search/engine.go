package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/RanolP/imakaraokay/internal/domain"
)

type providerCall[T any] struct {
	name string
	run  func(ctx context.Context) []T
}

// Search runs the karaoke and lyrics providers concurrently. It never fails:
// a provider that panics or gives up contributes nothing.
func (e *Engine) Search(ctx context.Context, query domain.Query) domain.SearchResults {
	query.Text = strings.TrimSpace(query.Text)
	if query.Text == "" {
		return domain.SearchResults{Karaoke: []domain.KaraokeResult{}, Lyrics: []domain.LyricsResult{}}
	}

	key := cacheKey("search", query)
	var cached domain.SearchResults
	if e.cacheLookup(ctx, key, &cached) {
		return cached
	}

	runCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	startedAt := time.Now()
	var results domain.SearchResults
	var karaokeDegraded, lyricsDegraded bool
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		calls := make([]providerCall[domain.KaraokeResult], 0, len(e.karaoke))
		for _, p := range e.karaoke {
			calls = append(calls, providerCall[domain.KaraokeResult]{name: p.Name(), run: func(ctx context.Context) []domain.KaraokeResult {
				return p.Search(ctx, query)
			}})
		}
		results.Karaoke, karaokeDegraded = runAll(runCtx, e, domain.ProviderKindKaraoke, query.Text, calls)
	}()
	go func() {
		defer wg.Done()
		calls := make([]providerCall[domain.LyricsResult], 0, len(e.lyrics))
		for _, p := range e.lyrics {
			calls = append(calls, providerCall[domain.LyricsResult]{name: p.Name(), run: func(ctx context.Context) []domain.LyricsResult {
				return p.Search(ctx, query)
			}})
		}
		results.Lyrics, lyricsDegraded = runAll(runCtx, e, domain.ProviderKindLyrics, query.Text, calls)
	}()
	wg.Wait()

	e.logger.DebugContext(ctx, "search finished",
		slog.String("query", query.Text),
		slog.Int("karaoke", len(results.Karaoke)),
		slog.Int("lyrics", len(results.Lyrics)),
		slog.Duration("elapsed", time.Since(startedAt)),
		slog.Bool("degraded", karaokeDegraded || lyricsDegraded),
	)
	if len(results.Karaoke)+len(results.Lyrics) > 0 && !karaokeDegraded && !lyricsDegraded {
		e.cacheStore(ctx, key, results)
	}
	return results
}

// AutocompleteSuggestions merges suggestions from every autocomplete provider
// in registration order.
func (e *Engine) AutocompleteSuggestions(ctx context.Context, query domain.Query) domain.AutocompleteResults {
	query.Text = strings.TrimSpace(query.Text)
	if query.Text == "" {
		return domain.AutocompleteResults{Suggestions: []domain.AutocompleteResult{}}
	}

	key := cacheKey("autocomplete", query)
	var cached domain.AutocompleteResults
	if e.cacheLookup(ctx, key, &cached) {
		return cached
	}

	runCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	calls := make([]providerCall[domain.AutocompleteResult], 0, len(e.autocomplete))
	for _, p := range e.autocomplete {
		calls = append(calls, providerCall[domain.AutocompleteResult]{name: p.Name(), run: func(ctx context.Context) []domain.AutocompleteResult {
			return p.Suggestions(ctx, query)
		}})
	}
	suggestions, degraded := runAll(runCtx, e, domain.ProviderKindAutocomplete, query.Text, calls)
	results := domain.AutocompleteResults{Suggestions: suggestions}
	if len(results.Suggestions) > 0 && !degraded {
		e.cacheStore(ctx, key, results)
	}
	return results
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return ctx, func() {}
}

// runAll calls every provider concurrently, waits for all of them and joins
// their contributions in call order. degraded reports that at least one call
// panicked, was skipped or ran into the deadline, so the join is partial.
func runAll[T any](ctx context.Context, e *Engine, kind domain.ProviderKind, query string, calls []providerCall[T]) (merged []T, degraded bool) {
	sem := semaphore.NewWeighted(maxConcurrentProviders)
	batches := make([][]T, len(calls))
	var partial atomic.Bool
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				e.logger.WarnContext(ctx, "provider skipped",
					slog.String("provider", call.name),
					slog.String("error", err.Error()),
				)
				partial.Store(true)
				return
			}
			defer sem.Release(1)
			items, ok := safeCall(ctx, e, kind, query, call)
			if !ok || ctx.Err() != nil {
				partial.Store(true)
			}
			batches[i] = items
		}()
	}
	wg.Wait()

	merged = make([]T, 0)
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	return merged, partial.Load()
}

func safeCall[T any](ctx context.Context, e *Engine, kind domain.ProviderKind, query string, call providerCall[T]) (items []T, ok bool) {
	startedAt := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			message := fmt.Sprint(recovered)
			e.logger.ErrorContext(ctx, "provider panicked",
				slog.String("provider", call.name),
				slog.String("kind", string(kind)),
				slog.String("panic", message),
			)
			e.recordProviderPanic(call.name, kind, query, message, time.Since(startedAt), time.Now())
			items, ok = nil, false
		}
	}()
	items = call.run(ctx)
	e.recordProviderResult(call.name, kind, query, len(items), time.Since(startedAt), time.Now())
	return items, true
}
