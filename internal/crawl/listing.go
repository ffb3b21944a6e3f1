// Package crawl walks cursor-paginated HTML listings lazily. A listing is
// fetched page by page until a page yields no records, the consumer stops
// iterating, or an error ends the walk.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/fetch"
	"github.com/RanolP/imakaraokay/internal/metrics"
)

const defaultMaxPages = 100

// ErrConsumed is yielded when Records is called on a listing that was already
// iterated.
var ErrConsumed = errors.New("listing already consumed")

// InvalidRecordError reports a row whose mandatory field could not be parsed.
type InvalidRecordError struct {
	Page  int
	Field string
	Raw   string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record on page %d: field %s = %q", e.Page, e.Field, e.Raw)
}

// Fetcher is the part of fetch.Gateway the crawler needs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts ...fetch.Option) (*fetch.Response, error)
}

// PageURLFunc builds the URL of a 1-based page.
type PageURLFunc func(page int) string

// ExtractFunc turns one page into records. On a malformed row it returns the
// records parsed before it together with an *InvalidRecordError.
type ExtractFunc[T any] func(doc *document.Document, page int) ([]T, error)

type Config struct {
	Fetcher Fetcher
	Logger  *slog.Logger
	// MaxPages bounds a listing that never returns an empty page.
	MaxPages int
	Retry    fetch.RetryConfig
}

type Listing[T any] struct {
	fetcher  Fetcher
	logger   *slog.Logger
	maxPages int
	retry    fetch.RetryConfig
	pageURL  PageURLFunc
	extract  ExtractFunc[T]
	consumed atomic.Bool
}

func NewListing[T any](cfg Config, pageURL PageURLFunc, extract ExtractFunc[T]) *Listing[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = fetch.RetryConfig{MaxAttempts: 2, InitialDelay: fetch.DefaultRetryConfig().InitialDelay, MaxDelay: fetch.DefaultRetryConfig().MaxDelay, Multiplier: 2}
	}
	return &Listing[T]{
		fetcher:  cfg.Fetcher,
		logger:   logger,
		maxPages: maxPages,
		retry:    retry,
		pageURL:  pageURL,
		extract:  extract,
	}
}

// Records returns a single-use sequence. Pages are fetched only as the
// consumer pulls records; breaking out of the loop stops fetching. An error
// is always the last element yielded.
func (l *Listing[T]) Records(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if !l.consumed.CompareAndSwap(false, true) {
			yield(zero, ErrConsumed)
			return
		}

		for page := 1; page <= l.maxPages; page++ {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			doc, err := l.fetchPage(ctx, page)
			if err != nil {
				metrics.CrawlPagesTotal.WithLabelValues("error").Inc()
				yield(zero, err)
				return
			}

			records, extractErr := l.extract(doc, page)
			for _, record := range records {
				if !yield(record, nil) {
					return
				}
			}
			if extractErr != nil {
				metrics.CrawlPagesTotal.WithLabelValues("invalid").Inc()
				yield(zero, extractErr)
				return
			}
			if len(records) == 0 {
				metrics.CrawlPagesTotal.WithLabelValues("empty").Inc()
				l.logger.Debug("listing exhausted", slog.Int("page", page))
				return
			}
			metrics.CrawlPagesTotal.WithLabelValues("ok").Inc()
		}
		l.logger.Warn("listing stopped at page cap", slog.Int("maxPages", l.maxPages))
	}
}

func (l *Listing[T]) fetchPage(ctx context.Context, page int) (*document.Document, error) {
	pageURL := l.pageURL(page)
	var resp *fetch.Response
	err := fetch.RetryWithBackoff(ctx, l.retry, func() error {
		var fetchErr error
		resp, fetchErr = l.fetcher.Fetch(ctx, pageURL)
		if fetchErr != nil {
			return fetchErr
		}
		return resp.Err()
	})
	if err != nil {
		return nil, err
	}
	l.logger.Debug("listing page fetched", slog.Int("page", page), slog.String("url", pageURL))
	return document.Parse(resp.Body)
}
