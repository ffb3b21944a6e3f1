package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/RanolP/imakaraokay/internal/domain"
)

// maxConcurrentProviders limits the number of provider calls that run at once
// within one kind.
const maxConcurrentProviders = 10

type KaraokeProvider interface {
	Name() string
	Info() domain.ProviderInfo
	Search(ctx context.Context, query domain.Query) []domain.KaraokeResult
}

type LyricsProvider interface {
	Name() string
	Info() domain.ProviderInfo
	Search(ctx context.Context, query domain.Query) []domain.LyricsResult
}

type AutocompleteProvider interface {
	Name() string
	Info() domain.ProviderInfo
	Suggestions(ctx context.Context, query domain.Query) []domain.AutocompleteResult
}

// Engine fans a query out to every registered provider of a kind and merges
// their contributions in registration order.
type Engine struct {
	logger       *slog.Logger
	timeout      time.Duration
	karaoke      []KaraokeProvider
	lyrics       []LyricsProvider
	autocomplete []AutocompleteProvider

	cache      *responseCache
	redisCache *RedisCacheBackend

	healthMu sync.Mutex
	health   map[string]*providerHealth
}

type Option func(*Engine)

// WithTimeout bounds every aggregate call that arrives without a deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

// WithCache enables the in-memory aggregate cache.
func WithCache(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.cache = newResponseCache(ttl, defaultCacheMaxEntries)
		}
	}
}

// WithRedisCache adds a shared cache tier in front of the in-memory one. It
// only takes effect together with WithCache.
func WithRedisCache(backend *RedisCacheBackend) Option {
	return func(e *Engine) {
		e.redisCache = backend
	}
}

func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := &Engine{
		logger: logger.With(slog.String("component", "search")),
		health: make(map[string]*providerHealth),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func (e *Engine) AddKaraokeProvider(provider KaraokeProvider) {
	if provider != nil {
		e.karaoke = append(e.karaoke, provider)
	}
}

func (e *Engine) AddLyricsProvider(provider LyricsProvider) {
	if provider != nil {
		e.lyrics = append(e.lyrics, provider)
	}
}

func (e *Engine) AddAutocompleteProvider(provider AutocompleteProvider) {
	if provider != nil {
		e.autocomplete = append(e.autocomplete, provider)
	}
}

// Providers lists karaoke, lyrics and autocomplete providers, each group in
// registration order.
func (e *Engine) Providers() []domain.ProviderInfo {
	items := make([]domain.ProviderInfo, 0, len(e.karaoke)+len(e.lyrics)+len(e.autocomplete))
	for _, p := range e.karaoke {
		items = append(items, providerInfo(p.Name(), p.Info(), domain.ProviderKindKaraoke))
	}
	for _, p := range e.lyrics {
		items = append(items, providerInfo(p.Name(), p.Info(), domain.ProviderKindLyrics))
	}
	for _, p := range e.autocomplete {
		items = append(items, providerInfo(p.Name(), p.Info(), domain.ProviderKindAutocomplete))
	}
	return items
}

func providerInfo(name string, info domain.ProviderInfo, kind domain.ProviderKind) domain.ProviderInfo {
	if info.Name == "" {
		info.Name = name
	}
	info.Name = strings.ToLower(strings.TrimSpace(info.Name))
	if info.Label == "" {
		info.Label = info.Name
	}
	if info.Kind == "" {
		info.Kind = kind
	}
	return info
}
