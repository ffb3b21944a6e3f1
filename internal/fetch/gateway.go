// Package fetch is the single outbound HTTP path for every provider. It sets
// the browser identity headers, applies per-call timeouts and per-host
// politeness limits, and reports transport failures as *FetchError.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/RanolP/imakaraokay/internal/metrics"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
	DefaultTimeout        = 10 * time.Second

	maxBodyBytes = 4 << 20
)

type Config struct {
	Client         *http.Client
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	// RatePerHost limits requests per second to one host. Zero disables it.
	RatePerHost float64
	BurstPerHost int
	Logger       *slog.Logger
}

type Gateway struct {
	client  *http.Client
	headers http.Header
	timeout time.Duration
	logger  *slog.Logger

	ratePerHost  rate.Limit
	burstPerHost int
	limitersMu   sync.Mutex
	limiters     map[string]*rate.Limiter
}

func NewGateway(cfg Config) *Gateway {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	acceptLanguage := strings.TrimSpace(cfg.AcceptLanguage)
	if acceptLanguage == "" {
		acceptLanguage = DefaultAcceptLanguage
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	burst := cfg.BurstPerHost
	if burst <= 0 {
		burst = 1
	}

	headers := make(http.Header)
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", DefaultAccept)
	headers.Set("Accept-Language", acceptLanguage)

	return &Gateway{
		client:       client,
		headers:      headers,
		timeout:      timeout,
		logger:       logger,
		ratePerHost:  rate.Limit(cfg.RatePerHost),
		burstPerHost: burst,
		limiters:     make(map[string]*rate.Limiter),
	}
}

type requestOptions struct {
	method  string
	body    []byte
	headers http.Header
	timeout time.Duration
}

type Option func(*requestOptions)

func WithMethod(method string) Option {
	return func(o *requestOptions) {
		o.method = method
	}
}

func WithBody(body []byte) Option {
	return func(o *requestOptions) {
		o.body = body
	}
}

// WithHeader overrides one of the default headers or adds a new one.
func WithHeader(key, value string) Option {
	return func(o *requestOptions) {
		o.headers.Set(key, value)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *requestOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// Fetch performs one request. Any HTTP status is a completed fetch; only
// transport failures, timeouts and cancellation return an error, always a
// *FetchError.
func (g *Gateway) Fetch(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	options := requestOptions{
		method:  http.MethodGet,
		headers: make(http.Header),
		timeout: g.timeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if err == nil {
			err = fmt.Errorf("missing host")
		}
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	if err := g.wait(ctx, parsed.Host); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	var body io.Reader
	if options.body != nil {
		body = bytes.NewReader(options.body)
	}
	req, err := http.NewRequestWithContext(ctx, options.method, parsed.String(), body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	for key, values := range g.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	for key, values := range options.headers {
		req.Header[key] = append([]string(nil), values...)
	}

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues(parsed.Host, "error").Inc()
		g.logger.Debug("fetch failed",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.FetchRequestDuration.WithLabelValues(parsed.Host).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues(parsed.Host, "error").Inc()
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	metrics.FetchRequestsTotal.WithLabelValues(parsed.Host, strconv.Itoa(resp.StatusCode)).Inc()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	g.logger.Debug("fetched",
		slog.String("url", rawURL),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Int64("durationMs", time.Since(started).Milliseconds()),
	)
	return &Response{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       decodeBody(data, resp.Header.Get("Content-Type")),
	}, nil
}

func (g *Gateway) wait(ctx context.Context, host string) error {
	if g.ratePerHost <= 0 {
		return nil
	}
	g.limitersMu.Lock()
	limiter, ok := g.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(g.ratePerHost, g.burstPerHost)
		g.limiters[host] = limiter
	}
	g.limitersMu.Unlock()
	return limiter.Wait(ctx)
}

// decodeBody converts a declared non-UTF-8 charset (EUC-KR, Shift_JIS, ...) to
// UTF-8. Unknown or missing charsets leave the body untouched.
func decodeBody(data []byte, contentType string) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return data
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return data
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return data
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}
