// Package investigate fetches a candidate page and decides whether it looks
// like a lyrics page.
package investigate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/textnorm"
)

const (
	maxContentRunes = 1000
	minLyricsRunes  = 50
)

// ErrRejected marks a page that was fetched but does not look like lyrics.
var ErrRejected = errors.New("page rejected: no lyrics found")

var (
	contentSelectors = []string{"#main-content", ".content", "#content", ".page-content", ".main", "main", "article"}
	lyricsSelectors  = []string{".lyrics", "#lyrics", ".song-lyrics", ".lyric-content", ".verse"}
	chromeSelectors  = "script, style, nav, header, footer, .nav, .menu"
)

type Report struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Lyrics    string `json:"lyrics,omitempty"`
	SongTitle string `json:"songTitle,omitempty"`
	Artist    string `json:"artist,omitempty"`
	Valid     bool   `json:"isValid"`
}

// Err returns ErrRejected when the page failed validation.
func (r Report) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%s: %w", r.URL, ErrRejected)
}

type Config struct {
	Fetcher crawl.Fetcher
	Logger  *slog.Logger
}

type Investigator struct {
	fetcher crawl.Fetcher
	logger  *slog.Logger
}

func NewInvestigator(cfg Config) *Investigator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Investigator{
		fetcher: cfg.Fetcher,
		logger:  logger.With(slog.String("component", "investigator")),
	}
}

// Investigate fetches url and analyzes it. The error is non-nil only when
// the page could not be fetched or parsed; a non-2xx status yields an
// invalid report instead.
func (i *Investigator) Investigate(ctx context.Context, url string) (Report, error) {
	resp, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		i.logger.DebugContext(ctx, "investigation fetch failed", slog.String("url", url), slog.String("error", err.Error()))
		return Report{URL: url}, err
	}
	if !resp.OK() {
		return Report{
			URL:     url,
			Title:   "Failed to load",
			Content: fmt.Sprintf("HTTP %d", resp.StatusCode),
		}, nil
	}
	doc, err := document.Parse(resp.Body)
	if err != nil {
		return Report{URL: url}, err
	}
	report := Analyze(doc)
	report.URL = url
	i.logger.DebugContext(ctx, "page investigated",
		slog.String("url", url),
		slog.Bool("valid", report.Valid),
		slog.Int("lyrics_runes", textnorm.RuneLen(report.Lyrics)),
	)
	return report, nil
}

// Analyze extracts title, content and lyrics from doc. It strips page chrome
// from doc when no content container is found.
func Analyze(doc *document.Document) Report {
	title := doc.Title()
	if title == "" {
		title = "No title found"
	}

	content := doc.FirstText(contentSelectors...)
	if content == "" {
		doc.Remove(chromeSelectors)
		content = doc.BodyText()
	}
	content = textnorm.Truncate(textnorm.CollapseSpace(content), maxContentRunes)

	report := Report{
		Title:   title,
		Content: content,
		Lyrics:  doc.FirstText(lyricsSelectors...),
	}
	if parts := strings.Split(title, " - "); len(parts) > 1 {
		report.SongTitle = strings.TrimSpace(parts[0])
		report.Artist = strings.TrimSpace(parts[1])
	}
	report.Valid = looksLikeLyrics(report)
	return report
}

func looksLikeLyrics(r Report) bool {
	if textnorm.RuneLen(r.Lyrics) > minLyricsRunes {
		return true
	}
	content := strings.ToLower(r.Content)
	title := strings.ToLower(r.Title)
	for _, marker := range []string{"lyrics", "가사"} {
		if strings.Contains(content, marker) || strings.Contains(title, marker) {
			return true
		}
	}
	return false
}
