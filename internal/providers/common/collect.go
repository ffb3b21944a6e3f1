package common

import (
	"context"
	"iter"
	"log/slog"

	"github.com/RanolP/imakaraokay/internal/domain"
)

// CollectKaraoke drains a crawl into at most limit records, keeping the first
// occurrence of each id. A crawl error is logged and ends collection; the
// records gathered so far are returned.
func CollectKaraoke(ctx context.Context, logger *slog.Logger, provider string, records iter.Seq2[domain.KaraokeResult, error], limit int) []domain.KaraokeResult {
	results := make([]domain.KaraokeResult, 0, limit)
	seen := make(map[string]struct{}, limit)
	for record, err := range records {
		if err != nil {
			logger.WarnContext(ctx, "karaoke crawl stopped",
				slog.String("provider", provider),
				slog.Int("collected", len(results)),
				slog.String("error", err.Error()),
			)
			break
		}
		if _, dup := seen[record.ID]; dup {
			continue
		}
		if err := domain.ValidateKaraoke(record); err != nil {
			logger.DebugContext(ctx, "karaoke record dropped",
				slog.String("provider", provider),
				slog.String("id", record.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		seen[record.ID] = struct{}{}
		results = append(results, record)
		if len(results) >= limit {
			break
		}
	}
	return results
}

// AppendLyrics adds result unless its URL is already present or it fails
// validation.
func AppendLyrics(results []domain.LyricsResult, seen map[string]struct{}, result domain.LyricsResult) []domain.LyricsResult {
	if _, dup := seen[result.URL]; dup {
		return results
	}
	if domain.ValidateLyrics(result) != nil {
		return results
	}
	seen[result.URL] = struct{}{}
	return append(results, result)
}
