package domain

import "time"

type ProviderKind string

const (
	ProviderKindKaraoke      ProviderKind = "karaoke"
	ProviderKindLyrics       ProviderKind = "lyrics"
	ProviderKindAutocomplete ProviderKind = "autocomplete"
)

type KaraokeSource string

const (
	SourceTJ KaraokeSource = "TJ"
	SourceKY KaraokeSource = "KY"
)

type LyricsSource string

const (
	SourceMusixMatch LyricsSource = "MusixMatch"
	SourceVocaro     LyricsSource = "Vocaro"
)

type AutocompleteSource string

const (
	SourceYouTube  AutocompleteSource = "YouTube"
	SourceVocaDB   AutocompleteSource = "VocaDB"
	SourceUtaiteDB AutocompleteSource = "UtaiteDB"
)

// DefaultKaraokeMaxResults caps a single karaoke provider call when the query
// does not carry its own limit.
const DefaultKaraokeMaxResults = 50

// Query is the immutable input of one provider call.
type Query struct {
	Text       string `json:"text"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// Limit returns MaxResults, or fallback when the query leaves it unset.
func (q Query) Limit(fallback int) int {
	if q.MaxResults > 0 {
		return q.MaxResults
	}
	return fallback
}

type KaraokeResult struct {
	ID          string        `json:"id" validate:"required,number"`
	Title       string        `json:"title" validate:"required"`
	Artist      string        `json:"artist,omitempty"`
	Source      KaraokeSource `json:"source" validate:"oneof=TJ KY"`
	Tags        []string      `json:"tags,omitempty"`
	Lyricist    string        `json:"lyricist,omitempty"`
	Composer    string        `json:"composer,omitempty"`
	ReleaseDate string        `json:"releaseDate,omitempty"`
	YouTube     string        `json:"youtube,omitempty" validate:"omitempty,http_url"`
}

type LyricsResult struct {
	Title      string            `json:"title" validate:"required"`
	Artist     string            `json:"artist,omitempty"`
	URL        string            `json:"url" validate:"required,http_url"`
	Source     LyricsSource      `json:"source" validate:"oneof=MusixMatch Vocaro"`
	Enrichment *LyricsEnrichment `json:"enrichment,omitempty"`
}

// LyricsEnrichment turns a LyricsResult into an enriched one. Only the
// resolution pipeline attaches it; a nil value is the plain form.
type LyricsEnrichment struct {
	AlternateScriptTitle   string          `json:"alternateScriptTitle,omitempty"`
	CrossReferencedKaraoke []KaraokeResult `json:"crossReferencedKaraoke"`
	Excerpt                string          `json:"excerpt,omitempty"`
}

type AutocompleteResult struct {
	Suggestion string             `json:"suggestion" validate:"required"`
	Source     AutocompleteSource `json:"source"`
}

type SearchResults struct {
	Karaoke []KaraokeResult `json:"karaoke"`
	Lyrics  []LyricsResult  `json:"lyrics"`
}

type AutocompleteResults struct {
	Suggestions []AutocompleteResult `json:"suggestions"`
}

type ProviderInfo struct {
	Name    string       `json:"name"`
	Label   string       `json:"label"`
	Kind    ProviderKind `json:"kind"`
	Enabled bool         `json:"enabled"`
}

type ProviderDiagnostics struct {
	Name          string       `json:"name"`
	Label         string       `json:"label"`
	Kind          ProviderKind `json:"kind"`
	Enabled       bool         `json:"enabled"`
	LastSuccessAt *time.Time   `json:"lastSuccessAt,omitempty"`
	LastPanicAt   *time.Time   `json:"lastPanicAt,omitempty"`
	LastPanic     string       `json:"lastPanic,omitempty"`
	LastLatencyMS int64        `json:"lastLatencyMs,omitempty"`
	LastCount     int          `json:"lastCount"`
	LastQuery     string       `json:"lastQuery,omitempty"`
	TotalRequests int64        `json:"totalRequests,omitempty"`
	EmptyCount    int64        `json:"emptyCount,omitempty"`
	PanicCount    int64        `json:"panicCount,omitempty"`
}
