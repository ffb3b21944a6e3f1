package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/RanolP/imakaraokay/internal/domain"
)

const (
	karaokeTop   = 5
	enrichedTop  = 3
	emptyResults = "Tip: Try different search terms or use English/Korean/Japanese variations of the song title."
	emptyHint    = "Some services may have regional restrictions or require specific formatting."
)

var (
	karaokeSources = []domain.KaraokeSource{domain.SourceTJ, domain.SourceKY}
	lyricsSources  = []struct {
		source domain.LyricsSource
		label  string
	}{
		{domain.SourceMusixMatch, "MusixMatch"},
		{domain.SourceVocaro, "Vocaro Wiki"},
	}
)

type styles struct {
	query   lipgloss.Style
	section lipgloss.Style
	group   lipgloss.Style
	muted   lipgloss.Style
	link    lipgloss.Style
	label   lipgloss.Style
	excerpt lipgloss.Style
	tip     lipgloss.Style
	machine map[domain.KaraokeSource]lipgloss.Style
}

// Formatter renders search aggregates for a terminal. Colors are dropped
// automatically when w is not a TTY.
type Formatter struct {
	w      io.Writer
	styles styles
}

func New(w io.Writer) *Formatter {
	r := lipgloss.NewRenderer(w)
	s := styles{
		query:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		group:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		link:    r.NewStyle().Foreground(lipgloss.Color("4")).Underline(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("2")),
		excerpt: r.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
		tip:     r.NewStyle().Foreground(lipgloss.Color("3")),
		machine: make(map[domain.KaraokeSource]lipgloss.Style, len(karaokeSources)),
	}
	for _, source := range karaokeSources {
		if m, ok := domain.MachineFor(source); ok {
			s.machine[source] = r.NewStyle().Foreground(lipgloss.Color(m.Color))
		}
	}
	return &Formatter{w: w, styles: s}
}

func (f *Formatter) Results(query string, results domain.SearchResults) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", f.styles.query.Render(fmt.Sprintf("Searching for: %q", query)))

	f.karaoke(&b, results.Karaoke)
	f.lyrics(&b, results.Lyrics)

	if len(results.Karaoke) == 0 && len(results.Lyrics) == 0 {
		fmt.Fprintf(&b, "%s\n%s\n", f.styles.tip.Render(emptyResults), f.styles.tip.Render("  "+emptyHint))
	}
	_, err := io.WriteString(f.w, b.String())
	return err
}

func (f *Formatter) karaoke(b *strings.Builder, results []domain.KaraokeResult) {
	fmt.Fprintf(b, "\n%s\n\n", f.styles.section.Render("Karaoke Song IDs:"))
	grouped := groupKaraoke(results)
	for i, source := range karaokeSources {
		if i > 0 {
			b.WriteString("\n")
		}
		label := machineName(source) + " Karaoke"
		items := grouped[source]
		if len(items) == 0 {
			fmt.Fprintf(b, "%s\n", f.styles.muted.Render("  No results from "+label))
			continue
		}
		fmt.Fprintf(b, "%s\n", f.styles.group.Render(label+":"))
		for _, item := range items[:min(len(items), karaokeTop)] {
			fmt.Fprintf(b, "  %s - %s%s\n", f.styles.machine[source].Render(item.ID), item.Title, f.by(item.Artist))
		}
	}
}

func (f *Formatter) lyrics(b *strings.Builder, results []domain.LyricsResult) {
	fmt.Fprintf(b, "\n%s\n\n", f.styles.section.Render("Lyrics Sources:"))
	grouped := make(map[domain.LyricsSource][]domain.LyricsResult)
	for _, item := range results {
		grouped[item.Source] = append(grouped[item.Source], item)
	}
	for i, entry := range lyricsSources {
		if i > 0 {
			b.WriteString("\n")
		}
		items := grouped[entry.source]
		if len(items) == 0 {
			fmt.Fprintf(b, "%s\n", f.styles.muted.Render("  No results from "+entry.label))
			continue
		}
		fmt.Fprintf(b, "%s\n", f.styles.group.Render(entry.label+":"))
		for _, item := range items {
			f.lyricsItem(b, item)
		}
	}
	b.WriteString("\n")
}

func (f *Formatter) lyricsItem(b *strings.Builder, item domain.LyricsResult) {
	fmt.Fprintf(b, "  %s%s\n", item.Title, f.by(item.Artist))
	if e := item.Enrichment; e != nil {
		if e.AlternateScriptTitle != "" {
			fmt.Fprintf(b, "  %s %s\n", f.styles.label.Render("Japanese:"), e.AlternateScriptTitle)
		}
		if e.Excerpt != "" {
			fmt.Fprintf(b, "  %s\n", f.styles.excerpt.Render(e.Excerpt))
		}
		if len(e.CrossReferencedKaraoke) > 0 {
			fmt.Fprintf(b, "  %s\n", f.styles.tip.Render("Karaoke IDs found:"))
			grouped := groupKaraoke(e.CrossReferencedKaraoke)
			for _, source := range karaokeSources {
				items := grouped[source]
				style := f.styles.machine[source]
				for _, kr := range items[:min(len(items), enrichedTop)] {
					fmt.Fprintf(b, "    %s %s - %s%s\n", style.Render(machineName(source)), style.Render(kr.ID), kr.Title, f.by(kr.Artist))
				}
			}
		}
	}
	fmt.Fprintf(b, "  %s\n", f.styles.link.Render(item.URL))
}

func (f *Formatter) by(artist string) string {
	if artist == "" {
		return ""
	}
	return " " + f.styles.muted.Render("by "+artist)
}

func groupKaraoke(results []domain.KaraokeResult) map[domain.KaraokeSource][]domain.KaraokeResult {
	grouped := make(map[domain.KaraokeSource][]domain.KaraokeResult)
	for _, item := range results {
		grouped[item.Source] = append(grouped[item.Source], item)
	}
	return grouped
}

func machineName(source domain.KaraokeSource) string {
	if m, ok := domain.MachineFor(source); ok {
		return m.Name
	}
	return string(source)
}

// WriteJSON prints results as indented JSON without HTML escaping, so
// Korean and Japanese titles stay readable.
func WriteJSON(w io.Writer, results any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
