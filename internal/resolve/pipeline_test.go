package resolve

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/fetch"
	"github.com/RanolP/imakaraokay/internal/investigate"
	"github.com/RanolP/imakaraokay/internal/websearch"
)

const base = "http://lyrics.example"

type fakeSite struct {
	direct     []domain.LyricsResult
	guesses    []string
	guessCalls atomic.Int32
}

func (s *fakeSite) Name() string                      { return "fake" }
func (s *fakeSite) Domain() string                    { return "lyrics.example" }
func (s *fakeSite) LyricsSource() domain.LyricsSource { return domain.SourceVocaro }

func (s *fakeSite) DirectSearch(context.Context, string) []domain.LyricsResult {
	return append([]domain.LyricsResult(nil), s.direct...)
}

func (s *fakeSite) GuessURLs(string) []string {
	s.guessCalls.Add(1)
	return s.guesses
}

type fakeFallback struct {
	results []websearch.Result
	err     error
	calls   atomic.Int32
}

func (f *fakeFallback) SearchDomain(context.Context, string, string, int) ([]websearch.Result, error) {
	f.calls.Add(1)
	return f.results, f.err
}

type fakeInvestigator struct {
	mu      sync.Mutex
	reports map[string]investigate.Report
	errs    map[string]error
	calls   map[string]int
}

func newInvestigator() *fakeInvestigator {
	return &fakeInvestigator{
		reports: make(map[string]investigate.Report),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeInvestigator) Investigate(_ context.Context, url string) (investigate.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return investigate.Report{URL: url}, err
	}
	if report, ok := f.reports[url]; ok {
		report.URL = url
		return report, nil
	}
	return investigate.Report{URL: url, Title: "Some page", Valid: true}, nil
}

func (f *fakeInvestigator) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeFetcher struct {
	pages map[string]string
}

func (f fakeFetcher) Fetch(_ context.Context, url string, _ ...fetch.Option) (*fetch.Response, error) {
	page, ok := f.pages[url]
	if !ok {
		return &fetch.Response{URL: url, StatusCode: 404}, nil
	}
	return &fetch.Response{URL: url, StatusCode: 200, Body: []byte(page)}, nil
}

type fakeKaraoke struct {
	results []domain.KaraokeResult
	queries atomic.Int32
	last    atomic.Value
}

func (f *fakeKaraoke) Search(_ context.Context, query domain.Query) []domain.KaraokeResult {
	f.queries.Add(1)
	f.last.Store(query.Text)
	return f.results
}

func lyrics(path, title string) domain.LyricsResult {
	return domain.LyricsResult{Title: title, URL: base + path, Source: domain.SourceVocaro}
}

func webResult(path, title string) websearch.Result {
	return websearch.Result{Title: title, URL: base + path, Domain: "lyrics.example"}
}

func TestFallbackSkippedWhenDirectSearchDelivers(t *testing.T) {
	site := &fakeSite{}
	for i := range 5 {
		site.direct = append(site.direct, lyrics("/song-"+strconv.Itoa(i), "song"))
	}
	fallback := &fakeFallback{}
	inv := newInvestigator()
	pipeline := NewPipeline(Config{Site: site, Fallback: fallback, Investigator: inv})

	results := pipeline.Resolve(context.Background(), "song")
	if fallback.calls.Load() != 0 {
		t.Fatalf("expected external search to be skipped, got %d calls", fallback.calls.Load())
	}
	if site.guessCalls.Load() != 0 {
		t.Fatalf("expected url guessing to be skipped")
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
}

func TestResolveMergesFallbackAndDropsInvalid(t *testing.T) {
	site := &fakeSite{direct: []domain.LyricsResult{lyrics("/a", "A")}}
	fallback := &fakeFallback{results: []websearch.Result{
		webResult("/a", "A duplicate"),
		webResult("/b", "B"),
		webResult("/c", "C"),
	}}
	inv := newInvestigator()
	inv.reports[base+"/b"] = investigate.Report{Title: "Forum", Valid: false}
	inv.reports[base+"/c"] = investigate.Report{Title: "C - Singer", SongTitle: "C", Artist: "Singer", Valid: true}
	pipeline := NewPipeline(Config{Site: site, Fallback: fallback, Investigator: inv})

	results := pipeline.Resolve(context.Background(), "love")
	if fallback.calls.Load() != 1 {
		t.Fatalf("expected one external search, got %d", fallback.calls.Load())
	}
	if site.guessCalls.Load() != 0 {
		t.Fatalf("expected url guessing to be skipped")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].URL != base+"/a" || results[1].URL != base+"/c" {
		t.Fatalf("unexpected order %+v", results)
	}
	if results[1].Title != "C" || results[1].Artist != "Singer" {
		t.Fatalf("expected investigated metadata, got %+v", results[1])
	}
}

func TestGuessStageStopsAtFirstValidPage(t *testing.T) {
	site := &fakeSite{guesses: []string{base + "/x", base + "/y", base + "/z"}}
	fallback := &fakeFallback{err: errors.New("blocked")}
	inv := newInvestigator()
	inv.errs[base+"/x"] = &fetch.FetchError{URL: base + "/x", Err: errors.New("refused")}
	inv.reports[base+"/y"] = investigate.Report{Title: "Y - Artist", SongTitle: "Y", Artist: "Artist", Lyrics: "la la la", Valid: true}
	pipeline := NewPipeline(Config{Site: site, Fallback: fallback, Investigator: inv})

	results := pipeline.Resolve(context.Background(), "y")
	if len(results) != 1 || results[0].URL != base+"/y" || results[0].Title != "Y" {
		t.Fatalf("unexpected results %+v", results)
	}
	if inv.calls[base+"/z"] != 0 {
		t.Fatalf("expected guessing to stop after first valid page")
	}
	if inv.calls[base+"/y"] != 1 {
		t.Fatalf("expected guessed report to be reused, got %d investigations", inv.calls[base+"/y"])
	}
	if results[0].Enrichment == nil || results[0].Enrichment.Excerpt != "la la la..." {
		t.Fatalf("expected excerpt, got %+v", results[0].Enrichment)
	}
}

func TestTransportErrorKeepsCandidate(t *testing.T) {
	site := &fakeSite{direct: []domain.LyricsResult{lyrics("/a", "A"), lyrics("/b", "B"), lyrics("/c", "C")}}
	inv := newInvestigator()
	inv.errs[base+"/b"] = &fetch.FetchError{URL: base + "/b", Err: context.DeadlineExceeded}
	pipeline := NewPipeline(Config{Site: site, Investigator: inv})

	results := pipeline.Resolve(context.Background(), "abc")
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	if results[1] != lyrics("/b", "B") {
		t.Fatalf("expected unreachable candidate unchanged, got %+v", results[1])
	}
}

func TestInvestigationCappedAtFive(t *testing.T) {
	site := &fakeSite{}
	for i := range 7 {
		site.direct = append(site.direct, lyrics("/song-"+strconv.Itoa(i), "song"))
	}
	inv := newInvestigator()
	pipeline := NewPipeline(Config{Site: site, Investigator: inv})

	results := pipeline.Resolve(context.Background(), "song")
	if inv.total() != 5 || len(results) != 5 {
		t.Fatalf("expected 5 investigations and results, got %d and %d", inv.total(), len(results))
	}
}

func TestKoreanQueryWithoutJapanesePageIsUnchanged(t *testing.T) {
	site := &fakeSite{direct: []domain.LyricsResult{lyrics("/love", "사랑")}}
	inv := newInvestigator()
	inv.reports[base+"/love"] = investigate.Report{Title: "사랑 가사", Valid: true}
	tj := &fakeKaraoke{}
	pipeline := NewPipeline(Config{
		Site:           site,
		Fallback:       &fakeFallback{},
		Investigator:   inv,
		Fetcher:        fakeFetcher{pages: map[string]string{base + "/love": `<h1>사랑 가사</h1><p>한국어 번역만 있는 페이지</p>`}},
		CrossReference: []KaraokeSearcher{tj},
	})

	results := pipeline.Resolve(context.Background(), "사랑")
	if len(results) != 1 || results[0].Title != "사랑 가사" || results[0].Enrichment != nil {
		t.Fatalf("expected plain result, got %+v", results)
	}
	if tj.queries.Load() != 0 {
		t.Fatalf("expected no karaoke cross-reference")
	}
}

func TestKoreanQueryEnrichedWithKaraoke(t *testing.T) {
	site := &fakeSite{direct: []domain.LyricsResult{lyrics("/senbonzakura", "천본앵")}}
	inv := newInvestigator()
	inv.reports[base+"/senbonzakura"] = investigate.Report{Title: "천본앵", Lyrics: "大胆不敵にハイカラ革命", Valid: true}
	tj := &fakeKaraoke{results: []domain.KaraokeResult{{ID: "27447", Title: "千本桜", Source: domain.SourceTJ}}}
	ky := &fakeKaraoke{results: []domain.KaraokeResult{{ID: "43678", Title: "千本桜", Source: domain.SourceKY}}}
	pipeline := NewPipeline(Config{
		Site:           site,
		Investigator:   inv,
		Fetcher:        fakeFetcher{pages: map[string]string{base + "/senbonzakura": `<h1>메뉴</h1><h2>千本桜</h2>`}},
		CrossReference: []KaraokeSearcher{tj, ky},
	})

	results := pipeline.Resolve(context.Background(), "천본앵")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %+v", results)
	}
	got := results[0]
	if got.Title != "천본앵 (JP: 千本桜) [2 karaoke matches]" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Enrichment == nil || got.Enrichment.AlternateScriptTitle != "千本桜" {
		t.Fatalf("expected alternate title, got %+v", got.Enrichment)
	}
	if len(got.Enrichment.CrossReferencedKaraoke) != 2 || got.Enrichment.CrossReferencedKaraoke[0].Source != domain.SourceTJ {
		t.Fatalf("unexpected karaoke matches %+v", got.Enrichment.CrossReferencedKaraoke)
	}
	if got.Enrichment.Excerpt != "大胆不敵にハイカラ革命..." {
		t.Fatalf("expected excerpt to survive enrichment, got %q", got.Enrichment.Excerpt)
	}
	if tj.last.Load() != "千本桜" {
		t.Fatalf("expected karaoke query with alternate title, got %v", tj.last.Load())
	}
}

func TestNonKoreanQuerySkipsEnrichment(t *testing.T) {
	site := &fakeSite{direct: []domain.LyricsResult{lyrics("/melt", "Melt")}}
	tj := &fakeKaraoke{}
	pipeline := NewPipeline(Config{
		Site:           site,
		Investigator:   newInvestigator(),
		Fetcher:        fakeFetcher{pages: map[string]string{base + "/melt": `<h1>メルト</h1>`}},
		CrossReference: []KaraokeSearcher{tj},
	})
	pipeline.Resolve(context.Background(), "melt")
	if tj.queries.Load() != 0 {
		t.Fatalf("expected enrichment to be skipped for latin query")
	}
}
