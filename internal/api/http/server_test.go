package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RanolP/imakaraokay/internal/domain"
)

type fakeSearchService struct {
	lastQuery domain.Query
	callCount int
}

func (f *fakeSearchService) Search(ctx context.Context, query domain.Query) domain.SearchResults {
	f.callCount++
	f.lastQuery = query
	return domain.SearchResults{
		Karaoke: []domain.KaraokeResult{{ID: "12345", Title: query.Text, Source: domain.SourceTJ}},
		Lyrics:  []domain.LyricsResult{},
	}
}

func (f *fakeSearchService) AutocompleteSuggestions(ctx context.Context, query domain.Query) domain.AutocompleteResults {
	f.callCount++
	f.lastQuery = query
	return domain.AutocompleteResults{Suggestions: []domain.AutocompleteResult{{Suggestion: query.Text + " 노래", Source: domain.SourceYouTube}}}
}

func (f *fakeSearchService) Providers() []domain.ProviderInfo {
	return []domain.ProviderInfo{
		{Name: "tj", Label: "TJ Media", Kind: domain.ProviderKindKaraoke, Enabled: true},
		{Name: "vocaro", Label: "Vocaro Wiki", Kind: domain.ProviderKindLyrics, Enabled: true},
	}
}

func (f *fakeSearchService) ProviderDiagnostics() []domain.ProviderDiagnostics {
	return []domain.ProviderDiagnostics{
		{Name: "tj", Label: "TJ Media", Kind: domain.ProviderKindKaraoke, Enabled: true, LastLatencyMS: 120},
	}
}

func serve(server *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSearchMissingQuery(t *testing.T) {
	fake := &fakeSearchService{}
	rec := serve(NewServer(fake), "/search?q=%20")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "invalid_request" || fake.callCount != 0 {
		t.Fatalf("unexpected error payload %s", rec.Body.String())
	}
}

func TestSearchRejectsLongQuery(t *testing.T) {
	rec := serve(NewServer(&fakeSearchService{}), "/search?q="+strings.Repeat("a", maxQueryLength+1))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSearchPassesQueryAndLimit(t *testing.T) {
	fake := &fakeSearchService{}
	rec := serve(NewServer(fake, WithDefaultLimit(20)), "/search?q=%EC%82%AC%EB%9E%91")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if fake.lastQuery.Text != "사랑" || fake.lastQuery.MaxResults != 20 {
		t.Fatalf("unexpected query %+v", fake.lastQuery)
	}

	serve(NewServer(fake), "/search?q=love&limit=5")
	if fake.lastQuery.MaxResults != 5 {
		t.Fatalf("expected explicit limit, got %d", fake.lastQuery.MaxResults)
	}

	if rec := serve(NewServer(fake), "/search?q=love&limit=-1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid limit, got %d", rec.Code)
	}
}

func TestSearchResponseShape(t *testing.T) {
	rec := serve(NewServer(&fakeSearchService{}), "/search?q=love")
	var payload domain.SearchResults
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Karaoke) != 1 || payload.Karaoke[0].ID != "12345" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"lyrics":[]`) {
		t.Fatalf("expected empty lyrics array, got %s", rec.Body.String())
	}
}

func TestAutocomplete(t *testing.T) {
	fake := &fakeSearchService{}
	rec := serve(NewServer(fake), "/search/autocomplete?q=love")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload domain.AutocompleteResults
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Suggestions) != 1 || payload.Suggestions[0].Suggestion != "love 노래" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
}

func TestProvidersEndpoints(t *testing.T) {
	server := NewServer(&fakeSearchService{})
	rec := serve(server, "/search/providers")
	var providers struct {
		Items []domain.ProviderInfo `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &providers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(providers.Items) != 2 || providers.Items[1].Kind != domain.ProviderKindLyrics {
		t.Fatalf("unexpected providers %s", rec.Body.String())
	}

	rec = serve(server, "/search/providers/health")
	var health struct {
		CheckedAt string                       `json:"checkedAt"`
		Items     []domain.ProviderDiagnostics `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.CheckedAt == "" || len(health.Items) != 1 || health.Items[0].LastLatencyMS != 120 {
		t.Fatalf("unexpected health payload %s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/search?q=love", nil)
	rec := httptest.NewRecorder()
	NewServer(&fakeSearchService{}).Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	rec := serve(NewServer(&fakeSearchService{}), "/health")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	NewServer(&fakeSearchService{}).Handler().ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", rec.Header().Get(requestIDHeader))
	}
}

func TestRateLimit(t *testing.T) {
	server := NewServer(&fakeSearchService{}, WithRateLimit(0.001, 1))
	handler := server.Handler()
	codes := make([]int, 0, 2)
	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=love", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func TestNormalizeRoute(t *testing.T) {
	cases := map[string]string{
		"/search":                  "/search",
		"/search/autocomplete":     "/search/autocomplete",
		"/search/providers/health": "/search/providers/health",
		"/favicon.ico":             "/other",
	}
	for path, want := range cases {
		if got := normalizeRoute(path); got != want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", path, got, want)
		}
	}
}
