package websearch

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RanolP/imakaraokay/internal/document"
	"github.com/RanolP/imakaraokay/internal/fetch"
)

const domain = "vocaro.wikidot.com"

func bingLink(target string) string {
	return "https://www.bing.com/ck/a?!&&p=abc&u=a1" + base64.RawURLEncoding.EncodeToString([]byte(target)) + "&ntb=1"
}

func TestParseResultsAlgoBlocks(t *testing.T) {
	page := `<ol id="b_results">
<li class="b_algo"><h2><a href="http://vocaro.wikidot.com/senbonzakura">千本桜 - 보카로 가사 위키</a></h2>
  <div class="b_caption"><p>千本桜 가사 번역</p></div></li>
<li class="b_algo"><h2><a href="` + bingLink("http://vocaro.wikidot.com/melt") + `">メルト</a></h2></li>
<li class="b_algo"><h2><a href="https://example.com/other">other site</a></h2></li>
<li class="b_algo"><h2><a href="/search?q=more">related</a></h2></li>
</ol>`
	doc, _ := document.Parse([]byte(page))
	results := parseResults(doc, domain, 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 domain results, got %+v", results)
	}
	if results[0].URL != "http://vocaro.wikidot.com/senbonzakura" || results[0].Snippet != "千本桜 가사 번역" {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].URL != "http://vocaro.wikidot.com/melt" {
		t.Fatalf("expected redirect to be unwrapped, got %q", results[1].URL)
	}
	if results[1].Snippet != noSnippet {
		t.Fatalf("expected placeholder snippet, got %q", results[1].Snippet)
	}
}

func TestParseResultsRespectsMax(t *testing.T) {
	var b strings.Builder
	for _, slug := range []string{"a", "b", "c", "d"} {
		b.WriteString(`<li class="b_algo"><h2><a href="http://vocaro.wikidot.com/` + slug + `">` + slug + `</a></h2></li>`)
	}
	doc, _ := document.Parse([]byte(b.String()))
	if got := parseResults(doc, domain, 2); len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestParseResultsGeneralFallback(t *testing.T) {
	doc, _ := document.Parse([]byte(`<div>
<a href="https://www.bing.com/images">Images</a>
<a href="` + bingLink("http://vocaro.wikidot.com/hello") + `">hey</a>
<a href="` + bingLink("http://vocaro.wikidot.com/hello") + `">hello world page</a>
</div>`))
	results := parseResults(doc, domain, 5)
	if len(results) != 1 || results[0].URL != "http://vocaro.wikidot.com/hello" || results[0].Title != "hello world page" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestResultURL(t *testing.T) {
	cases := []struct {
		href string
		want string
		ok   bool
	}{
		{"http://vocaro.wikidot.com/x", "http://vocaro.wikidot.com/x", true},
		{"/relative", "", false},
		{"https://www.bing.com/search?q=x", "", false},
		{"https://other.example/x", "", false},
		{"/aclk?ld=1&url=http%3A%2F%2Fvocaro.wikidot.com%2Fad", "http://vocaro.wikidot.com/ad", true},
	}
	for _, tc := range cases {
		got, ok := resultURL(tc.href, domain)
		if got != tc.want || ok != tc.ok {
			t.Errorf("resultURL(%q) = %q, %v; want %q, %v", tc.href, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSearchDomainBuildsQuery(t *testing.T) {
	var gotQ, gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		_, _ = w.Write([]byte(`<li class="b_algo"><h2><a href="http://vocaro.wikidot.com/x">x</a></h2></li>`))
	}))
	defer srv.Close()

	bing := NewBing(Config{Endpoint: srv.URL, Fetcher: fetch.NewGateway(fetch.Config{Client: srv.Client()})})
	results, err := bing.SearchDomain(context.Background(), "사랑", domain, 5)
	if err != nil {
		t.Fatalf("SearchDomain: %v", err)
	}
	if gotQ != "사랑 site:vocaro.wikidot.com" || gotCount != "10" {
		t.Fatalf("unexpected query q=%q count=%q", gotQ, gotCount)
	}
	if len(results) != 1 {
		t.Fatalf("unexpected results %+v", results)
	}

	_, _ = bing.SearchDomain(context.Background(), "x", domain, 50)
	if gotCount != "20" {
		t.Fatalf("expected count to be capped at 20, got %q", gotCount)
	}
}

func TestSearchDomainStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	bing := NewBing(Config{Endpoint: srv.URL, Fetcher: fetch.NewGateway(fetch.Config{Client: srv.Client()})})
	_, err := bing.SearchDomain(context.Background(), "x", domain, 5)
	var statusErr *fetch.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
}
