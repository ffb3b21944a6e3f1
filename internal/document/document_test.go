package document

import (
	"errors"
	"testing"
)

func TestParseToleratesMalformedMarkup(t *testing.T) {
	doc, err := Parse([]byte(`<html><body><div class="lyrics"><p>unclosed <b>bold</div><li>stray`))
	if err != nil {
		t.Fatalf("expected tolerant parse, got %v", err)
	}
	if got := doc.Text(".lyrics"); got != "unclosed bold" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestMissingSelectorIsEmpty(t *testing.T) {
	doc, err := Parse([]byte(`<html><body><p>hello</p></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Find(".nothing").Length() != 0 {
		t.Fatalf("expected empty selection")
	}
	if doc.Text(".nothing") != "" {
		t.Fatalf("expected empty text")
	}
	if AttrOf(doc.Find("a"), "href") != "" {
		t.Fatalf("expected missing attribute")
	}
}

func TestTitleFallsBackToHeading(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body><h1>  千本桜 </h1></body></html>`))
	if got := doc.Title(); got != "千本桜" {
		t.Fatalf("expected h1 fallback, got %q", got)
	}
	doc, _ = Parse([]byte(`<html><head><title>Song - Artist</title></head><body><h1>other</h1></body></html>`))
	if got := doc.Title(); got != "Song - Artist" {
		t.Fatalf("expected title element, got %q", got)
	}
}

func TestRemoveAndBodyText(t *testing.T) {
	doc, _ := Parse([]byte(`<html><body><nav>menu</nav><script>var x</script><p>keep   this</p></body></html>`))
	doc.Remove("nav, script")
	if got := doc.BodyText(); got != "keep this" {
		t.Fatalf("unexpected body text %q", got)
	}
}

func TestFirstText(t *testing.T) {
	doc, _ := Parse([]byte(`<div><span class="b">second</span><span class="c">third</span></div>`))
	if got := doc.FirstText(".a", ".b", ".c"); got != "second" {
		t.Fatalf("unexpected first text %q", got)
	}
}

func TestParseJSONPlainAndJSONP(t *testing.T) {
	plain, err := ParseJSON([]byte(`["miku",["miku song","miku live"]]`))
	if err != nil {
		t.Fatalf("plain json: %v", err)
	}
	if got := plain.Strings("1"); len(got) != 2 || got[0] != "miku song" {
		t.Fatalf("unexpected suggestions %#v", got)
	}

	wrapped, err := ParseJSON([]byte(`window.google.ac.h(["miku",["miku song"]])`))
	if err != nil {
		t.Fatalf("jsonp: %v", err)
	}
	if got := wrapped.Strings("1"); len(got) != 1 {
		t.Fatalf("unexpected suggestions %#v", got)
	}
}

func TestParseJSONRootArray(t *testing.T) {
	doc, err := ParseJSON([]byte(`["千本桜", "千本桜 (Remix)", 3]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Strings(""); len(got) != 2 {
		t.Fatalf("expected only string members, got %#v", got)
	}
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	_, err := ParseJSON([]byte(`<html>blocked</html>`))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
