package resolve

import (
	"testing"

	"github.com/RanolP/imakaraokay/internal/document"
)

func TestExtractAlternateTitle(t *testing.T) {
	cases := map[string]struct {
		page string
		want string
	}{
		"heading": {
			page: `<h1>보카로 가사 위키</h1><h2 class="title">メルト</h2>`,
			want: "メルト",
		},
		"boilerplate heading skipped": {
			page: `<h1>작성자 初音ミク</h1><h3>ワールドイズマイン</h3>`,
			want: "ワールドイズマイン",
		},
		"paragraph fallback": {
			page: `<h1>사랑</h1><p>원제: 恋愛裁判</p>`,
			want: "원제: 恋愛裁判",
		},
		"first paragraph rejected": {
			page: `<p>로그인 ログイン</p><p>恋愛裁判</p>`,
			want: "",
		},
		"no japanese": {
			page: `<h1>사랑</h1><p>번역</p>`,
			want: "",
		},
		"same as query": {
			page: `<h1>千本桜</h1>`,
			want: "",
		},
	}
	for name, tc := range cases {
		doc, err := document.Parse([]byte(tc.page))
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if got := ExtractAlternateTitle(doc, "千本桜"); got != tc.want {
			t.Errorf("%s: got %q, want %q", name, got, tc.want)
		}
	}
}

func TestIsLikelySongTitle(t *testing.T) {
	if isLikelySongTitle("12345") || isLikelySongTitle("www.example") || isLikelySongTitle("이전 글") {
		t.Fatalf("expected boilerplate to be rejected")
	}
	if !isLikelySongTitle("千本桜") {
		t.Fatalf("expected title to be accepted")
	}
}
