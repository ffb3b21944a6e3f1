package textnorm

type Script int

const (
	ScriptOther Script = iota
	ScriptKorean
	ScriptJapanese
)

func (s Script) String() string {
	switch s {
	case ScriptKorean:
		return "korean"
	case ScriptJapanese:
		return "japanese"
	default:
		return "other"
	}
}

type runeRange struct{ lo, hi rune }

var (
	koreanRanges = []runeRange{
		{0xAC00, 0xD7AF}, // Hangul syllables
		{0x1100, 0x11FF}, // Hangul jamo
		{0x3130, 0x318F}, // compatibility jamo
	}
	japaneseRanges = []runeRange{
		{0x3040, 0x309F}, // hiragana
		{0x30A0, 0x30FF}, // katakana
		{0x4E00, 0x9FAF}, // CJK unified ideographs
	}
)

func inRanges(r rune, ranges []runeRange) bool {
	for _, rr := range ranges {
		if r >= rr.lo && r <= rr.hi {
			return true
		}
	}
	return false
}

func containsAny(text string, ranges []runeRange) bool {
	for _, r := range text {
		if inRanges(r, ranges) {
			return true
		}
	}
	return false
}

func ContainsKorean(text string) bool {
	return containsAny(text, koreanRanges)
}

func ContainsJapanese(text string) bool {
	return containsAny(text, japaneseRanges)
}

// ScriptOf classifies text by block membership. Hangul wins over kana and
// kanji when both appear.
func ScriptOf(text string) Script {
	switch {
	case ContainsKorean(text):
		return ScriptKorean
	case ContainsJapanese(text):
		return ScriptJapanese
	default:
		return ScriptOther
	}
}
