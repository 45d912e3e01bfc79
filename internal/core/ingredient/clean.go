package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// 片假名長音符號屬於 Common 文字區塊，需額外保留
const prolongedSoundMark = 'ー'

var supportedScripts = []*unicode.RangeTable{
	unicode.Latin,
	unicode.Hangul,
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
}

// Clean 文字前處理：NFKC 正規化、轉小寫、移除支援文字以外的字元並壓縮空白。
// OCR 雜訊與標點因此不會影響比對。
func Clean(text string) string {
	if text == "" {
		return ""
	}

	// cases.Caser 帶狀態，不可跨 goroutine 共用
	lowered := cases.Lower(language.Und).String(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsDigit(r), r == prolongedSoundMark, unicode.IsOneOf(supportedScripts, r):
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
