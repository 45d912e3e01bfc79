package ml

import (
	"strings"
	"unicode"

	"allergy-menu-guard/internal/core/ingredient"
)

var ideographicScripts = []*unicode.RangeTable{
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
}

func isIdeographic(r rune) bool {
	return r == 'ー' || unicode.IsOneOf(ideographicScripts, r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == 'ー'
}

// words 切出字詞；拉丁與韓文需至少兩個字元，漢字與假名單字也保留
func words(text string) []string {
	var out []string
	for _, field := range strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) }) {
		runes := []rune(field)
		if len(runes) >= 2 || isIdeographic(runes[0]) {
			out = append(out, field)
		}
	}
	return out
}

// cjkBigrams 將漢字／假名連續片段拆成相鄰兩字，讓沒有空白分隔的菜名也能部分比對
func cjkBigrams(word string) []string {
	var out []string
	var run []rune

	flush := func() {
		if len(run) > 2 {
			for i := 0; i+1 < len(run); i++ {
				out = append(out, string(run[i:i+2]))
			}
		}
		run = run[:0]
	}

	for _, r := range word {
		if isIdeographic(r) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// Analyze 文字前處理後產生詞彙：字詞 n-gram 加上漢字雙字詞
func Analyze(text string, ngramMin, ngramMax int) []string {
	tokens := words(ingredient.Clean(text))
	if len(tokens) == 0 {
		return nil
	}
	if ngramMin < 1 {
		ngramMin = 1
	}
	if ngramMax < ngramMin {
		ngramMax = ngramMin
	}

	terms := make([]string, 0, len(tokens)*(ngramMax-ngramMin+1))
	for n := ngramMin; n <= ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	for _, tok := range tokens {
		terms = append(terms, cjkBigrams(tok)...)
	}
	return terms
}
