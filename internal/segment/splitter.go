// Package segment splits paragraph text into sentences.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const ellipsis = "..."

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Split splits text into sentences.
//
// Fragments are cut after '.', '!' or '?' followed by whitespace, then merged
// back when the cut follows an abbreviation, an initial or a decimal number.
// A sentence with an inner ellipsis is split once at the ellipsis. Only
// whitespace is ever removed; input without any sentence returns as a single
// element.
func Split(text string) []string {
	normalized := lineBreaks.Replace(text)

	var sentences []string
	for _, s := range merge(candidates(normalized)) {
		sentences = append(sentences, splitEllipsis(s)...)
	}

	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// candidates cuts text at every whitespace run that follows a sentence terminator
func candidates(text string) []string {
	var out []string
	start := 0
	inBreak := false
	var prev rune

	for i, r := range text {
		if unicode.IsSpace(r) {
			if !inBreak && isTerminator(prev) {
				out = appendTrimmed(out, text[start:i])
				inBreak = true
			}
		} else if inBreak {
			start = i
			inBreak = false
		}
		prev = r
	}

	if !inBreak {
		out = appendTrimmed(out, text[start:])
	}
	return out
}

// merge joins fragments whose preceding sentence did not really end
func merge(fragments []string) []string {
	var sentences []string
	for _, f := range fragments {
		if n := len(sentences); n > 0 && continuesAfter(sentences[n-1]) {
			sentences[n-1] = sentences[n-1] + " " + f
			continue
		}
		sentences = append(sentences, f)
	}
	return sentences
}

// continuesAfter reports whether the sentence ends in an abbreviation, an
// initial or a decimal number rather than a true sentence boundary
func continuesAfter(sentence string) bool {
	words := strings.Fields(sentence)
	if len(words) == 0 {
		return false
	}
	last := words[len(words)-1]

	if IsAbbreviation(last) {
		return true
	}

	token := strings.TrimRight(last, ".")
	if utf8.RuneCountInString(token) == 1 {
		r, _ := utf8.DecodeRuneInString(token)
		if unicode.IsLetter(r) {
			return true
		}
	}

	return endsWithDecimal(sentence)
}

// endsWithDecimal reports whether the sentence ends in a period directly after a digit
func endsWithDecimal(sentence string) bool {
	trimmed := strings.TrimRightFunc(sentence, unicode.IsSpace)
	if !strings.HasSuffix(trimmed, ".") {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(strings.TrimSuffix(trimmed, "."))
	return unicode.IsDigit(r)
}

// splitEllipsis splits once at an inner ellipsis, keeping the ellipsis with the first part
func splitEllipsis(sentence string) []string {
	idx := strings.Index(sentence, ellipsis)
	if idx < 0 || strings.HasSuffix(sentence, ellipsis) {
		return []string{sentence}
	}

	head := strings.TrimSpace(sentence[:idx])
	tail := strings.TrimSpace(sentence[idx+len(ellipsis):])
	if head == "" || tail == "" {
		return []string{sentence}
	}
	return []string{head + ellipsis, tail}
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func appendTrimmed(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}
