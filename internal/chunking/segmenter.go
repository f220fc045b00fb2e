package chunking

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// abbreviations whose trailing period does not end a sentence.
// Single-letter initials ("J. Smith") are handled separately.
var abbreviations = map[string]struct{}{
	"dr": {}, "mr": {}, "mrs": {}, "ms": {}, "prof": {}, "rev": {},
	"sr": {}, "jr": {}, "st": {}, "vs": {}, "etc": {}, "al": {},
	"inc": {}, "ltd": {}, "co": {}, "corp": {}, "dept": {}, "univ": {},
	"no": {}, "nos": {}, "vol": {}, "fig": {}, "est": {}, "approx": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {},
	"aug": {}, "sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

// Segment splits text into sentences. Each returned element is a raw
// span of the input with its trailing whitespace attached, so joining
// all sentences reproduces the input byte for byte.
//
// A boundary is a run of terminal punctuation ('.', '!', '?'), plus
// any closing quotes or brackets stuck to it, followed by whitespace
// or end of text. A period inside a decimal, URL or email never has
// whitespace after it, so those fall out naturally. Abbreviations and
// single-letter initials suppress the boundary.
//
// Empty input returns an empty sequence; text without terminal
// punctuation returns a single sentence spanning the whole input.
func Segment(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	if !utf8.ValidString(text) {
		return nil, &domain.SegmentationError{Reason: "invalid UTF-8"}
	}

	runes := []rune(text)
	var sentences []string
	start := 0
	i := 0

	for i < len(runes) {
		if !isTerminal(runes[i]) {
			i++
			continue
		}

		// Consume the whole punctuation run, then any closing quotes.
		punctEnd := i
		for punctEnd < len(runes) && isTerminal(runes[punctEnd]) {
			punctEnd++
		}
		end := punctEnd
		for end < len(runes) && isClosingQuote(runes[end]) {
			end++
		}

		// Not a boundary unless whitespace or end of text follows.
		// This keeps decimals ("3.5"), URLs and emails intact.
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end
			continue
		}

		// A lone period after an abbreviation or initial is not a
		// boundary even when whitespace follows ("Dr. Smith").
		if punctEnd-i == 1 && runes[i] == '.' && isAbbreviation(runes[start:i]) {
			i = end
			continue
		}

		// Attach trailing whitespace to the closing sentence so the
		// spans concatenate back to the original text.
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}
		sentences = append(sentences, string(runes[start:end]))
		start = end
		i = end
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences, nil
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosingQuote(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}

// isAbbreviation reports whether the text before a period ends in a
// known abbreviation or a single-letter initial.
func isAbbreviation(before []rune) bool {
	end := len(before)
	begin := end
	for begin > 0 && unicode.IsLetter(before[begin-1]) {
		begin--
	}
	if begin == end {
		return false
	}
	if end-begin == 1 {
		return true
	}
	word := strings.ToLower(string(before[begin:end]))
	_, ok := abbreviations[word]
	return ok
}
