package tts

import (
	"strings"
	"unicode"
)

// sentenceBreaks end a token. The break character stays with the token it
// ends so the backend still sees the punctuation.
const sentenceBreaks = ".!?;:,\n。，、！？…"

// SplitText cuts text into chunks of at most max runes. Cuts prefer
// punctuation, then whitespace, and only split a word when it alone is
// longer than max. Adjacent short tokens are merged back together up to the
// limit. Tokens without any letter or digit are dropped since backends
// reject them.
func SplitText(text string, max int) []string {
	if max <= 0 {
		return nil
	}

	var chunks []string
	var current []rune

	flush := func() {
		if s := strings.TrimSpace(string(current)); s != "" {
			chunks = append(chunks, s)
		}
		current = current[:0]
	}

	for _, token := range tokenize(text) {
		for _, piece := range minimize(token, max) {
			if !speakable(piece) {
				continue
			}
			r := []rune(piece)
			if len(current) > 0 && len(current)+1+len(r) > max {
				flush()
			}
			if len(current) > 0 {
				current = append(current, ' ')
			}
			current = append(current, r...)
		}
	}
	flush()
	return chunks
}

func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if strings.ContainsRune(sentenceBreaks, r) {
			tokens = append(tokens, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, strings.TrimSpace(b.String()))
	}
	return tokens
}

// minimize splits token at whitespace until every piece fits in max runes.
func minimize(token string, max int) []string {
	r := []rune(strings.Join(strings.Fields(token), " "))
	var out []string
	for len(r) > max {
		cut := -1
		for i := max; i > 0; i-- {
			if unicode.IsSpace(r[i]) {
				cut = i
				break
			}
		}
		if cut <= 0 {
			out = append(out, string(r[:max]))
			r = r[max:]
			continue
		}
		out = append(out, string(r[:cut]))
		r = r[cut+1:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

func speakable(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
