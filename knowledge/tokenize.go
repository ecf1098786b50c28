package knowledge

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Token is one normalised word of a text.
type Token struct {
	Text string
	Tag  string // Penn Treebank tag; empty when tagging was not requested
	Stop bool
}

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "all": {}, "am": {}, "an": {}, "and": {},
	"any": {}, "are": {}, "as": {}, "at": {}, "be": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"but": {}, "by": {}, "can": {}, "could": {}, "did": {}, "do": {}, "does": {}, "doing": {}, "for": {},
	"from": {}, "get": {}, "go": {}, "had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "here": {},
	"him": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {},
	"just": {}, "let": {}, "ll": {}, "long": {}, "me": {}, "more": {}, "most": {}, "much": {}, "my": {},
	"near": {}, "no": {}, "not": {}, "nt": {}, "of": {}, "on": {}, "or": {}, "our": {}, "out": {},
	"over": {}, "pm": {}, "re": {}, "s": {}, "she": {}, "should": {}, "so": {}, "some": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "to": {}, "too": {}, "up": {}, "ve": {}, "very": {}, "was": {}, "we": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "who": {}, "why": {},
	"will": {}, "with": {}, "would": {}, "you": {}, "your": {},
}

// IsStopword reports whether a normalised word carries no retrieval signal.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// normalizeWords lower-cases text, drops apostrophes and splits on
// anything that is not a letter or digit.
func normalizeWords(text string) []string {
	text = strings.NewReplacer("'", "", "’", "").Replace(strings.ToLower(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isContent(word string) bool {
	if IsStopword(word) {
		return false
	}
	if len(word) > 1 {
		return true
	}
	return word != "" && unicode.IsDigit(rune(word[0]))
}

// TagTokens splits text into normalised tokens. With tagging enabled each
// token carries the part-of-speech tag of the word it came from.
func TagTokens(text string, tagging bool) []Token {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
		prose.WithTagging(tagging))
	if err != nil {
		tokens := make([]Token, 0)
		for _, w := range normalizeWords(text) {
			tokens = append(tokens, Token{Text: w, Stop: !isContent(w)})
		}
		return tokens
	}

	tokens := make([]Token, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		for _, w := range normalizeWords(tok.Text) {
			tokens = append(tokens, Token{Text: w, Tag: tok.Tag, Stop: !isContent(w)})
		}
	}
	return tokens
}

// Tokenize returns the content words of text, deduplicated in order of
// first appearance.
func Tokenize(text string) []string {
	seen := make(map[string]struct{})
	words := make([]string, 0)
	for _, tok := range TagTokens(text, false) {
		if tok.Stop {
			continue
		}
		if _, ok := seen[tok.Text]; ok {
			continue
		}
		seen[tok.Text] = struct{}{}
		words = append(words, tok.Text)
	}
	return words
}
