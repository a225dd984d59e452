// Package tokenizer provides morphological analysis for the search engine.
// It lower-cases input, splits on non-alphanumeric boundaries, and tags each
// token with a part-of-speech class. Indexing and query processing only
// consume tokens tagged as nouns; everything else is discarded as
// non-content-bearing.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/docrank/docrank/pkg/errors"
)

// PartOfSpeech classifies a token's grammatical role.
type PartOfSpeech int

const (
	TagNoun PartOfSpeech = iota
	TagVerb
	TagAdjective
	TagAdverb
	TagFunction
)

func (p PartOfSpeech) String() string {
	switch p {
	case TagNoun:
		return "noun"
	case TagVerb:
		return "verb"
	case TagAdjective:
		return "adjective"
	case TagAdverb:
		return "adverb"
	case TagFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Token is a single normalised surface form with its part-of-speech tag.
type Token struct {
	Surface string
	Tag     PartOfSpeech
}

// Analyzer produces a tagged token stream from raw text. Implementations
// must be deterministic for identical input so that indexing and scoring
// are reproducible.
type Analyzer interface {
	Tokenize(text string) ([]Token, error)
}

// functionWords are articles, prepositions, pronouns, auxiliaries, and
// conjunctions. They carry no content and are tagged TagFunction.
var functionWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {}, "she": {},
	"we": {}, "you": {}, "i": {}, "my": {}, "your": {}, "our": {},
}

// RuleAnalyzer is the default Analyzer: a stateless rule-based tagger using
// a function-word list and suffix heuristics. A single instance is safe for
// concurrent use by any number of goroutines.
type RuleAnalyzer struct{}

// NewAnalyzer returns the default rule-based Analyzer.
func NewAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

// Tokenize breaks text into lowercased, tagged tokens. It returns
// ErrTokenization if the input is not valid UTF-8.
func (a *RuleAnalyzer) Tokenize(text string) ([]Token, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", apperrors.ErrTokenization)
	}
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		tokens = append(tokens, Token{
			Surface: word,
			Tag:     classify(word),
		})
	}
	return tokens, nil
}

// classify assigns a part-of-speech tag from the function-word list and a
// small set of suffix rules. Words with no matching rule default to nouns,
// which errs on the side of indexing too much rather than too little.
func classify(word string) PartOfSpeech {
	if _, ok := functionWords[word]; ok {
		return TagFunction
	}
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ly"):
		return TagAdverb
	case len(word) > 5 && strings.HasSuffix(word, "ing"):
		return TagVerb
	case len(word) > 5 && strings.HasSuffix(word, "ed"):
		return TagVerb
	case len(word) > 5 && (strings.HasSuffix(word, "ous") ||
		strings.HasSuffix(word, "ful") ||
		strings.HasSuffix(word, "ive") ||
		strings.HasSuffix(word, "able") ||
		strings.HasSuffix(word, "ible")):
		return TagAdjective
	default:
		return TagNoun
	}
}

// Nouns returns the surfaces of all noun tokens in order, duplicates
// preserved. Used by the index builder to count term frequencies.
func Nouns(tokens []Token) []string {
	nouns := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Tag == TagNoun {
			nouns = append(nouns, t.Surface)
		}
	}
	return nouns
}

// DistinctNouns returns the distinct noun surfaces in first-occurrence
// order. Used by the query processor to fix the query-term ordering.
func DistinctNouns(tokens []Token) []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Tag != TagNoun {
			continue
		}
		if _, ok := seen[t.Surface]; ok {
			continue
		}
		seen[t.Surface] = struct{}{}
		terms = append(terms, t.Surface)
	}
	return terms
}
