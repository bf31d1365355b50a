package rag

import (
	"slices"
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
	titleMatchBonus    = float32(0.1)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "what": {}, "with": {},
}

// candidate is a search hit with its chunk text loaded.
type candidate struct {
	id           string
	documentID   string
	source       string
	title        string
	chunkIndex   int
	text         string
	scoreVector  float32
	scoreLexical float32
}

func (c candidate) score() float32 {
	return c.scoreVector + c.scoreLexical
}

// rerank scores every candidate lexically against the question and orders
// them by combined score. Ties keep the vector search order.
func rerank(question string, cands []candidate) {
	for i := range cands {
		cands[i].scoreLexical = lexicalScore(question, cands[i].text, cands[i].title)
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		switch sa, sb := a.score(), b.score(); {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		return 0
	})
}

// lexicalScore rates how often the question's content words occur in a chunk,
// normalised by chunk length, plus a bonus per question word found in the
// document title. The result never exceeds maxLexicalScore so vector
// similarity stays the dominant signal.
func lexicalScore(query, chunkText, title string) float32 {
	terms := contentWords(query)
	words := tokenize(chunkText)
	if len(terms) == 0 || len(words) == 0 {
		return 0
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	hits := 0
	for _, term := range terms {
		hits += counts[term]
	}
	score := lexicalLengthScale * float32(hits) / float32(len(words)+1)

	titleWords := tokenize(title)
	for _, term := range terms {
		if slices.Contains(titleWords, term) {
			score += titleMatchBonus
		}
	}

	return min(score, maxLexicalScore)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// tokenize lowercases text and splits it into runs of letters and digits.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !isWordRune(r) })
	if len(words) == 0 {
		return nil
	}
	return words
}

// contentWords tokenizes text and drops stopwords.
func contentWords(text string) []string {
	words := slices.DeleteFunc(tokenize(text), func(w string) bool {
		_, stop := lexicalStopwords[w]
		return stop
	})
	if len(words) == 0 {
		return nil
	}
	return words
}
