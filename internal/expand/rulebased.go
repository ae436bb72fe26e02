package expand

import (
	"context"
	"sort"
	"strings"
)

// fillerPhrases are removed longest-first so "show me the" is eliminated
// before the shorter "show me" would otherwise match part of it.
var fillerPhrases = []string{
	"show me the", "show me", "find me the", "find me", "can you find",
	"i want to", "i need to", "help me find", "where is the", "where is",
	"how do i", "what is the", "what is",
}

var stopWords = map[string]struct{}{
	"function": {}, "method": {}, "the": {}, "a": {}, "an": {}, "find": {},
	"search": {}, "for": {}, "of": {}, "that": {}, "which": {}, "to": {},
	"is": {}, "in": {}, "on": {}, "does": {}, "do": {},
}

// RuleBased implements Expander with no external dependencies: a
// "technical" variant strips filler phrases and stop words, and an
// "identifier" variant turns the remaining tokens into underscore-joined
// candidates.
type RuleBased struct{}

// NewRuleBased returns the zero-dependency rule-based expander.
func NewRuleBased() *RuleBased { return &RuleBased{} }

func (e *RuleBased) Expand(_ context.Context, query string) []string {
	variants := []string{query}

	technical := technicalVariant(query)
	if technical != "" && technical != query {
		variants = append(variants, technical)
	}

	identifier := identifierVariant(query)
	if identifier != "" && identifier != query && identifier != technical {
		variants = append(variants, identifier)
	}

	if len(variants) > 3 {
		variants = variants[:3]
	}
	return variants
}

func technicalVariant(query string) string {
	lowered := strings.ToLower(query)

	sorted := append([]string(nil), fillerPhrases...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for _, phrase := range sorted {
		lowered = strings.ReplaceAll(lowered, phrase, "")
	}

	fields := strings.Fields(lowered)
	kept := make([]string, 0, len(fields))
	for _, word := range fields {
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		kept = append(kept, word)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func identifierVariant(query string) string {
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if len(t) > 2 {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return ""
	}

	candidates := make([]string, 0, len(tokens)*2)
	candidates = append(candidates, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		candidates = append(candidates, tokens[i]+"_"+tokens[i+1])
	}
	return strings.Join(candidates, " ")
}
