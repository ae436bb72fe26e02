// Package expand generates up to three phrasings of a search query, the
// original first. The rule-based expander adds up to two rewrites (a
// "technical" one and an "identifier" one); the LLM expander adds up to two
// LLM-proposed alternatives and no rule-based rewrite.
package expand

import "context"

// Expander produces variant 0 = the original query, followed by up to 2
// more variants.
type Expander interface {
	Expand(ctx context.Context, query string) []string
}
