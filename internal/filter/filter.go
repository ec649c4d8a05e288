package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
	"github.com/sahilm/fuzzy"
)

// Apply runs a JMESPath query against a JSON response body.
// An empty query returns the body unchanged.
func Apply(body string, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return body, nil
	}

	queried, err := applyJMESPath(body, query)
	if err != nil {
		return "", fmt.Errorf("failed to apply query: %w", err)
	}
	return queried, nil
}

// applyJMESPath applies a JMESPath expression to a JSON string
func applyJMESPath(jsonStr string, expression string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}

	if result == nil {
		return "null", nil
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(output), nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}

// Match is a list entry that survived a fuzzy filter
type Match struct {
	// Index is the position in the unfiltered list
	Index int
	Value string
	// Positions are the matched rune offsets, for highlighting
	Positions []int
}

// Fuzzy filters urls by pattern, best match first. An empty pattern keeps
// every entry in its original order.
func Fuzzy(urls []string, pattern string) []Match {
	if pattern == "" {
		out := make([]Match, len(urls))
		for i, u := range urls {
			out[i] = Match{Index: i, Value: u}
		}
		return out
	}

	found := fuzzy.Find(pattern, urls)
	out := make([]Match, 0, len(found))
	for _, m := range found {
		out = append(out, Match{Index: m.Index, Value: m.Str, Positions: m.MatchedIndexes})
	}
	return out
}
