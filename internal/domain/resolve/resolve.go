// Package resolve finds a Dataset record by a possibly variant entity name.
//
// Lookup order:
//  1. exact entity name
//  2. case-insensitive substring of the whole query
//  3. case-insensitive substring of each query token, in query order
//
// The first step (or token) that yields candidates decides the result. The first
// candidate in Dataset order is returned; all candidates of that step are
// reported so callers can detect ambiguous names.
package resolve

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/okian/covidboard/internal/domain/model"
)

// minTokenLen skips short tokens such as "of" or "St" that match too widely.
const minTokenLen = 3

// Kind tells which lookup step matched.
type Kind string

// Match kinds.
const (
	Exact     Kind = "exact"
	Substring Kind = "substring"
	Token     Kind = "token"
)

// Match is a successful resolution.
type Match struct {
	Record     model.Record
	Kind       Kind
	Candidates []string
}

// Ambiguous reports whether more than one entity matched.
func (m Match) Ambiguous() bool { return len(m.Candidates) > 1 }

// NotFoundError carries the names that could have matched.
type NotFoundError struct {
	Query     string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity %q not found among %d entities", e.Query, len(e.Available))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Resolve looks up query in d. It returns a *NotFoundError when nothing matches.
func Resolve(d *model.Dataset, query string) (Match, error) {
	if r, ok := d.Lookup(query); ok {
		return Match{Record: r, Kind: Exact, Candidates: []string{r.EntityName}}, nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" {
		if idx := search(d, q); len(idx) > 0 {
			return build(d, Substring, idx), nil
		}
	}

	for _, tok := range Tokens(query) {
		if idx := search(d, tok); len(idx) > 0 {
			return build(d, Token, idx), nil
		}
	}

	available := d.Names()
	sort.Strings(available)
	return Match{}, &NotFoundError{Query: query, Available: available}
}

// Tokens splits a name on punctuation and spaces, lowercased, dropping
// tokens shorter than three letters.
func Tokens(name string) []string {
	parts := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := parts[:0]
	for _, p := range parts {
		if len([]rune(p)) >= minTokenLen {
			out = append(out, p)
		}
	}
	return out
}

// search returns Dataset positions whose lowercased name contains needle.
func search(d *model.Dataset, needle string) []int {
	var idx []int
	for i := 0; i < d.Len(); i++ {
		if strings.Contains(strings.ToLower(d.At(i).EntityName), needle) {
			idx = append(idx, i)
		}
	}
	return idx
}

func build(d *model.Dataset, kind Kind, idx []int) Match {
	names := make([]string, len(idx))
	for i, j := range idx {
		names[i] = d.At(j).EntityName
	}
	return Match{Record: d.At(idx[0]), Kind: kind, Candidates: names}
}
