package policy

import (
	"fmt"
	"strings"
)

// ParseError describes a policy string that does not match the grammar
//
//	policy     := predicate (combinator predicate)*
//	predicate  := key ":" value
//	combinator := "AND" | "OR"
type ParseError struct {
	Pos   int    // zero-based token position
	Token string // offending token, empty when input ended early
	Msg   string
}

// Error returns a description of the grammar violation.
func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("policy parse error at token %d: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("policy parse error at token %d (%q): %s", e.Pos, e.Token, e.Msg)
}

// Parse tokenizes and parses a policy string into an ordered clause list.
// Tokens are whitespace-separated; predicates and combinators must strictly
// alternate, starting and ending with a predicate.
func Parse(policyStr string) (Policy, error) {
	tokens := strings.Fields(policyStr)
	if len(tokens) == 0 {
		return Policy{}, &ParseError{Pos: 0, Msg: "empty policy"}
	}

	var clauses []Clause
	for i, tok := range tokens {
		if i%2 == 0 {
			pred, err := parsePredicate(i, tok)
			if err != nil {
				return Policy{}, err
			}
			comb := Combinator("")
			if i > 0 {
				comb = Combinator(tokens[i-1])
			}
			clauses = append(clauses, Clause{Comb: comb, Pred: pred})
			continue
		}

		switch Combinator(tok) {
		case And, Or:
		default:
			return Policy{}, &ParseError{Pos: i, Token: tok, Msg: "expected AND or OR"}
		}
	}

	if len(tokens)%2 == 0 {
		return Policy{}, &ParseError{Pos: len(tokens), Msg: "policy ends with a combinator"}
	}

	return Policy{Clauses: clauses}, nil
}

func parsePredicate(pos int, tok string) (Predicate, error) {
	key, value, found := strings.Cut(tok, ":")
	if !found {
		return Predicate{}, &ParseError{Pos: pos, Token: tok, Msg: "expected key:value predicate"}
	}
	if key == "" || value == "" {
		return Predicate{}, &ParseError{Pos: pos, Token: tok, Msg: "predicate key and value must be non-empty"}
	}
	return Predicate{Key: key, Value: value}, nil
}

// Canonicalize parses a policy string and returns its canonical text form,
// with single spaces between tokens. Stored policies are always canonical.
func Canonicalize(policyStr string) (string, error) {
	p, err := Parse(policyStr)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}
