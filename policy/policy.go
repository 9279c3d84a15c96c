package policy

import (
	"strings"

	"github.com/sudo-Harshk/SeSPHR/interfaces"
)

// RevokedSentinel is the policy string installed by revocation. Detection is
// an exact match of a parsed predicate against (RevokedKey, RevokedValue);
// substring matching is deliberately not supported.
const (
	RevokedSentinel = "Role:__REVOKED__"
	revokedKey      = "Role"
	revokedValue    = "__REVOKED__"
)

// Combinator joins a predicate to the running evaluation result.
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// Predicate is one attribute condition: true iff the requester's attribute
// set contains Key with value exactly Value (case-sensitive).
type Predicate struct {
	Key   string
	Value string
}

// String returns the predicate in key:value form.
func (p Predicate) String() string {
	return p.Key + ":" + p.Value
}

// Matches evaluates the predicate against an attribute set. A missing key
// is false.
func (p Predicate) Matches(attrs interfaces.AttributeSet) bool {
	return attrs.Has(p.Key, p.Value)
}

// Clause is one step of a policy: a predicate and the combinator linking it
// to everything before it. The first clause of a policy has no combinator.
type Clause struct {
	Comb Combinator
	Pred Predicate
}

// Policy is an ordered sequence of clauses evaluated strictly left to right
// with no operator precedence.
type Policy struct {
	Clauses []Clause
}

// String returns the canonical text form of the policy.
func (p Policy) String() string {
	var b strings.Builder
	for i, c := range p.Clauses {
		if i > 0 {
			b.WriteString(" ")
			b.WriteString(string(c.Comb))
			b.WriteString(" ")
		}
		b.WriteString(c.Pred.String())
	}
	return b.String()
}

// Revoked reports whether the policy carries the revocation sentinel
// predicate. The check precedes normal evaluation and short-circuits it.
func (p Policy) Revoked() bool {
	for _, c := range p.Clauses {
		if c.Pred.Key == revokedKey && c.Pred.Value == revokedValue {
			return true
		}
	}
	return false
}

// Evaluate folds the clause sequence over the attribute set:
//
//	result = eval(clause[0])
//	for each following clause: result = result AND/OR eval(clause)
//
// Revocation is checked first and wins over everything else.
func (p Policy) Evaluate(attrs interfaces.AttributeSet) interfaces.AccessStatus {
	if p.Revoked() {
		return interfaces.StatusDeniedRevoked
	}

	result := p.Clauses[0].Pred.Matches(attrs)
	for _, c := range p.Clauses[1:] {
		switch c.Comb {
		case And:
			result = result && c.Pred.Matches(attrs)
		case Or:
			result = result || c.Pred.Matches(attrs)
		}
	}

	if result {
		return interfaces.StatusGranted
	}
	return interfaces.StatusDeniedPolicy
}

// Evaluate parses a policy string and evaluates it against an attribute set.
// A parse error is returned as-is so callers can audit the request as
// invalid rather than denied.
func Evaluate(policyStr string, attrs interfaces.AttributeSet) (interfaces.AccessStatus, error) {
	p, err := Parse(policyStr)
	if err != nil {
		return interfaces.StatusInvalidRequest, err
	}
	return p.Evaluate(attrs), nil
}
