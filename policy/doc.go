// Package policy parses and evaluates attribute-based access policies.
//
// The grammar is a flat alternation of predicates and combinators:
//
//	Role:Doctor AND Dept:Cardiology OR Role:Admin
//
// Evaluation is a strict left-to-right fold with no operator precedence:
// "a OR b AND c" evaluates as "(a OR b) AND c". A predicate is true iff the
// requester's attribute set contains the key with exactly the given value;
// missing keys are false.
//
// A policy containing the revocation sentinel predicate (RevokedSentinel)
// short-circuits to DENIED_REVOKED before any predicate is evaluated.
//
// Evaluation is pure and side-effect-free, safe for unlimited concurrent use.
package policy
