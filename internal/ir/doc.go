// Package ir holds the trip request documents built from constraint
// expressions: IR (the whole trip), Stage (one city leg) and
// DynamicConstraint (named time, budget, transport and party slots).
//
// These are plain aggregates. Every constraint slot is an optional
// expr.Expr root; a nil slot means "unconstrained", never "zero". A
// consumer checks a candidate itinerary by evaluating each populated slot
// independently (see Slots) and treating absent slots as satisfied.
//
// Key design constraints:
//   - Documents are built once and never mutated; refinement builds new ones
//   - Every nested Stage and Expr belongs to exactly one IR
//   - All JSON tags use snake_case; slots encode through the expr codec
//   - DocumentID is content-addressed over canonical JSON
package ir
