// Package value provides the closed set of dynamic values that flow through
// constraint evaluation.
//
// This package contains no internal imports. expr, ir and every layer above
// them share these types, so value stays the foundational layer.
//
// Key design constraints:
//   - Value is sealed: Null, Number, Text, Bool, List and Record only
//   - Numbers are float64 (budgets and ratings are fractional)
//   - Object keys are always emitted in RFC 8785 order
//   - Absent data is Null, never a Go nil inside a List or Record
package value
