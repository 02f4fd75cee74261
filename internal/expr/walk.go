package expr

import "sort"

// Walk visits e and its descendants in pre-order.
// If visit returns false the node's children are skipped.
// Aggregate filters are visited as children of their Aggregate.
func Walk(e Expr, visit func(Expr) bool) {
	n := deref(e)
	if n == nil || !visit(n) {
		return
	}

	switch node := n.(type) {
	case Op:
		Walk(node.Left, visit)
		Walk(node.Right, visit)
	case UnaryOp:
		Walk(node.Operand, visit)
	case Arithmetic:
		Walk(node.Left, visit)
		Walk(node.Right, visit)
	case Aggregate:
		Walk(node.Filter, visit)
	}
}

// Size returns the number of nodes in e.
func Size(e Expr) int {
	count := 0
	Walk(e, func(Expr) bool {
		count++
		return true
	})
	return count
}

// Fields returns the context-level field names e reads, sorted and
// de-duplicated. Fields inside aggregate filters resolve against records,
// not the context, so they are reported by RecordFields instead.
func Fields(e Expr) []string {
	seen := make(map[string]bool)
	Walk(e, func(n Expr) bool {
		switch node := n.(type) {
		case Field:
			seen[node.Name] = true
		case Aggregate:
			return false
		}
		return true
	})
	return sortedSet(seen)
}

// RecordFields returns the record field names aggregates in e read: the
// reduced field, a projected return field, and every field their filters
// reference. Sorted and de-duplicated.
func RecordFields(e Expr) []string {
	seen := make(map[string]bool)
	Walk(e, func(n Expr) bool {
		agg, ok := n.(Aggregate)
		if !ok {
			return true
		}
		if agg.Field != "" {
			seen[agg.Field] = true
		}
		if agg.ReturnField != "" && agg.ReturnField != ProjectAll {
			seen[agg.ReturnField] = true
		}
		for _, f := range Fields(agg.Filter) {
			seen[f] = true
		}
		return true
	})
	return sortedSet(seen)
}

// HasAggregate reports whether e contains an Aggregate node.
func HasAggregate(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if _, ok := n.(Aggregate); ok {
			found = true
		}
		return !found
	})
	return found
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
