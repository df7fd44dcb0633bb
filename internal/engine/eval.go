package engine

// Residual WHERE evaluation. Every planned predicate is re-applied here, so
// server-side pushdown can only narrow the candidate set, never decide it.

// Filter keeps the objects matching every predicate, preserving input order.
func Filter(objs []*Object, preds []Predicate) []*Object {
	if len(preds) == 0 {
		return objs
	}
	out := make([]*Object, 0, len(objs))
	for _, o := range objs {
		if Matches(o, preds) {
			out = append(out, o)
		}
	}
	return out
}

// Matches evaluates the conjunction in source order with short-circuiting.
func Matches(o *Object, preds []Predicate) bool {
	for i := range preds {
		if !evalPredicate(o, &preds[i]) {
			return false
		}
	}
	return true
}

// evalPredicate restricts both operators to present, type-compatible scalar
// values: a missing path, a null, or a type mismatch satisfies neither '=='
// nor '!='. Absence never satisfies a predicate.
func evalPredicate(o *Object, p *Predicate) bool {
	v, ok := o.Lookup(p.Path)
	if !ok || v == nil {
		return false
	}
	eq, comparable := scalarEqual(v, p.Value)
	if !comparable {
		return false
	}
	if p.Op == Ne {
		return !eq
	}
	return eq
}

// scalarEqual compares a looked-up value with a literal of the same JSON
// type. The second result is false when the types differ or the value is not
// a scalar.
func scalarEqual(v, lit any) (equal, comparable bool) {
	switch l := lit.(type) {
	case bool:
		b, ok := v.(bool)
		return ok && b == l, ok
	case float64:
		n, ok := v.(float64)
		return ok && n == l, ok
	case string:
		s, ok := v.(string)
		return ok && s == l, ok
	default:
		return false, false
	}
}
