package engine

import (
	"strings"

	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
)

// Aggregate consumes the post-filter rows once and produces the single
// synthetic result row, keyed by the source text of each expression.
//
// Per-value rules: absent paths and JSON nulls are skipped by every function
// except count(*). sum/avg error on a present non-number; min/max accept
// Bool, Number or String but error on a container value or a mix of scalar
// types across rows.
func Aggregate(objs []*Object, aggs []Aggregation) (*Fields, error) {
	states := make([]aggState, len(aggs))
	for i := range aggs {
		states[i] = newAggState(&aggs[i])
	}
	for _, o := range objs {
		for i := range states {
			if err := states[i].consume(o); err != nil {
				return nil, err
			}
		}
	}
	row := NewFields()
	for i := range states {
		row.Set(aggs[i].Source, states[i].result())
	}
	return row, nil
}

type aggState interface {
	consume(*Object) error
	result() any
}

func newAggState(a *Aggregation) aggState {
	switch a.Func {
	case Count:
		return &countState{agg: a}
	case Sum:
		return &sumState{agg: a}
	case Avg:
		return &sumState{agg: a, average: true}
	default:
		return &extremumState{agg: a, max: a.Func == Max}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "object"
	}
}

type countState struct {
	agg *Aggregation
	n   float64
}

func (s *countState) consume(o *Object) error {
	if s.agg.Path == "" {
		s.n++
		return nil
	}
	if v, ok := o.Lookup(s.agg.Path); ok && v != nil {
		s.n++
	}
	return nil
}

func (s *countState) result() any { return s.n }

// sumState backs both sum and avg with double-precision accumulation.
type sumState struct {
	agg     *Aggregation
	average bool
	total   float64
	n       int
}

func (s *sumState) consume(o *Object) error {
	v, ok := o.Lookup(s.agg.Path)
	if !ok || v == nil {
		return nil
	}
	n, ok := v.(float64)
	if !ok {
		return &kqerr.EngineError{
			Function: string(s.agg.Func),
			Path:     s.agg.Path,
			Observed: typeName(v),
		}
	}
	s.total += n
	s.n++
	return nil
}

func (s *sumState) result() any {
	if s.average {
		if s.n == 0 {
			return nil
		}
		return s.total / float64(s.n)
	}
	return s.total
}

type extremumState struct {
	agg  *Aggregation
	max  bool
	seen bool
	best any
}

func (s *extremumState) consume(o *Object) error {
	v, ok := o.Lookup(s.agg.Path)
	if !ok || v == nil {
		return nil
	}
	switch v.(type) {
	case bool, float64, string:
	default:
		return &kqerr.EngineError{
			Function: string(s.agg.Func),
			Path:     s.agg.Path,
			Observed: typeName(v),
		}
	}
	if !s.seen {
		s.seen, s.best = true, v
		return nil
	}
	if typeName(v) != typeName(s.best) {
		return &kqerr.EngineError{
			Function: string(s.agg.Func),
			Path:     s.agg.Path,
			Types:    []string{typeName(s.best), typeName(v)},
			Mixed:    true,
		}
	}
	if scalarLess(v, s.best) != s.max {
		s.best = v
	}
	return nil
}

func (s *extremumState) result() any {
	if !s.seen {
		return nil
	}
	return s.best
}

// scalarLess compares two same-typed scalars: false < true for Bool, IEEE
// order for Number, code-point order for String.
func scalarLess(a, b any) bool {
	switch av := a.(type) {
	case bool:
		return !av && b.(bool)
	case float64:
		return av < b.(float64)
	default:
		return strings.Compare(av.(string), b.(string)) < 0
	}
}
