package engine

// Engine-owned query plan. The DSL parser has its own AST; the cmd layer
// converts it here so parser types never leak into the pipeline.

// PredOp is a predicate operator.
type PredOp int

const (
	Eq PredOp = iota
	Ne
)

func (op PredOp) String() string {
	if op == Ne {
		return "!="
	}
	return "=="
}

// Predicate compares the value at Path against a typed literal. Value is one
// of bool, float64 or string.
type Predicate struct {
	Path  string
	Op    PredOp
	Value any
}

// SortDir is a sort direction.
type SortDir int

const (
	Asc SortDir = iota
	Desc
)

// SortKey orders rows by the value at Path.
type SortKey struct {
	Path string
	Dir  SortDir
}

// AggFunc names an aggregation function.
type AggFunc string

const (
	Count AggFunc = "count"
	Sum   AggFunc = "sum"
	Min   AggFunc = "min"
	Max   AggFunc = "max"
	Avg   AggFunc = "avg"
)

// Aggregation is one aggregation expression. Path is empty for count(*);
// Source is the textual form used as the result key.
type Aggregation struct {
	Func   AggFunc
	Path   string
	Source string
}

// Selection carries either projection paths or aggregations, never both.
type Selection struct {
	Paths        []string
	Aggregations []Aggregation
}

// IsAggregation reports whether the selection computes global aggregates.
func (s *Selection) IsAggregation() bool {
	return s != nil && len(s.Aggregations) > 0
}

// Plan is the full query plan consumed by the pipeline stages.
type Plan struct {
	Resource   string
	Predicates []Predicate
	OrderBy    []SortKey
	Select     *Selection
}
