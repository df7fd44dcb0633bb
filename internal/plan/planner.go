// Package plan splits the query's predicate conjunction into a server-side
// selector form plus the client-side residual. Pushdown is an optimization
// only: every predicate stays in the residual set, so a planner mistake can
// cost a roundtrip but never rows.
package plan

import (
	"strings"

	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"

	"github.com/hashmap-kz/kubiq/internal/diag"
	"github.com/hashmap-kz/kubiq/internal/engine"
)

const labelPrefix = "metadata.labels."

// Requirement is one (key, op, value) selector triple. Op is "=" or "!=".
type Requirement struct {
	Key   string
	Op    string
	Value string
}

// ListOptions carries the pushable selector clauses of a query.
type ListOptions struct {
	Field []Requirement
	Label []Requirement
}

// FieldSelector renders the field clauses in API form, empty when none.
func (o *ListOptions) FieldSelector() string {
	sels := make([]fields.Selector, 0, len(o.Field))
	for _, r := range o.Field {
		if r.Op == "!=" {
			sels = append(sels, fields.OneTermNotEqualSelector(r.Key, r.Value))
		} else {
			sels = append(sels, fields.OneTermEqualSelector(r.Key, r.Value))
		}
	}
	if len(sels) == 0 {
		return ""
	}
	return fields.AndSelectors(sels...).String()
}

// LabelSelector renders the label clauses in API form, empty when none.
func (o *ListOptions) LabelSelector() string {
	sel := labels.NewSelector()
	for _, r := range o.Label {
		op := selection.Equals
		if r.Op == "!=" {
			op = selection.NotEquals
		}
		req, err := labels.NewRequirement(r.Key, op, []string{r.Value})
		if err != nil {
			continue
		}
		sel = sel.Add(*req)
	}
	if sel.Empty() {
		return ""
	}
	return sel.String()
}

// Empty reports whether no clause was pushed.
func (o *ListOptions) Empty() bool {
	return len(o.Field) == 0 && len(o.Label) == 0
}

// Build classifies each predicate of the plan. Only string-typed equality and
// inequality on metadata.name, metadata.namespace, or a single label key are
// pushable; everything else is reported to the diagnostic sink. The residual
// set is always the full predicate list and is not touched here.
func Build(p *engine.Plan, sink *diag.Sink) *ListOptions {
	opts := &ListOptions{}
	for i := range p.Predicates {
		pred := &p.Predicates[i]
		if !pushOne(pred, opts) {
			sink.NonPushable(pred.Path)
		}
	}
	return opts
}

func pushOne(pred *engine.Predicate, opts *ListOptions) bool {
	val, ok := pred.Value.(string)
	if !ok {
		return false
	}
	op := "="
	if pred.Op == engine.Ne {
		op = "!="
	}
	switch pred.Path {
	case "metadata.name", "metadata.namespace":
		opts.Field = append(opts.Field, Requirement{Key: pred.Path, Op: op, Value: val})
		return true
	}
	if key, ok := labelKey(pred.Path); ok {
		// Reject values the label selector grammar cannot carry; the
		// residual filter still applies the predicate.
		sop := selection.Equals
		if pred.Op == engine.Ne {
			sop = selection.NotEquals
		}
		if _, err := labels.NewRequirement(key, sop, []string{val}); err != nil {
			return false
		}
		opts.Label = append(opts.Label, Requirement{Key: key, Op: op, Value: val})
		return true
	}
	return false
}

// labelKey extracts K from "metadata.labels.K" where K is a single segment.
func labelKey(path string) (string, bool) {
	rest, found := strings.CutPrefix(path, labelPrefix)
	if !found || rest == "" {
		return "", false
	}
	segs := engine.SplitPath(rest)
	if len(segs) != 1 {
		return "", false
	}
	return engine.DecodeSegment(segs[0]), true
}
