package engine

// Projection shapes filtered rows for the renderer.
//
// Summary emits one "name" leaf per row; Describe emits the fully
// reconstructed object; an explicit select emits one cell per requested path
// (scalar leaf, reconstructed subtree, or Missing). Aggregation rows are
// produced by Aggregate and pass through as-is.

// Row is one rendered result. Cells are keyed by column (the path text for
// explicit selects). Nested is set for path selects so the structured
// renderers rebuild the dotted paths into subtrees.
type Row struct {
	Cells  *Fields
	Nested bool
}

const summaryPath = "metadata.name"

// ProjectSummary emits the default single-column view.
func ProjectSummary(objs []*Object) []*Row {
	rows := make([]*Row, 0, len(objs))
	for _, o := range objs {
		cells := NewFields()
		if v, ok := o.Leaf(summaryPath); ok {
			cells.Set("name", v)
		} else {
			cells.Set("name", Missing)
		}
		rows = append(rows, &Row{Cells: cells})
	}
	return rows
}

// ProjectDescribe emits the full reconstructed object per row.
func ProjectDescribe(objs []*Object) []*Row {
	rows := make([]*Row, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, &Row{Cells: o.Describe()})
	}
	return rows
}

// ProjectPaths emits one cell per selected path. A leaf path yields its
// scalar, a parent path its reconstructed subtree, anything else Missing.
func ProjectPaths(objs []*Object, paths []string) []*Row {
	rows := make([]*Row, 0, len(objs))
	for _, o := range objs {
		cells := NewFields()
		for _, p := range paths {
			if v, ok := o.Lookup(p); ok {
				cells.Set(p, v)
			} else {
				cells.Set(p, Missing)
			}
		}
		rows = append(rows, &Row{Cells: cells, Nested: true})
	}
	return rows
}

// AggregationRow wraps the synthetic aggregation result for rendering.
func AggregationRow(cells *Fields) []*Row {
	return []*Row{{Cells: cells}}
}

// Structured returns the row shape for JSON/YAML output: nested-path cells
// are rebuilt into subtrees (so `select metadata` yields a full nested
// metadata object), everything else passes through.
func (r *Row) Structured() *Fields {
	if !r.Nested {
		return r.Cells
	}
	root := newTreeNode()
	for _, p := range r.Cells.Keys() {
		v, _ := r.Cells.Get(p)
		root.insert(SplitPath(p), v)
	}
	out := root.ordered()
	if f, ok := out.(*Fields); ok {
		return f
	}
	return r.Cells
}
