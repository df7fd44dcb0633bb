package engine

import (
	"sort"
	"strconv"
	"strings"
)

// The dotted-path codec: '.' joins segments, array indices are decimal
// segments, and map keys have '%' and '.' percent-encoded at the segment
// boundary so dotted annotation keys survive a flatten/unflatten round trip.

// EncodeSegment escapes '%' and '.' inside a single path segment.
func EncodeSegment(s string) string {
	if !strings.ContainsAny(s, ".%") {
		return s
	}
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, ".", "%2E")
}

// DecodeSegment is the exact inverse of EncodeSegment.
func DecodeSegment(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	s = strings.ReplaceAll(s, "%2E", ".")
	return strings.ReplaceAll(s, "%25", "%")
}

// SplitPath splits an encoded path into its raw segments. Encoded segments
// never contain '.', so a plain split is exact.
func SplitPath(p string) []string {
	return strings.Split(p, ".")
}

// JoinPath joins already-encoded segments.
func JoinPath(segs []string) string {
	return strings.Join(segs, ".")
}

// Object is one Kubernetes resource instance flattened into an ordered map
// from dotted path to JSON leaf. Leaves are nil, bool, float64, string, or an
// empty map/array. Objects are immutable after Flatten.
type Object struct {
	keys []string
	m    map[string]any
}

// Flatten normalizes a decoded JSON object. Integer values arriving as int64
// (the unstructured converter's choice) are widened to float64 so the whole
// pipeline sees one Number type.
func Flatten(root map[string]any) *Object {
	o := &Object{m: make(map[string]any)}
	o.walk("", root, true)
	return o
}

func (o *Object) walk(prefix string, v any, isRoot bool) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 && !isRoot {
			o.put(prefix, map[string]any{})
			return
		}
		for _, k := range sortedKeys(t) {
			p := EncodeSegment(k)
			if prefix != "" {
				p = prefix + "." + p
			}
			o.walk(p, t[k], false)
		}
	case []any:
		if len(t) == 0 {
			o.put(prefix, []any{})
			return
		}
		for i, e := range t {
			p := strconv.Itoa(i)
			if prefix != "" {
				p = prefix + "." + p
			}
			o.walk(p, e, false)
		}
	default:
		o.put(prefix, normalizeScalar(t))
	}
}

func (o *Object) put(path string, v any) {
	if _, ok := o.m[path]; !ok {
		o.keys = append(o.keys, path)
	}
	o.m[path] = v
}

func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// sortedKeys returns map keys in a deterministic order. JSON decoding into
// Go maps loses document order, so flatten output is keyed by sorted map
// keys; array order is positional and preserved.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Paths returns the flat paths in walk order. Shared slice, do not mutate.
func (o *Object) Paths() []string { return o.keys }

// Leaf returns the exact leaf value at path.
func (o *Object) Leaf(path string) (any, bool) {
	v, ok := o.m[path]
	return v, ok
}

// Lookup resolves a dotted path: the leaf value if path is a leaf, the
// reconstructed subtree if path is a parent prefix, otherwise (nil, false).
// A present JSON null returns (nil, true).
func (o *Object) Lookup(path string) (any, bool) {
	if v, ok := o.m[path]; ok {
		return v, true
	}
	if sub, ok := o.subtree(path); ok {
		return sub, true
	}
	return nil, false
}

// subtree rebuilds the nested value under prefix from all flat keys below it,
// decoding map-key segments so dotted keys come back verbatim.
func (o *Object) subtree(prefix string) (any, bool) {
	p := prefix + "."
	n := newTreeNode()
	found := false
	for _, k := range o.keys {
		if !strings.HasPrefix(k, p) {
			continue
		}
		found = true
		n.insert(SplitPath(k[len(p):]), o.m[k])
	}
	if !found {
		return nil, false
	}
	return n.ordered(), true
}

// Describe rebuilds the whole nested object in first-seen order.
func (o *Object) Describe() *Fields {
	n := newTreeNode()
	for _, k := range o.keys {
		n.insert(SplitPath(k), o.m[k])
	}
	v := n.ordered()
	if f, ok := v.(*Fields); ok {
		return f
	}
	return NewFields()
}

// Nested rebuilds the plain (unordered-map) JSON tree; the inverse of
// Flatten up to the numeric-map-key ambiguity documented in DESIGN.md.
func (o *Object) Nested() map[string]any {
	n := newTreeNode()
	for _, k := range o.keys {
		n.insert(SplitPath(k), o.m[k])
	}
	v := n.plain()
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Unflatten rebuilds a JSON tree from a flat path->leaf map produced by
// Flatten. Containers whose keys are exactly the decimal run 0..n-1 decode
// as arrays.
func Unflatten(flat map[string]any) map[string]any {
	n := newTreeNode()
	for _, k := range sortedKeys(flat) {
		n.insert(SplitPath(k), flat[k])
	}
	v := n.plain()
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// treeNode is the intermediate trie used to rebuild nested values from flat
// entries. Children stay keyed by the raw (encoded) segment until the final
// conversion decides array-vs-map and decodes map keys.
type treeNode struct {
	leaf     bool
	value    any
	order    []string
	children map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{children: make(map[string]*treeNode)}
}

func (n *treeNode) insert(segs []string, v any) {
	if len(segs) == 0 {
		n.leaf = true
		n.value = v
		return
	}
	child, ok := n.children[segs[0]]
	if !ok {
		child = newTreeNode()
		n.children[segs[0]] = child
		n.order = append(n.order, segs[0])
	}
	child.insert(segs[1:], v)
}

// isArray reports whether the children form the index set 0..n-1. Insertion
// order is not trusted here: Unflatten feeds paths in lexical order, where
// "10" sorts before "2".
func (n *treeNode) isArray() bool {
	if len(n.order) == 0 {
		return false
	}
	for i := 0; i < len(n.order); i++ {
		if _, ok := n.children[strconv.Itoa(i)]; !ok {
			return false
		}
	}
	return true
}

// ordered converts the trie into *Fields / []any values for rendering.
func (n *treeNode) ordered() any {
	if n.leaf {
		return n.value
	}
	if n.isArray() {
		out := make([]any, len(n.order))
		for i := range out {
			out[i] = n.children[strconv.Itoa(i)].ordered()
		}
		return out
	}
	f := NewFields()
	for _, seg := range n.order {
		f.Set(DecodeSegment(seg), n.children[seg].ordered())
	}
	return f
}

// plain converts the trie into plain maps and slices.
func (n *treeNode) plain() any {
	if n.leaf {
		return n.value
	}
	if n.isArray() {
		out := make([]any, len(n.order))
		for i := range out {
			out[i] = n.children[strconv.Itoa(i)].plain()
		}
		return out
	}
	m := make(map[string]any, len(n.order))
	for _, seg := range n.order {
		m[DecodeSegment(seg)] = n.children[seg].plain()
	}
	return m
}
