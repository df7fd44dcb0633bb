package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(objs []*Object) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		v, _ := o.Leaf("metadata.name")
		out = append(out, v.(string))
	}
	return out
}

func widget(name string, priority any) *Object {
	spec := map[string]any{}
	if priority != nil {
		spec["priority"] = priority
	}
	return Flatten(map[string]any{
		"metadata": map[string]any{"name": name},
		"spec":     spec,
	})
}

func TestSort_MultiKeyWithMissing(t *testing.T) {
	// priority {2, null, 5} with names {b, a, c}; desc on priority puts the
	// missing value last, then name asc breaks nothing here.
	objs := []*Object{
		widget("b", float64(2)),
		widget("a", nil),
		widget("c", float64(5)),
	}
	Sort(objs, []SortKey{
		{Path: "spec.priority", Dir: Desc},
		{Path: "metadata.name", Dir: Asc},
	})
	assert.Equal(t, []string{"c", "b", "a"}, names(objs))
}

func TestSort_NullsFirstAsc(t *testing.T) {
	objs := []*Object{
		widget("b", float64(2)),
		widget("a", nil),
		widget("c", float64(1)),
	}
	Sort(objs, []SortKey{{Path: "spec.priority", Dir: Asc}})
	assert.Equal(t, []string{"a", "c", "b"}, names(objs))
}

func TestSort_Stability(t *testing.T) {
	// equal sort keys retain input order
	objs := []*Object{
		widget("z", float64(1)),
		widget("m", float64(1)),
		widget("a", float64(1)),
	}
	Sort(objs, []SortKey{{Path: "spec.priority", Dir: Asc}})
	assert.Equal(t, []string{"z", "m", "a"}, names(objs))
}

func TestSort_TypeRank(t *testing.T) {
	// Bool < Number < String under asc; desc reverses the whole order.
	objs := []*Object{
		widget("s", "high"),
		widget("n", float64(7)),
		widget("b", true),
	}
	Sort(objs, []SortKey{{Path: "spec.priority", Dir: Asc}})
	assert.Equal(t, []string{"b", "n", "s"}, names(objs))

	Sort(objs, []SortKey{{Path: "spec.priority", Dir: Desc}})
	assert.Equal(t, []string{"s", "n", "b"}, names(objs))
}

func TestSort_SecondKeyBreaksTies(t *testing.T) {
	objs := []*Object{
		widget("c", float64(1)),
		widget("a", float64(1)),
		widget("b", float64(2)),
	}
	Sort(objs, []SortKey{
		{Path: "spec.priority", Dir: Asc},
		{Path: "metadata.name", Dir: Asc},
	})
	assert.Equal(t, []string{"a", "c", "b"}, names(objs))
}

func TestSort_StringCodePointOrder(t *testing.T) {
	objs := []*Object{
		widget("B", nil),
		widget("a", nil),
		widget("A", nil),
	}
	Sort(objs, []SortKey{{Path: "metadata.name", Dir: Asc}})
	// uppercase sorts before lowercase in code-point order
	assert.Equal(t, []string{"A", "B", "a"}, names(objs))
}

func TestSort_NoKeys(t *testing.T) {
	objs := []*Object{widget("b", nil), widget("a", nil)}
	Sort(objs, nil)
	require.Equal(t, []string{"b", "a"}, names(objs))
}
