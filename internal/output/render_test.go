package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/kubiq/internal/engine"
)

func summaryRows(names ...string) []*engine.Row {
	rows := make([]*engine.Row, 0, len(names))
	for _, n := range names {
		cells := engine.NewFields()
		cells.Set("name", n)
		rows = append(rows, &engine.Row{Cells: cells})
	}
	return rows
}

// lines splits the rendered table and strips trailing padding per line.
func lines(s string) []string {
	raw := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		out = append(out, strings.TrimRight(l, " "))
	}
	return out
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"table", "json", "yaml"} {
		_, err := ParseFormat(ok)
		assert.NoError(t, err)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestRenderTable_Summary(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, FormatTable, summaryRows("worker-a", "worker-b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "worker-a", "worker-b"}, lines(buf.String()))
}

func TestRenderTable_MissingAndTypes(t *testing.T) {
	cells := engine.NewFields()
	cells.Set("spec.replicas", float64(3))
	cells.Set("spec.paused", false)
	cells.Set("spec.nodeName", engine.Missing)
	cells.Set("status.reason", nil)

	var buf bytes.Buffer
	err := Render(&buf, FormatTable, []*engine.Row{{Cells: cells, Nested: true}})
	require.NoError(t, err)

	got := lines(buf.String())
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "spec.replicas")
	fields := strings.Fields(got[1])
	assert.Equal(t, []string{"3", "false", "-", "null"}, fields)
}

func TestRenderTable_ColumnUnionFirstSeen(t *testing.T) {
	first := engine.NewFields()
	first.Set("a", "1")
	second := engine.NewFields()
	second.Set("a", "2")
	second.Set("b", "3")

	var buf bytes.Buffer
	err := Render(&buf, FormatTable, []*engine.Row{{Cells: first}, {Cells: second}})
	require.NoError(t, err)

	got := lines(buf.String())
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b"}, strings.Fields(got[0]))
	// the first row misses column b
	assert.Equal(t, []string{"1", "-"}, strings.Fields(got[1]))
	assert.Equal(t, []string{"2", "3"}, strings.Fields(got[2]))
}

func TestRenderTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, FormatTable, nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestRenderJSON_OrderedKeys(t *testing.T) {
	cells := engine.NewFields()
	cells.Set("sum(metadata.generation)", float64(12))
	cells.Set("avg(metadata.generation)", 2.4)

	var buf bytes.Buffer
	err := Render(&buf, FormatJSON, engine.AggregationRow(cells))
	require.NoError(t, err)

	out := buf.String()
	assert.JSONEq(t, `[{"sum(metadata.generation)":12,"avg(metadata.generation)":2.4}]`, out)
	// insertion order, not alphabetical
	assert.Less(t,
		strings.Index(out, "sum(metadata.generation)"),
		strings.Index(out, "avg(metadata.generation)"))
}

func TestRenderJSON_NestedSelect(t *testing.T) {
	o := engine.Flatten(map[string]any{
		"metadata": map[string]any{
			"annotations": map[string]any{
				"kubectl.kubernetes.io/last-applied-configuration": "{}",
			},
		},
	})
	rows := engine.ProjectPaths([]*engine.Object{o}, []string{"metadata.annotations"})

	var buf bytes.Buffer
	err := Render(&buf, FormatJSON, rows)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"metadata":{"annotations":{"kubectl.kubernetes.io/last-applied-configuration":"{}"}}}]`,
		buf.String())
}

func TestRenderYAML_Basic(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, FormatYAML, summaryRows("worker-a"))
	require.NoError(t, err)
	assert.Equal(t, "- name: worker-a\n", buf.String())
}

func TestRenderYAML_QuotesAmbiguousScalars(t *testing.T) {
	cells := engine.NewFields()
	cells.Set("numish", "123")
	cells.Set("boolish", "true")
	cells.Set("plain", "web")
	cells.Set("absent", engine.Missing)

	var buf bytes.Buffer
	err := Render(&buf, FormatYAML, []*engine.Row{{Cells: cells}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `numish: "123"`)
	assert.Contains(t, out, `boolish: "true"`)
	assert.Contains(t, out, "plain: web")
	assert.Contains(t, out, "absent: null")
}

func TestRenderYAML_NestedIndent(t *testing.T) {
	o := engine.Flatten(map[string]any{
		"metadata": map[string]any{"name": "w", "namespace": "demo-a"},
	})
	rows := engine.ProjectPaths([]*engine.Object{o}, []string{"metadata.name", "metadata.namespace"})

	var buf bytes.Buffer
	err := Render(&buf, FormatYAML, rows)
	require.NoError(t, err)
	assert.Equal(t, "- metadata:\n    name: w\n    namespace: demo-a\n", buf.String())
}
