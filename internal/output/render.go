// Package output renders projected rows as a plain table, JSON, or YAML.
// All three formats are deterministic: columns and keys appear in first-seen
// order.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/rodaine/table"
	"gopkg.in/yaml.v3"

	"github.com/hashmap-kz/kubiq/internal/engine"
	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates the --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Render writes the rows to w in the requested format.
func Render(w io.Writer, format Format, rows []*engine.Row) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, rows)
	case FormatYAML:
		return renderYAML(w, rows)
	default:
		return renderTable(w, rows)
	}
}

// renderTable prints one row per object with columns in first-seen order,
// padded to display width (not byte length).
func renderTable(w io.Writer, rows []*engine.Row) error {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, k := range r.Cells.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	if len(cols) == 0 {
		return nil
	}
	headers := make([]any, len(cols))
	for i, c := range cols {
		headers[i] = c
	}
	tbl := table.New(headers...).
		WithWriter(w).
		WithWidthFunc(runewidth.StringWidth)
	for _, r := range rows {
		cells := make([]any, len(cols))
		for i, c := range cols {
			v, ok := r.Cells.Get(c)
			if !ok {
				v = engine.Missing
			}
			cells[i] = formatCell(v)
		}
		tbl.AddRow(cells...)
	}
	tbl.Print()
	return nil
}

// formatCell renders a single table cell. Absent paths become "-", nested
// values a compact JSON form.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		if v == any(engine.Missing) {
			return "-"
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// renderJSON emits an array of row objects with insertion-ordered keys.
func renderJSON(w io.Writer, rows []*engine.Row) error {
	arr := make([]*engine.Fields, 0, len(rows))
	for _, r := range rows {
		arr = append(arr, r.Structured())
	}
	b, err := json.MarshalIndent(arr, "", "  ")
	if err != nil {
		return &kqerr.OutputError{Kind: kqerr.JsonSerialize, Err: err}
	}
	if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
		return &kqerr.OutputError{Kind: kqerr.JsonSerialize, Err: err}
	}
	return nil
}

// renderYAML emits a block-style sequence of row objects, two-space indent.
// yaml.v3 quotes scalars only where needed to disambiguate.
func renderYAML(w io.Writer, rows []*engine.Row) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, r := range rows {
		node, err := yamlNode(r.Structured())
		if err != nil {
			return &kqerr.OutputError{Kind: kqerr.YamlSerialize, Err: err}
		}
		seq.Content = append(seq.Content, node)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return &kqerr.OutputError{Kind: kqerr.YamlSerialize, Err: err}
	}
	return enc.Close()
}

// yamlNode converts a projected value into a yaml.Node tree, keeping Fields
// insertion order.
func yamlNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *engine.Fields:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range t.Keys() {
			kn := &yaml.Node{}
			if err := kn.Encode(k); err != nil {
				return nil, err
			}
			val, _ := t.Get(k)
			vn, err := yamlNode(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, kn, vn)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			en, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	default:
		if v == any(engine.Missing) || v == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}
