package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentCodec(t *testing.T) {
	tests := []struct {
		in, enc string
	}{
		{"plain", "plain"},
		{"has.dot", "has%2Edot"},
		{"has%percent", "has%25percent"},
		{"a.b%c.d", "a%2Eb%25c%2Ed"},
		{"%2E", "%252E"},
		{"kubectl.kubernetes.io/last-applied-configuration",
			"kubectl%2Ekubernetes%2Eio/last-applied-configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.enc, EncodeSegment(tt.in))
			assert.Equal(t, tt.in, DecodeSegment(tt.enc))
		})
	}
}

func TestFlatten_Paths(t *testing.T) {
	o := Flatten(map[string]any{
		"metadata": map[string]any{
			"name": "worker-a",
			"annotations": map[string]any{
				"kubectl.kubernetes.io/last-applied-configuration": "{}",
			},
		},
		"spec": map[string]any{
			"containers": []any{
				map[string]any{"image": "nginx"},
				map[string]any{"image": "envoy"},
			},
			"replicas": int64(3),
		},
	})

	v, ok := o.Leaf("metadata.name")
	require.True(t, ok)
	assert.Equal(t, "worker-a", v)

	v, ok = o.Leaf("spec.containers.1.image")
	require.True(t, ok)
	assert.Equal(t, "envoy", v)

	// int64 from the unstructured converter widens to float64
	v, ok = o.Leaf("spec.replicas")
	require.True(t, ok)
	assert.Equal(t, float64(3), v)

	// dotted map key is segment-encoded
	v, ok = o.Leaf("metadata.annotations.kubectl%2Ekubernetes%2Eio/last-applied-configuration")
	require.True(t, ok)
	assert.Equal(t, "{}", v)
}

func TestFlattenUnflatten_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
	}{
		{
			name: "scalars and nesting",
			in: map[string]any{
				"a": map[string]any{"b": "x", "c": float64(1.5), "d": true, "e": nil},
			},
		},
		{
			name: "dotted and percent keys",
			in: map[string]any{
				"labels": map[string]any{
					"app.kubernetes.io/name": "web",
					"weird%key":              "v",
					"%2E":                    "already-encoded-looking",
				},
			},
		},
		{
			name: "arrays including double digit indices",
			in: map[string]any{
				"items": []any{
					"i0", "i1", "i2", "i3", "i4", "i5",
					"i6", "i7", "i8", "i9", "i10", "i11",
				},
			},
		},
		{
			name: "empty containers",
			in: map[string]any{
				"emptyMap":   map[string]any{},
				"emptyArray": []any{},
			},
		},
		{
			name: "mixed array of objects",
			in: map[string]any{
				"spec": map[string]any{
					"containers": []any{
						map[string]any{"name": "a", "ports": []any{float64(80), float64(443)}},
						map[string]any{"name": "b"},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Flatten(tt.in)
			flat := make(map[string]any, len(o.Paths()))
			for _, p := range o.Paths() {
				v, ok := o.Leaf(p)
				require.True(t, ok)
				flat[p] = v
			}
			assert.Equal(t, tt.in, Unflatten(flat))
			assert.Equal(t, tt.in, o.Nested())
		})
	}
}

func TestObject_Lookup(t *testing.T) {
	o := Flatten(map[string]any{
		"metadata": map[string]any{
			"name":   "w",
			"labels": map[string]any{"app": "web"},
		},
		"status": nil,
	})

	t.Run("leaf", func(t *testing.T) {
		v, ok := o.Lookup("metadata.name")
		require.True(t, ok)
		assert.Equal(t, "w", v)
	})

	t.Run("present null", func(t *testing.T) {
		v, ok := o.Lookup("status")
		require.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("parent prefix reconstructs subtree", func(t *testing.T) {
		v, ok := o.Lookup("metadata.labels")
		require.True(t, ok)
		f, ok := v.(*Fields)
		require.True(t, ok)
		app, ok := f.Get("app")
		require.True(t, ok)
		assert.Equal(t, "web", app)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := o.Lookup("spec.replicas")
		assert.False(t, ok)
	})

	t.Run("missing deeper than a leaf", func(t *testing.T) {
		_, ok := o.Lookup("metadata.name.sub")
		assert.False(t, ok)
	})
}

func TestObject_Describe(t *testing.T) {
	o := Flatten(map[string]any{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata":   map[string]any{"name": "w"},
	})
	d := o.Describe()
	assert.Equal(t, []string{"apiVersion", "kind", "metadata"}, d.Keys())
	md, ok := d.Get("metadata")
	require.True(t, ok)
	name, ok := md.(*Fields).Get("name")
	require.True(t, ok)
	assert.Equal(t, "w", name)
}
