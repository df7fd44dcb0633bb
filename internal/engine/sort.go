package engine

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
)

// Stable multi-key sort with SQL-style null placement: null/missing sorts
// first under asc and last under desc. Mixed types follow a fixed rank
// (Bool < Number < String < Other); desc reverses the whole order.

type valueClass int

const (
	classNull valueClass = iota
	classBool
	classNumber
	classString
	classOther
)

// Sort orders objs in place by the given keys. Rows equal on every key keep
// their input order.
func Sort(objs []*Object, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(objs, func(i, j int) bool {
		for _, key := range keys {
			c := compareAt(objs[i], objs[j], key.Path)
			if c == 0 {
				continue
			}
			if key.Dir == Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareAt(a, b *Object, path string) int {
	av, aok := a.Lookup(path)
	bv, bok := b.Lookup(path)
	ac, bc := classOf(av, aok), classOf(bv, bok)
	if ac != bc {
		if ac < bc {
			return -1
		}
		return 1
	}
	switch ac {
	case classNull:
		return 0
	case classBool:
		ab, bb := av.(bool), bv.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case classNumber:
		an, bn := av.(float64), bv.(float64)
		switch {
		case an == bn:
			return 0
		case an < bn:
			return -1
		default:
			return 1
		}
	case classString:
		return strings.Compare(av.(string), bv.(string))
	default:
		return strings.Compare(canonicalJSON(av), canonicalJSON(bv))
	}
}

// classOf buckets a looked-up value. NaN counts as missing so IEEE ordering
// stays total.
func classOf(v any, ok bool) valueClass {
	if !ok || v == nil {
		return classNull
	}
	switch n := v.(type) {
	case bool:
		return classBool
	case float64:
		if math.IsNaN(n) {
			return classNull
		}
		return classNumber
	case string:
		return classString
	default:
		return classOther
	}
}

// canonicalJSON serializes a subtree with sorted map keys so structurally
// equal values compare equal regardless of reconstruction order.
func canonicalJSON(v any) string {
	b, err := json.Marshal(toPlain(v))
	if err != nil {
		return ""
	}
	return string(b)
}
