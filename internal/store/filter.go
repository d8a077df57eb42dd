package store

import (
	"reflect"
	"sort"
)

// Query helpers shared by the adapters. The redis adapter filters client-side
// after loading a collection, so both backends must agree on these semantics.

// matches reports whether doc satisfies every equality pair in filter.
func matches(doc Doc, filter Doc) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok {
			// A nil filter value also matches an absent field, mirroring
			// how soft-deleted rows are queried (deleted_at: null).
			if want == nil {
				continue
			}
			return false
		}
		if !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares two document values. Numeric values are compared as
// float64 since JSON round-trips erase integer-ness.
func looseEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// sortDocs orders docs by the (single) sort field, descending when the
// direction is negative. A stable sort keeps insertion order for ties.
func sortDocs(docs []Doc, sortSpec map[string]int) []Doc {
	if len(sortSpec) == 0 {
		return docs
	}
	out := make([]Doc, len(docs))
	copy(out, docs)
	for field, direction := range sortSpec {
		desc := direction < 0
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return lessValue(out[j][field], out[i][field])
			}
			return lessValue(out[i][field], out[j][field])
		})
	}
	return out
}

func lessValue(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af < bf
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return false
}

// projectDocs keeps only the listed fields (plus the id).
func projectDocs(docs []Doc, projection []string) []Doc {
	if len(projection) == 0 {
		return docs
	}
	out := make([]Doc, 0, len(docs))
	for _, doc := range docs {
		projected := Doc{}
		if id, ok := doc[IDField]; ok {
			projected[IDField] = id
		}
		for _, field := range projection {
			if value, ok := doc[field]; ok {
				projected[field] = value
			}
		}
		out = append(out, projected)
	}
	return out
}

// cloneDoc copies a document one level deep so callers cannot mutate stored
// state through a returned reference.
func cloneDoc(doc Doc) Doc {
	out := make(Doc, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
