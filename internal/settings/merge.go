package settings

import (
	"fmt"
	"reflect"
)

// Policy selects how a template document is combined with an existing one.
type Policy int

const (
	// Replace discards the existing document.
	Replace Policy = iota
	// TemplatePriority merges recursively; the template wins scalar conflicts.
	TemplatePriority
	// ExistingPriority merges recursively; the existing document wins scalar conflicts.
	ExistingPriority
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case Replace:
		return "replace"
	case TemplatePriority:
		return "template-priority"
	case ExistingPriority:
		return "existing-priority"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a policy name back to its value.
func ParsePolicy(s string) (Policy, error) {
	for _, p := range []Policy{Replace, TemplatePriority, ExistingPriority} {
		if p.String() == s {
			return p, nil
		}
	}
	return Replace, fmt.Errorf("unknown merge policy %q (want replace, template-priority or existing-priority)", s)
}

// Merge combines existing and template under policy and returns a new
// document; neither input is modified.
//
// Objects merge key by key. Lists concatenate, existing entries first, and an
// entry already present is not appended again, so re-running a merge does not
// grow permission lists. Any other conflict, including a type mismatch, goes
// to the side the policy favors.
func Merge(existing, template Document, policy Policy) Document {
	template = Normalize(template)
	if policy == Replace || existing == nil {
		return template
	}
	existing = Normalize(existing)
	merged := mergeMaps(map[string]any(existing), map[string]any(template), policy == TemplatePriority)
	return Document(merged)
}

func mergeMaps(base, over map[string]any, overWins bool) map[string]any {
	out := cloneValue(base).(map[string]any)
	for key, ov := range over {
		bv, ok := out[key]
		if !ok {
			out[key] = cloneValue(ov)
			continue
		}
		out[key] = mergeValue(bv, ov, overWins)
	}
	return out
}

func mergeValue(base, over any, overWins bool) any {
	bm, bIsMap := asMap(base)
	om, oIsMap := asMap(over)
	if bIsMap && oIsMap {
		return mergeMaps(bm, om, overWins)
	}

	bl, bIsList := base.([]any)
	ol, oIsList := over.([]any)
	if bIsList && oIsList {
		return concatUnique(bl, ol)
	}

	if overWins {
		return cloneValue(over)
	}
	return base
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return map[string]any(m), true
	}
	return nil, false
}

// concatUnique appends the entries of b that a does not already hold.
func concatUnique(a, b []any) []any {
	out := make([]any, 0, len(a)+len(b))
	for _, item := range a {
		out = append(out, cloneValue(item))
	}
	for _, item := range b {
		if !containsValue(out, item) {
			out = append(out, cloneValue(item))
		}
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// Equal reports whether two documents hold the same structure and values.
func Equal(a, b Document) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// Normalize round-trips doc through JSON so Go-built values ([]string, int,
// nested Document) compare equal to the same values read from disk.
func Normalize(doc Document) Document {
	if doc == nil {
		return nil
	}
	data, err := Marshal(doc)
	if err != nil {
		return doc.Clone()
	}
	out, err := Parse(data)
	if err != nil {
		return doc.Clone()
	}
	return out
}
