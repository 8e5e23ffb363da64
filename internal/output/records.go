package output

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Records converts a slice (or single value) into generic JSON records so
// every result type shares field selection and sorting.
func Records(items any) ([]map[string]any, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	var recs []map[string]any
	if err := json.Unmarshal(b, &recs); err != nil {
		var one map[string]any
		if err2 := json.Unmarshal(b, &one); err2 != nil {
			return nil, fmt.Errorf("records must be objects: %w", err)
		}
		recs = []map[string]any{one}
	}
	if recs == nil {
		recs = []map[string]any{}
	}
	return recs, nil
}

// Lookup resolves a dotted path such as "recurrence.type".
func Lookup(rec map[string]any, path string) any {
	var cur any = rec
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// Project keeps only the named fields, flattened under their paths.
func Project(recs []map[string]any, fields []string) []map[string]any {
	out := make([]map[string]any, len(recs))
	for i, r := range recs {
		p := make(map[string]any, len(fields))
		for _, f := range fields {
			p[f] = Lookup(r, f)
		}
		out[i] = p
	}
	return out
}

// Keys returns a record's top-level keys with id and name first.
func Keys(rec map[string]any) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	rank := func(k string) int {
		switch k {
		case "id":
			return 0
		case "name":
			return 1
		}
		return 2
	}
	sort.Slice(keys, func(i, j int) bool {
		if ri, rj := rank(keys[i]), rank(keys[j]); ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// SortRecords orders records by "field[:asc|desc]". Missing values sort last.
func SortRecords(recs []map[string]any, spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	field, dir, _ := strings.Cut(spec, ":")
	desc := false
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return fmt.Errorf("invalid sort direction %q (use asc or desc)", dir)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := Lookup(recs[i], field), Lookup(recs[j], field)
		if a == nil || b == nil {
			return a != nil
		}
		c := compare(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return nil
}

func compare(a, b any) int {
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	ba, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	}
	return strings.Compare(strings.ToLower(Cell(a)), strings.ToLower(Cell(b)))
}

// Page applies offset and limit.
func Page(recs []map[string]any, offset, limit int) []map[string]any {
	if offset > 0 {
		if offset >= len(recs) {
			return recs[:0]
		}
		recs = recs[offset:]
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// Cell renders one value for a table cell.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "yes"
		}
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Cell(e)
		}
		return strings.Join(parts, ", ")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*m")

// StripANSI removes terminal color sequences.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}
