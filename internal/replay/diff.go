package replay

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/oddslock/oddslock/internal/domain"
)

// DefaultExcludedFields are the fields a determinism check ignores:
// wall-clock and per-request identifiers that legitimately differ
// between otherwise identical builds.
var DefaultExcludedFields = []string{"computed_at", "trace_id", "cached_at"}

// DiffDecisions structurally compares two decisions over their canonical
// JSON form, returning one "path: cached != current" entry per mismatch.
// Excluded field names are ignored recursively at any depth.
func DiffDecisions(cached, current domain.Decision, exclude []string) []string {
	if exclude == nil {
		exclude = DefaultExcludedFields
	}
	excluded := make(map[string]bool, len(exclude))
	for _, f := range exclude {
		excluded[f] = true
	}

	a, err := toTree(cached)
	if err != nil {
		return []string{fmt.Sprintf("cached decision not comparable: %v", err)}
	}
	b, err := toTree(current)
	if err != nil {
		return []string{fmt.Sprintf("current decision not comparable: %v", err)}
	}

	var diffs []string
	diffValue("", a, b, excluded, &diffs)
	return diffs
}

func toTree(d domain.Decision) (any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func diffValue(path string, a, b any, excluded map[string]bool, diffs *[]string) {
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		keys := map[string]bool{}
		for k := range am {
			keys[k] = true
		}
		for k := range bm {
			keys[k] = true
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)

		for _, k := range sorted {
			if excluded[k] {
				continue
			}
			av, aOK := am[k]
			bv, bOK := bm[k]
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			switch {
			case !aOK:
				*diffs = append(*diffs, fmt.Sprintf("%s: missing in cached record", childPath))
			case !bOK:
				*diffs = append(*diffs, fmt.Sprintf("%s: missing in current decision", childPath))
			default:
				diffValue(childPath, av, bv, excluded, diffs)
			}
		}
		return
	}

	as, aIsSlice := a.([]any)
	bs, bIsSlice := b.([]any)
	if aIsSlice && bIsSlice {
		if len(as) != len(bs) {
			*diffs = append(*diffs, fmt.Sprintf("%s: length %d != %d", path, len(as), len(bs)))
			return
		}
		for i := range as {
			diffValue(fmt.Sprintf("%s[%d]", path, i), as[i], bs[i], excluded, diffs)
		}
		return
	}

	if !reflect.DeepEqual(a, b) {
		*diffs = append(*diffs, fmt.Sprintf("%s: %v != %v", path, a, b))
	}
}
