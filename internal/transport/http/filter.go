package http

import (
	"net/url"

	"travelcli/pkg/contracts/domain"
)

// filterPositions resolves the dimension query parameters to a sorted list
// of record positions. The second return is false when no filter parameter
// was supplied, in which case every record matches.
func filterPositions(dataset *domain.Dataset, query url.Values) ([]int, bool) {
	var sets [][]int

	for _, dim := range []struct {
		param string
		index map[string][]int
	}{
		{"dept", dataset.Indexes.ByDept},
		{"type", dataset.Indexes.ByType},
		{"month", dataset.Indexes.ByMonth},
		{"employee", dataset.Indexes.ByEmployee},
		{"source", dataset.Indexes.BySource},
	} {
		value := query.Get(dim.param)
		if value == "" {
			continue
		}
		sets = append(sets, dim.index[value])
	}

	if len(sets) == 0 {
		return nil, false
	}

	result := sets[0]
	for _, s := range sets[1:] {
		result = intersect(result, s)
	}
	return result, true
}

// intersect merges two ascending position lists.
func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
