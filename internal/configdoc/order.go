package configdoc

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// compareScalars orders list values. Values that parse as versions sort
// first and by version precedence, so "2.10" comes after "2.9"; everything
// else follows in byte order.
func compareScalars(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// sortDedupScalars sorts scalar nodes by value and keeps the first node of
// every run of equal values.
func sortDedupScalars(nodes []*yaml.Node) []*yaml.Node {
	sorted := make([]*yaml.Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareScalars(sorted[i].Value, sorted[j].Value) < 0
	})

	out := sorted[:0]
	for i, n := range sorted {
		if i > 0 && n.Value == out[len(out)-1].Value {
			continue
		}
		out = append(out, n)
	}
	return out
}
