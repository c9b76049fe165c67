package reconciler

import "sort"

// desiredHostSet implements the desired-set algorithm: eligible is
// every Host id matching the Deployment's Target, current is the set
// of Host ids it is presently assigned to, and hostCount is either a
// non-negative replica count or types.HostCountAll.
//
// Stable assignments are kept first (hosts already assigned that are
// still eligible), then topped up from the remaining eligible hosts in
// ascending id order, so a shrinking or growing replica count disturbs
// as few existing Assignments as possible.
func desiredHostSet(eligible, current []string, hostCount int, all int) []string {
	eligibleSet := make(map[string]bool, len(eligible))
	for _, id := range eligible {
		eligibleSet[id] = true
	}

	if hostCount == all {
		out := append([]string(nil), eligible...)
		sort.Strings(out)
		return out
	}

	var kept []string
	keptSet := make(map[string]bool)
	for _, id := range current {
		if eligibleSet[id] {
			kept = append(kept, id)
			keptSet[id] = true
		}
	}
	sort.Strings(kept)

	if len(kept) >= hostCount {
		return kept[:hostCount]
	}

	var remaining []string
	for _, id := range eligible {
		if !keptSet[id] {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)

	need := hostCount - len(kept)
	if need > len(remaining) {
		need = len(remaining)
	}
	desired := append(kept, remaining[:need]...)
	sort.Strings(desired)
	return desired
}
