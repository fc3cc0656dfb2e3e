package discovery

import "sort"

// aggregateSort orders scored identities by (tier ascending, confidence
// descending, SERP position ascending) to break ties deterministically
// before the persistence gate runs (spec.md §4.5, phase 5).
func aggregateSort(identities []ScoredIdentity) {
	sort.SliceStable(identities, func(i, j int) bool {
		a, b := identities[i], identities[j]
		if a.Candidate.BridgeTier != b.Candidate.BridgeTier {
			return a.Candidate.BridgeTier < b.Candidate.BridgeTier
		}
		if a.Candidate.Confidence != b.Candidate.Confidence {
			return a.Candidate.Confidence > b.Candidate.Confidence
		}
		return a.SERPPosition < b.SERPPosition
	})
}
