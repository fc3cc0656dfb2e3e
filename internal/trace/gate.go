// Package trace implements the non-regression CI gate consumed by the
// platform's CI pipeline (spec.md §4.7): a pure comparison of two RunTrace
// aggregates that decides whether a candidate change is safe to merge,
// grounded on the teacher's internal/ci coverage-threshold checker.
package trace

import (
	"fmt"

	"github.com/sells-group/identity-resolver/internal/model"
)

// Thresholds bounds how far a candidate run's aggregate metrics may drift
// below a baseline before the gate fails it. Each is an absolute drop in the
// rate, baseline minus candidate (0.02 means "no more than a 2-point drop").
type Thresholds struct {
	MaxAutoMergePrecisionDrop float64
	MaxTier1RecallDrop        float64
	MaxPersistedRateDrop      float64
}

// DefaultThresholds matches the conservative defaults spec.md §4.7 implies
// for "non-regression of auto-merge precision, tier-1 detection recall, and
// persisted-identity rate".
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxAutoMergePrecisionDrop: 0.02,
		MaxTier1RecallDrop:        0.02,
		MaxPersistedRateDrop:      0.05,
	}
}

// Aggregate summarizes one batch of RunTraces into the three rates the gate
// compares. Callers build this from however many sessions their CI batch ran
// (e.g. a fixed replay-fixture corpus), not from a single run.
type Aggregate struct {
	Runs                int
	AutoMergeCount       int
	AutoMergeCorrect     int
	Tier1Found           int
	Tier1Expected        int
	PersistedIdentities  int
	TotalIdentitiesFound int
}

// AutoMergePrecision is the fraction of auto-merge-bucketed identities that
// were actually correct (tracked externally; see Aggregate doc).
func (a Aggregate) AutoMergePrecision() float64 {
	if a.AutoMergeCount == 0 {
		return 1
	}
	return float64(a.AutoMergeCorrect) / float64(a.AutoMergeCount)
}

// Tier1Recall is the fraction of expected Tier-1 bridges the run actually found.
func (a Aggregate) Tier1Recall() float64 {
	if a.Tier1Expected == 0 {
		return 1
	}
	return float64(a.Tier1Found) / float64(a.Tier1Expected)
}

// PersistedRate is the fraction of all discovered identities that passed the
// persistence gate.
func (a Aggregate) PersistedRate() float64 {
	if a.TotalIdentitiesFound == 0 {
		return 0
	}
	return float64(a.PersistedIdentities) / float64(a.TotalIdentitiesFound)
}

// FromTraces folds a batch of completed RunTraces into an Aggregate.
// autoMergeCorrect and tier1Expected are supplied by the caller's labeled
// fixture corpus — the gate has no way to know ground truth on its own.
func FromTraces(traces []model.RunTrace, autoMergeCorrect, tier1Expected int) Aggregate {
	agg := Aggregate{Runs: len(traces), AutoMergeCorrect: autoMergeCorrect, Tier1Expected: tier1Expected}
	for _, t := range traces {
		agg.PersistedIdentities += t.Funnel.Persisted
		agg.TotalIdentitiesFound += t.Funnel.FoundTotal
		for _, p := range t.Platforms {
			if p.BestConfidence >= 0.90 {
				agg.AutoMergeCount++
			}
		}
	}
	return agg
}

// Gate compares a candidate Aggregate against a baseline one and reports
// whether the candidate is safe to merge, plus a human-readable reason per
// metric that regressed (spec.md §4.7: "consumed by CI gates that assert
// non-regression of auto-merge precision, tier-1 detection recall, and
// persisted-identity rate").
func Gate(baseline, candidate Aggregate, th Thresholds) (pass bool, reasons []string) {
	pass = true

	if drop := baseline.AutoMergePrecision() - candidate.AutoMergePrecision(); drop > th.MaxAutoMergePrecisionDrop {
		pass = false
		reasons = append(reasons, fmt.Sprintf(
			"auto-merge precision dropped %.3f -> %.3f (max allowed drop %.3f)",
			baseline.AutoMergePrecision(), candidate.AutoMergePrecision(), th.MaxAutoMergePrecisionDrop))
	}
	if drop := baseline.Tier1Recall() - candidate.Tier1Recall(); drop > th.MaxTier1RecallDrop {
		pass = false
		reasons = append(reasons, fmt.Sprintf(
			"tier-1 detection recall dropped %.3f -> %.3f (max allowed drop %.3f)",
			baseline.Tier1Recall(), candidate.Tier1Recall(), th.MaxTier1RecallDrop))
	}
	if drop := baseline.PersistedRate() - candidate.PersistedRate(); drop > th.MaxPersistedRateDrop {
		pass = false
		reasons = append(reasons, fmt.Sprintf(
			"persisted-identity rate dropped %.3f -> %.3f (max allowed drop %.3f)",
			baseline.PersistedRate(), candidate.PersistedRate(), th.MaxPersistedRateDrop))
	}
	return pass, reasons
}
