package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/identity-resolver/internal/model"
)

func TestGate_PassesOnNoRegression(t *testing.T) {
	baseline := Aggregate{AutoMergeCount: 10, AutoMergeCorrect: 9, Tier1Found: 8, Tier1Expected: 10, PersistedIdentities: 40, TotalIdentitiesFound: 50}
	candidate := Aggregate{AutoMergeCount: 10, AutoMergeCorrect: 9, Tier1Found: 9, Tier1Expected: 10, PersistedIdentities: 41, TotalIdentitiesFound: 50}

	pass, reasons := Gate(baseline, candidate, DefaultThresholds())
	assert.True(t, pass)
	assert.Empty(t, reasons)
}

func TestGate_FailsOnTier1RecallDrop(t *testing.T) {
	baseline := Aggregate{Tier1Found: 10, Tier1Expected: 10}
	candidate := Aggregate{Tier1Found: 6, Tier1Expected: 10}

	pass, reasons := Gate(baseline, candidate, DefaultThresholds())
	assert.False(t, pass)
	assert.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "tier-1 detection recall")
}

func TestFromTraces_FoldsFunnelAndConfidence(t *testing.T) {
	traces := []model.RunTrace{
		{
			Funnel:    model.Funnel{FoundTotal: 5, Persisted: 2},
			Platforms: []model.PlatformDiagnostics{{BestConfidence: 0.95}, {BestConfidence: 0.4}},
		},
		{
			Funnel:    model.Funnel{FoundTotal: 3, Persisted: 1},
			Platforms: []model.PlatformDiagnostics{{BestConfidence: 0.92}},
		},
	}

	agg := FromTraces(traces, 2, 2)
	assert.Equal(t, 2, agg.Runs)
	assert.Equal(t, 8, agg.TotalIdentitiesFound)
	assert.Equal(t, 3, agg.PersistedIdentities)
	assert.Equal(t, 2, agg.AutoMergeCount)
	assert.InDelta(t, 3.0/8.0, agg.PersistedRate(), 1e-9)
}
