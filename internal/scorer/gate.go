package scorer

import "github.com/sells-group/identity-resolver/internal/model"

// ShouldPersist applies C4's persistence gate to a scored result. tier2Count
// is the number of Tier-2 identities already persisted for this run; the
// cap in cfg is global across platforms (spec.md §4.4).
func ShouldPersist(res Result, platform string, tier2Count int, cfg Config) (persist bool, reason string) {
	switch res.Bridge.Tier {
	case 1:
		persist, reason = true, "tier1_always_persists"
	case 2:
		if tier2Count < cfg.Tier2Cap {
			persist, reason = true, "tier2_within_cap"
		} else {
			persist, reason = false, "tier2_cap_exhausted"
		}
	default:
		persist, reason = tier3Gate(res, cfg)
	}

	if persist && platform == "github" && isGitHubNameOnlyFalsePositive(res) {
		return false, "github_name_only_false_positive"
	}
	return persist, reason
}

func tier3Gate(res Result, cfg Config) (bool, string) {
	b := res.Breakdown
	if b.Total < cfg.MinConfidence {
		return false, "tier3_below_min_confidence"
	}
	// "Secondary signal" here means a corroborating company or location
	// match, not a formal bridge signal — tier 3 by definition has none.
	secondarySignal := b.CompanyMatch > 0 || b.LocationMatch > 0
	switch {
	case b.BridgeWeight > 0:
		return true, "tier3_bridge_weight"
	case b.HandleMatch >= 0.20:
		return true, "tier3_handle_match"
	case rawNameMatch(b) >= 0.15 && secondarySignal:
		return true, "tier3_name_plus_secondary_signal"
	default:
		return false, "tier3_gate_not_satisfied"
	}
}

// rawNameMatch recovers the pre-weight nameMatch score (the breakdown only
// stores the already-weighted 0.30-scaled value).
func rawNameMatch(b model.ScoreBreakdown) float64 {
	if b.NameMatch <= 0 {
		return 0
	}
	return b.NameMatch / 0.30
}

func isGitHubNameOnlyFalsePositive(res Result) bool {
	b := res.Breakdown
	return b.BridgeWeight == 0 && b.HandleMatch < 0.20 && b.CompanyMatch <= 0 && b.LocationMatch <= 0
}
