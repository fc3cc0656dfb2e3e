package model

// ConfidenceBucket discretises a final confidence score into a reviewable
// band (spec.md §4.4).
type ConfidenceBucket string

const (
	BucketAutoMerge ConfidenceBucket = "auto_merge"
	BucketSuggest   ConfidenceBucket = "suggest"
	BucketLow       ConfidenceBucket = "low"
	BucketRejected  ConfidenceBucket = "rejected"
)

// IdentityStatus is the review state of a persisted IdentityCandidate.
type IdentityStatus string

const (
	IdentityUnconfirmed IdentityStatus = "unconfirmed"
	IdentityConfirmed   IdentityStatus = "confirmed"
	IdentityRejected    IdentityStatus = "rejected"
)

// ScoringVersion tags the scoring-rule revision a ScoreBreakdown was produced
// under, so the run trace and stored rows stay interpretable as the scorer
// evolves.
const ScoringVersion = "v1"

// ScoreBreakdown is C4's weighted confidence: six non-negative components
// whose clamped sum is raised to the bridge tier's floor to give Total, plus
// a 0.08 boost (capped at 1) for an uncontradicted Tier 1 (spec.md §4.4).
type ScoreBreakdown struct {
	BridgeWeight         float64 `json:"bridge_weight"`
	NameMatch            float64 `json:"name_match"`
	HandleMatch          float64 `json:"handle_match"`
	CompanyMatch         float64 `json:"company_match"`
	LocationMatch        float64 `json:"location_match"`
	ProfileCompleteness  float64 `json:"profile_completeness"`
	Total                float64 `json:"total"`
	ScoringVersion       string  `json:"scoring_version"`
}

// Evidence is an opaque URL-and-type pointer — never raw PII such as an
// email address (spec.md §3, §1 Non-goals).
type Evidence struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// IdentityCandidate is a scored platform profile believed to belong to the
// same person as the originating LinkedIn Candidate. Uniqueness invariant:
// (tenant, candidate, platform, platform_id) — upsert merges updates
// (spec.md §3).
type IdentityCandidate struct {
	TenantID          string           `json:"tenant_id"`
	CandidateID       string           `json:"candidate_id"`
	Platform          string           `json:"platform"`
	PlatformID        string           `json:"platform_id"`
	ProfileURL        string           `json:"profile_url"`
	Confidence        float64          `json:"confidence"`
	ConfidenceBucket  ConfidenceBucket `json:"confidence_bucket"`
	ScoreBreakdown    ScoreBreakdown   `json:"score_breakdown"`
	Evidence          []Evidence       `json:"evidence,omitempty"`
	HasContradiction  bool             `json:"has_contradiction"`
	ContradictionNote string           `json:"contradiction_note,omitempty"`
	BridgeTier        int              `json:"bridge_tier"`
	BridgeSignals     []Signal         `json:"bridge_signals"`
	PersistReason     string           `json:"persist_reason"`
	DiscoveredBy      string           `json:"discovered_by"`
	Status            IdentityStatus   `json:"status"`
}

// Key returns the unique-constraint tuple for upsert matching.
func (ic IdentityCandidate) Key() (tenant, candidate, platform, platformID string) {
	return ic.TenantID, ic.CandidateID, ic.Platform, ic.PlatformID
}

// Signal is a bridge-evidence token (spec.md §4.4). The zero value is not a
// valid Signal — use SignalNone for "no signal detected".
type Signal string

const (
	SignalLinkedInURLInBio      Signal = "linkedin_url_in_bio"
	SignalLinkedInURLInBlog     Signal = "linkedin_url_in_blog"
	SignalLinkedInURLInPage     Signal = "linkedin_url_in_page"
	SignalLinkedInURLInTeamPage Signal = "linkedin_url_in_team_page"
	SignalReverseLinkHintMatch  Signal = "reverse_link_hint_match"
	SignalCommitEmailDomain     Signal = "commit_email_domain"
	SignalCrossPlatformHandle   Signal = "cross_platform_handle"
	SignalMutualReference       Signal = "mutual_reference"
	SignalVerifiedDomain        Signal = "verified_domain"
	SignalEmailInPublicPage     Signal = "email_in_public_page"
	SignalConferenceSpeaker     Signal = "conference_speaker"
	SignalNone                  Signal = "none"
)

// BridgeDetection is the tier classification result for one candidate
// identity (spec.md §3, §4.4).
type BridgeDetection struct {
	Tier              int        `json:"tier"`
	Signals           []Signal   `json:"signals"`
	BridgeURL         *string    `json:"bridge_url,omitempty"`
	ConfidenceFloor   float64    `json:"confidence_floor"`
	AutoMergeEligible bool       `json:"auto_merge_eligible"`
	HadNoSignals      bool       `json:"had_no_signals"`
}

// HasSignal reports whether s is present in the detection's signal set.
func (b BridgeDetection) HasSignal(s Signal) bool {
	for _, x := range b.Signals {
		if x == s {
			return true
		}
	}
	return false
}

// HasAny reports whether any of ss is present in the detection's signal set.
func (b BridgeDetection) HasAny(ss ...Signal) bool {
	for _, s := range ss {
		if b.HasSignal(s) {
			return true
		}
	}
	return false
}
