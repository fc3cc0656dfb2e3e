// Package scorer implements C4, the scorer and bridge classifier: it turns
// a candidate's extracted hints and a discovered platform profile into a
// weighted ScoreBreakdown, a deterministic bridge-tier classification, and
// the persistence-gate decision that guards what actually gets written to
// the store (spec.md §4.4).
package scorer

import (
	"math"
	"strings"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/normalize"
)

// ProfileFacts is everything C5's platform adapters observed about one
// discovered profile, in the shape the scorer needs to compare it against
// the candidate's hints. Adapters populate only the fields their platform
// can actually answer; zero values mean "unknown", not "absent".
type ProfileFacts struct {
	Platform   string
	Handle     string
	Name       string
	Bio        string
	Company    string
	Location   string
	CountryCode string

	FollowersCount int
	PublicRepos    int

	LinkedInURLFoundIn      string // "bio", "blog", "page", "team_page", or ""
	CommitEmailDomainMatches int
	ReverseLinkHintMatch     bool
	CrossPlatformHandleMatch bool
	MutualReference          bool
	VerifiedDomain           bool
	EmailInPublicPage        bool
	ConferenceSpeaker        bool

	HandleExactMatch bool
	HandleVariantOf  float64 // 0 if not a recognised variant, else 0.4-0.9
}

// Config holds the operator-tunable thresholds for bucketing and the
// persistence gate (spec.md §4.4).
type Config struct {
	AutoMergeThreshold float64
	SuggestThreshold   float64
	LowThreshold       float64
	MinConfidence      float64
	Tier2Cap           int
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		AutoMergeThreshold: 0.90,
		SuggestThreshold:   0.70,
		LowThreshold:       0.35,
		MinConfidence:      0.25,
		Tier2Cap:           3,
	}
}

// Result is the full output of scoring one (hints, profile) pair.
type Result struct {
	Breakdown         model.ScoreBreakdown
	Bridge            model.BridgeDetection
	Bucket            model.ConfidenceBucket
	HasContradiction  bool
	ContradictionNote string
	ShadowTotal       float64
}

// usStateHints lists the US state abbreviations that inferCountryCode maps
// to "US", enough to detect the disagreement case spec.md calls out.
// It is deliberately small: the scorer only needs to catch gross mismatches,
// not geocode accurately.
var usStateHints = []string{
	"al", "ak", "az", "ar", "ca", "co", "ct", "de", "fl", "ga", "hi", "id", "il",
	"in", "ia", "ks", "ky", "la", "me", "md", "ma", "mi", "mn", "ms", "mo", "mt",
	"ne", "nv", "nh", "nj", "nm", "ny", "nc", "nd", "oh", "ok", "or", "pa", "ri",
	"sc", "sd", "tn", "tx", "ut", "vt", "va", "wa", "wv", "wi", "wy",
}

// inferCountryCode gives a best-effort ISO-ish country code for a freeform
// location string, used only for the contradiction detector.
func inferCountryCode(location string) string {
	folded := normalize.Fold(location)
	if folded == "" {
		return ""
	}
	tokens := normalize.Tokens(folded)
	if len(tokens) == 0 {
		return ""
	}
	last := tokens[len(tokens)-1]
	for _, st := range usStateHints {
		if last == st {
			return "US"
		}
	}
	switch last {
	case "uk", "england", "scotland", "wales":
		return "GB"
	case "canada":
		return "CA"
	case "germany", "deutschland":
		return "DE"
	case "usa", "us":
		return "US"
	}
	return ""
}

// Score computes C4's weighted confidence and bridge tier for one platform
// profile believed to match the candidate described by hints.
func Score(hints model.EnrichedHints, profile ProfileFacts) Result {
	bridge := bridgeWeightComponent(profile)
	name := nameMatchComponent(hints.Name, profile.Name)
	handle := handleMatchComponent(profile)
	company := companyMatchComponent(hints.Company, hints.Headline, profile.Company)
	location := locationMatchComponent(hints.Location, profile.Location)
	completeness := profileCompletenessComponent(profile)

	breakdown := model.ScoreBreakdown{
		BridgeWeight:        bridge,
		NameMatch:           name * 0.30,
		HandleMatch:         handle,
		CompanyMatch:        company * 0.15,
		LocationMatch:       location * 0.10,
		ProfileCompleteness: completeness,
		ScoringVersion:      model.ScoringVersion,
	}
	total := clamp01(breakdown.BridgeWeight + breakdown.NameMatch + breakdown.HandleMatch +
		breakdown.CompanyMatch + breakdown.LocationMatch + breakdown.ProfileCompleteness)

	signals := detectSignals(profile)
	tier, floor := classifyTier(signals)
	if total < floor {
		total = floor
	}

	hasContradiction, note := detectContradiction(hints, profile, name, signals)

	strictTier1 := tier == 1 && !hasContradiction
	if strictTier1 {
		total = clamp01(total + 0.08)
	}

	breakdown.Total = total
	bucket := classifyBucket(total, DefaultConfig())

	shadow := clamp01(bridge +
		name*0.30*hints.Name.Confidence +
		handle +
		company*0.15*hints.Company.Confidence +
		location*0.10*hints.Location.Confidence +
		completeness)

	return Result{
		Breakdown: breakdown,
		Bridge: model.BridgeDetection{
			Tier:              tier,
			Signals:           signals,
			ConfidenceFloor:   floor,
			AutoMergeEligible: tier == 1,
			HadNoSignals:      len(signals) == 1 && signals[0] == model.SignalNone,
		},
		Bucket:            bucket,
		HasContradiction:  hasContradiction,
		ContradictionNote: note,
		ShadowTotal:       shadow,
	}
}

func bridgeWeightComponent(p ProfileFacts) float64 {
	switch p.LinkedInURLFoundIn {
	case "bio", "blog":
		return 0.40
	}
	if p.CommitEmailDomainMatches > 0 {
		n := p.CommitEmailDomainMatches
		if n > 3 {
			n = 3
		}
		return 0.15 + 0.05*float64(n)
	}
	return 0
}

func nameMatchComponent(nameHint model.Hint, profileName string) float64 {
	if !nameHint.Has() || profileName == "" {
		return 0
	}
	a := normalize.Fold(nameHint.String())
	b := normalize.Fold(profileName)
	score := normalize.Jaccard(a, b)

	aTokens := normalize.Tokens(a)
	bTokens := normalize.Tokens(b)
	if len(aTokens) > 0 && len(bTokens) > 0 {
		if aTokens[0] == bTokens[0] {
			score += 0.10
		}
		if aTokens[len(aTokens)-1] == bTokens[len(bTokens)-1] {
			score += 0.10
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func handleMatchComponent(p ProfileFacts) float64 {
	if p.HandleExactMatch {
		return 1.0
	}
	if p.HandleVariantOf > 0 {
		v := p.HandleVariantOf
		if v < 0.4 {
			v = 0.4
		}
		if v > 0.9 {
			v = 0.9
		}
		return v
	}
	return 0
}

func companyMatchComponent(companyHint, headlineHint model.Hint, profileCompany string) float64 {
	if profileCompany == "" {
		return 0
	}
	folded := normalize.Fold(profileCompany)
	for _, candidate := range []model.Hint{companyHint, headlineHint} {
		if !candidate.Has() {
			continue
		}
		c := normalize.Fold(candidate.String())
		if c == "" {
			continue
		}
		if c == folded || containsSubstr(c, folded) || containsSubstr(folded, c) {
			return 1.0
		}
		if normalize.Jaccard(c, folded) > 0 {
			return 0.8
		}
	}
	return 0
}

func locationMatchComponent(locationHint model.Hint, profileLocation string) float64 {
	if !locationHint.Has() || profileLocation == "" {
		return 0
	}
	a := normalize.Fold(locationHint.String())
	b := normalize.Fold(profileLocation)
	if a == b || containsSubstr(a, b) || containsSubstr(b, a) {
		return 1.0
	}
	if abbreviationAgrees(a, b) {
		return 0.8
	}
	if normalize.Jaccard(a, b) > 0 {
		return 0.5
	}
	return 0
}

func abbreviationAgrees(a, b string) bool {
	at := normalize.Tokens(a)
	bt := normalize.Tokens(b)
	if len(at) == 0 || len(bt) == 0 {
		return false
	}
	aLast, bLast := at[len(at)-1], bt[len(bt)-1]
	return len(aLast) <= 3 && len(bLast) <= 3 && aLast == bLast
}

func profileCompletenessComponent(p ProfileFacts) float64 {
	raw := 0.0
	if p.FollowersCount > 10 {
		raw += 0.3
	}
	if p.PublicRepos > 0 {
		raw += 0.3
	}
	if len(p.Bio) > 10 {
		raw += 0.2
	}
	if p.Company != "" {
		raw += 0.2
	}
	return raw * 0.10
}

func detectSignals(p ProfileFacts) []model.Signal {
	var signals []model.Signal
	switch p.LinkedInURLFoundIn {
	case "bio":
		signals = append(signals, model.SignalLinkedInURLInBio)
	case "blog":
		signals = append(signals, model.SignalLinkedInURLInBlog)
	case "page":
		signals = append(signals, model.SignalLinkedInURLInPage)
	case "team_page":
		signals = append(signals, model.SignalLinkedInURLInTeamPage)
	}
	if p.ReverseLinkHintMatch {
		signals = append(signals, model.SignalReverseLinkHintMatch)
	}
	if p.CommitEmailDomainMatches > 0 {
		signals = append(signals, model.SignalCommitEmailDomain)
	}
	if p.CrossPlatformHandleMatch {
		signals = append(signals, model.SignalCrossPlatformHandle)
	}
	if p.MutualReference {
		signals = append(signals, model.SignalMutualReference)
	}
	if p.VerifiedDomain {
		signals = append(signals, model.SignalVerifiedDomain)
	}
	if p.EmailInPublicPage {
		signals = append(signals, model.SignalEmailInPublicPage)
	}
	if p.ConferenceSpeaker {
		signals = append(signals, model.SignalConferenceSpeaker)
	}
	if len(signals) == 0 {
		signals = append(signals, model.SignalNone)
	}
	return signals
}

var tier1Signals = []model.Signal{
	model.SignalLinkedInURLInBio, model.SignalLinkedInURLInBlog,
	model.SignalLinkedInURLInPage, model.SignalMutualReference,
}

var tier2Signals = []model.Signal{
	model.SignalLinkedInURLInTeamPage, model.SignalReverseLinkHintMatch,
	model.SignalCommitEmailDomain, model.SignalCrossPlatformHandle,
	model.SignalVerifiedDomain, model.SignalEmailInPublicPage,
	model.SignalConferenceSpeaker,
}

// classifyTier is deterministic and first-rule-wins (spec.md §4.4), with one
// documented exception (DESIGN.md Open Question (c)): linkedin_url_in_page
// co-occurring with conference_speaker, and no stronger tier-1 evidence,
// downgrades to Tier 2. A LinkedIn URL on the candidate's own bio or blog is
// a bridge the candidate authored; the same URL appearing on a third-party
// conference/speaker listing is someone else's corroborating mention.
func classifyTier(signals []model.Signal) (tier int, floor float64) {
	det := model.BridgeDetection{Signals: signals}
	if det.HasAny(tier1Signals...) {
		thirdPartyPageMention := det.HasSignal(model.SignalLinkedInURLInPage) &&
			det.HasSignal(model.SignalConferenceSpeaker) &&
			!det.HasAny(model.SignalLinkedInURLInBio, model.SignalLinkedInURLInBlog, model.SignalMutualReference)
		if thirdPartyPageMention {
			return 2, 0.50
		}
		return 1, 0.85
	}
	if det.HasAny(tier2Signals...) {
		return 2, 0.50
	}
	return 3, 0.00
}

func detectContradiction(hints model.EnrichedHints, p ProfileFacts, nameScore float64, signals []model.Signal) (bool, string) {
	det := model.BridgeDetection{Signals: signals}
	hasAnySignal := !det.HasSignal(model.SignalNone)
	if nameScore < 0.20 && hasAnySignal {
		return true, "name similarity below 0.20 despite an explicit bridge signal"
	}
	if hints.Location.Has() && p.CountryCode != "" {
		hintCode := inferCountryCode(hints.Location.String())
		if hintCode != "" && hintCode != p.CountryCode {
			return true, "location country code disagrees with the hinted country"
		}
	}
	return false, ""
}

func classifyBucket(total float64, cfg Config) model.ConfidenceBucket {
	switch {
	case total >= cfg.AutoMergeThreshold:
		return model.BucketAutoMerge
	case total >= cfg.SuggestThreshold:
		return model.BucketSuggest
	case total >= cfg.LowThreshold:
		return model.BucketLow
	default:
		return model.BucketRejected
	}
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func containsSubstr(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}
