package hints

import "strings"

// jobTitleKeywords disqualify a SERP-title left segment from being treated
// as a person's name (spec.md §4.1.a).
var jobTitleKeywords = []string{
	"engineer", "manager", "director", "founder", "scientist", "developer",
	"consultant", "analyst", "designer", "architect", "researcher",
	"president", "officer", "lead", "specialist", "recruiter",
}

// companyIndicatorTokens mark a segment as company-shaped (spec.md §4.1.d).
var companyIndicatorTokens = []string{
	"inc", "inc.", "llc", "llc.", "labs", "ventures", "corp", "corp.",
	"co", "co.", "group", "studio", "technologies", "systems", "capital",
}

// knownBrands is a small fixed table of recognisable employer names that
// short-circuit the company heuristic with high confidence.
var knownBrands = map[string]bool{
	"google": true, "microsoft": true, "amazon": true, "meta": true,
	"apple": true, "netflix": true, "stripe": true, "openai": true,
	"anthropic": true, "github": true, "nvidia": true, "salesforce": true,
}

// academicOpenings reject "at <org>" segments that are really academic
// affiliations, not employers (spec.md §4.1.d).
var academicOpenings = []string{"the university", "university of", "college of"}

// usStateAbbrevs backs the location-plausibility predicate.
var usStateAbbrevs = map[string]bool{
	"al": true, "ak": true, "az": true, "ar": true, "ca": true, "co": true,
	"ct": true, "de": true, "fl": true, "ga": true, "hi": true, "id": true,
	"il": true, "in": true, "ia": true, "ks": true, "ky": true, "la": true,
	"me": true, "md": true, "ma": true, "mi": true, "mn": true, "ms": true,
	"mo": true, "mt": true, "ne": true, "nv": true, "nh": true, "nj": true,
	"nm": true, "ny": true, "nc": true, "nd": true, "oh": true, "ok": true,
	"or": true, "pa": true, "ri": true, "sc": true, "sd": true, "tn": true,
	"tx": true, "ut": true, "vt": true, "va": true, "wa": true, "wv": true,
	"wi": true, "wy": true, "dc": true,
}

var knownCities = map[string]bool{
	"san francisco": true, "new york": true, "seattle": true, "austin": true,
	"boston": true, "chicago": true, "london": true, "berlin": true,
	"toronto": true, "denver": true, "portland": true, "los angeles": true,
}

var countryNames = map[string]bool{
	"usa": true, "united states": true, "canada": true, "united kingdom": true,
	"germany": true, "france": true, "india": true, "australia": true,
}

// techKeywordVocab is the fixed tech-keyword vocabulary C2 draws from an
// engineer/data-scientist/researcher headline (spec.md §4.2).
var techKeywordVocab = []string{
	"golang", "python", "rust", "kubernetes", "react", "typescript",
	"machine learning", "distributed systems", "backend", "frontend",
	"infrastructure", "data engineering", "nlp", "computer vision",
	"blockchain", "devops", "security", "cloud",
}

func containsAny(haystack string, needles []string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(h, n) {
			return true
		}
	}
	return false
}

func containsWord(haystack string, needles []string) bool {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if lower == n {
			return true
		}
	}
	return false
}
