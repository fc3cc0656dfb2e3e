// Package hints implements C1, the hint extractor: it turns a LinkedIn SERP
// title/snippet/slug into typed, confidence-scored EnrichedHints (spec.md
// §4.1). Extraction is pure and non-suspending; a field that cannot be
// recovered is returned as model.NoHint() rather than an error.
package hints

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/normalize"
)

// Input bundles the raw fields C1 consumes for one candidate (spec.md §4.1).
type Input struct {
	Slug              string
	SERPTitle         string
	SERPSnippet       string
	KnowledgeGraphName string
	AnswerBoxText     string
	LocaleCountryCode string
	RoleType          model.RoleType
	LinkedInID        string
	LinkedInURL       string
}

var (
	linkedInSuffix   = regexp.MustCompile(`(?i)\s*[|\-]\s*linkedin\s*$`)
	notificationTag  = regexp.MustCompile(`^\(\d+\)\s*`)
	delimSplit       = regexp.MustCompile(` - | \| | · |, `)
	hexSuffix        = regexp.MustCompile(`-[0-9a-f]{6,}$`)
	numericSuffix    = regexp.MustCompile(`-?\d+$`)
	credentialTail   = regexp.MustCompile(`(?i)-(phd|md|jr|sr|ii|iii)$`)
	atCompanyPattern = regexp.MustCompile(`(?i)(?:^|\s)(?:at|@)\s+([\p{L}][\p{L}\p{N}&.,'\- ]{1,60})`)
	dashTailPattern  = regexp.MustCompile(` - ([\p{L}][\p{L}\p{N}&.,'\- ]{1,60})$`)
	locationPrefix   = regexp.MustCompile(`(?i)location:\s*([\p{L}][\p{L}\p{N},.'\- ]{1,40})`)
	cityStatePattern = regexp.MustCompile(`\b([\p{L}][\p{L} ]{1,25}),\s*([A-Z]{2})\b`)
	basedInPattern   = regexp.MustCompile(`(?i)based in\s+([\p{L}][\p{L}\p{N},.'\- ]{1,40})`)
)

// Extract runs the full C1 pipeline over in and returns EnrichedHints.
func Extract(in Input) model.EnrichedHints {
	out := model.EnrichedHints{
		LinkedInID:  in.LinkedInID,
		LinkedInURL: in.LinkedInURL,
		RoleType:    in.RoleType,
	}

	cleanedTitle, nameHint := extractName(in)
	out.Name = nameHint
	out.Headline = extractHeadline(cleanedTitle, nameHint)
	out.Company = extractCompany(in, out.Headline)
	out.Location = extractLocation(in, out.Headline)

	return out
}

// extractName implements spec.md §4.1.a/b: title-derived name first, slug
// fallback second. Also returns the title with the notification badge and
// LinkedIn marker removed (delimiters still in place) for headline reuse.
func extractName(in Input) (string, model.Hint) {
	cleaned := notificationTag.ReplaceAllString(strings.TrimSpace(in.SERPTitle), "")
	cleaned = linkedInSuffix.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if in.KnowledgeGraphName != "" {
		return cleaned, model.WithValue(in.KnowledgeGraphName, 0.95, model.HintSourceKnowledgeGraph)
	}

	if cleaned != "" {
		left := cleaned
		if loc := delimSplit.FindStringIndex(cleaned); loc != nil {
			left = cleaned[:loc[0]]
			// A one-word left side before ", " may be the surname of a
			// "Last, First" name: keep both halves so it can be reversed.
			if cleaned[loc[0]:loc[1]] == ", " && !strings.Contains(strings.TrimSpace(left), " ") {
				end := len(cleaned)
				if next := delimSplit.FindStringIndex(cleaned[loc[1]:]); next != nil {
					end = loc[1] + next[0]
				}
				if commaForm := strings.TrimSpace(cleaned[:end]); looksLikeName(commaForm) {
					left = commaForm
				}
			}
		}
		left = strings.TrimSpace(left)
		if looksLikeName(left) {
			name, reversed := reverseIfCommaForm(left)
			conf := 0.95
			if reversed {
				conf = 0.85
			} else if strings.Count(name, " ") == 0 {
				conf = 0.75
			} else if strings.Count(name, " ") > 2 {
				conf = 0.80
			}
			return cleaned, model.WithValue(name, conf, model.HintSourceSERPTitle)
		}
	}

	if name, conf, ok := nameFromSlug(in.Slug); ok {
		return cleaned, model.WithValue(name, conf, model.HintSourceURLSlug)
	}

	return cleaned, model.NoHint()
}

// looksLikeName requires a leading Unicode letter, 1..5 words, and no
// job-title keyword (spec.md §4.1.a).
func looksLikeName(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	if !unicode.IsLetter(r[0]) {
		return false
	}
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 5 {
		return false
	}
	if containsAny(s, jobTitleKeywords) {
		return false
	}
	return true
}

// reverseIfCommaForm turns "Doe, Jane" into "Jane Doe".
func reverseIfCommaForm(s string) (string, bool) {
	if parts := strings.SplitN(s, ",", 2); len(parts) == 2 {
		last := strings.TrimSpace(parts[0])
		first := strings.TrimSpace(parts[1])
		if last != "" && first != "" && !strings.Contains(first, ",") {
			return first + " " + last, true
		}
	}
	return s, false
}

// nameFromSlug reconstructs a name from a URL slug, stripping hex/numeric
// suffixes and credential tails, requiring at least one hyphen (spec.md §4.1.b).
func nameFromSlug(slug string) (string, float64, bool) {
	s := slug
	s = credentialTail.ReplaceAllString(s, "")
	s = hexSuffix.ReplaceAllString(s, "")
	s = numericSuffix.ReplaceAllString(s, "")
	s = strings.Trim(s, "-")
	if !strings.Contains(s, "-") {
		return "", 0, false
	}
	tokens := strings.Split(s, "-")
	var kept []string
	for _, t := range tokens {
		if t == "" {
			continue
		}
		kept = append(kept, t)
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) < 2 {
		return "", 0, false
	}
	for i, t := range kept {
		kept[i] = strings.ToUpper(t[:1]) + t[1:]
	}
	conf := 0.40 + 0.10*float64(len(kept)-2)
	return strings.Join(kept, " "), conf, true
}

// extractHeadline takes whatever follows the first recognised delimiter in
// the cleaned title (spec.md §4.1.c).
func extractHeadline(cleanedTitle string, name model.Hint) model.Hint {
	if cleanedTitle == "" {
		return model.NoHint()
	}
	loc := delimSplit.FindStringIndex(cleanedTitle)
	if loc == nil {
		return model.NoHint()
	}
	rest := strings.TrimSpace(cleanedTitle[loc[1]:])
	if rest == "" {
		return model.NoHint()
	}
	return model.WithValue(rest, 0.70, model.HintSourceHeadlineParse)
}

// extractCompany implements spec.md §4.1.d.
func extractCompany(in Input, headline model.Hint) model.Hint {
	if in.AnswerBoxText != "" {
		return applyLocaleAdjustment(model.WithValue(in.AnswerBoxText, 0.90, model.HintSourceAnswerBox), in, false)
	}

	text := in.SERPTitle + " " + in.SERPSnippet + " " + headline.String()

	if m := atCompanyPattern.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if !startsWithAny(candidate, academicOpenings) {
			conf := 0.90
			if knownBrands[strings.ToLower(candidate)] {
				conf = 0.95
			}
			return model.WithValue(candidate, conf, model.HintSourceSERPTitle)
		}
	}

	segments := delimSplit.Split(text, -1)
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" {
			continue
		}
		if containsAny(seg, companyIndicatorTokens) {
			return model.WithValue(seg, 0.85, model.HintSourceSERPSnippet)
		}
		if knownBrands[strings.ToLower(seg)] {
			return model.WithValue(seg, 0.95, model.HintSourceSERPSnippet)
		}
	}

	if m := dashTailPattern.FindStringSubmatch(in.SERPTitle); m != nil {
		return model.WithValue(strings.TrimSpace(m[1]), 0.60, model.HintSourceSERPTitle)
	}

	return model.NoHint()
}

func startsWithAny(s string, prefixes []string) bool {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// extractLocation implements spec.md §4.1.e.
func extractLocation(in Input, headline model.Hint) model.Hint {
	text := in.SERPSnippet + " " + in.SERPTitle + " " + headline.String()

	if m := locationPrefix.FindStringSubmatch(text); m != nil && isPlausibleLocation(m[1]) {
		return applyLocaleAdjustment(model.WithValue(strings.TrimSpace(m[1]), 0.95, model.HintSourceSERPSnippet), in, true)
	}

	if m := cityStatePattern.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1]) + ", " + m[2]
		if isPlausibleLocation(candidate) {
			return applyLocaleAdjustment(model.WithValue(candidate, 0.85, model.HintSourceSERPSnippet), in, true)
		}
	}

	segments := delimSplit.Split(text, -1)
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if isPlausibleLocation(seg) {
			return applyLocaleAdjustment(model.WithValue(seg, 0.60, model.HintSourceSERPSnippet), in, true)
		}
	}

	if m := basedInPattern.FindStringSubmatch(text); m != nil && isPlausibleLocation(m[1]) {
		return applyLocaleAdjustment(model.WithValue(strings.TrimSpace(m[1]), 0.75, model.HintSourceSERPSnippet), in, true)
	}

	return model.NoHint()
}

// isPlausibleLocation checks the fixed state/country/city table, or a
// "City, Initial-capital" shape (spec.md §4.1.e).
func isPlausibleLocation(s string) bool {
	if s == "" {
		return false
	}
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	if countryNames[lower] || knownCities[lower] {
		return true
	}
	if parts := strings.SplitN(trimmed, ",", 2); len(parts) == 2 {
		state := strings.ToLower(strings.TrimSpace(parts[1]))
		if usStateAbbrevs[state] {
			return true
		}
		city := strings.TrimSpace(parts[0])
		r := []rune(strings.TrimSpace(parts[1]))
		if city != "" && len(r) > 0 && unicode.IsUpper(r[0]) {
			return true
		}
	}
	return false
}

// applyLocaleAdjustment applies the +0.05/-0.20 locale agreement rule
// (spec.md §4.1, final paragraph). Only meaningful for the location field.
func applyLocaleAdjustment(h model.Hint, in Input, isLocation bool) model.Hint {
	if !isLocation || in.LocaleCountryCode == "" || !h.Has() {
		return h
	}
	agrees := localeAgrees(in.LocaleCountryCode, h.String())
	conf := h.Confidence
	if agrees {
		conf += 0.05
		if conf > 0.99 {
			conf = 0.99
		}
	} else {
		conf -= 0.20
		if conf < 0.10 {
			conf = 0.10
		}
	}
	return model.WithValue(h.String(), conf, h.Source)
}

func localeAgrees(countryCode, location string) bool {
	cc := strings.ToUpper(countryCode)
	folded := normalize.Fold(location)
	switch cc {
	case "US":
		return strings.Contains(folded, "usa") || hasUSStateSuffix(folded)
	case "GB", "UK":
		return strings.Contains(folded, "london") || strings.Contains(folded, "united kingdom")
	case "CA":
		return strings.Contains(folded, "canada") || strings.Contains(folded, "toronto")
	case "DE":
		return strings.Contains(folded, "germany") || strings.Contains(folded, "berlin")
	default:
		return false
	}
}

func hasUSStateSuffix(folded string) bool {
	fields := strings.Fields(folded)
	if len(fields) == 0 {
		return false
	}
	return usStateAbbrevs[fields[len(fields)-1]]
}

// TechKeywords extracts up to two vocabulary tech keywords from a headline
// for engineer/data-scientist/researcher roles (spec.md §4.2).
func TechKeywords(headline string, role model.RoleType) []string {
	switch role {
	case model.RoleEngineer, model.RoleDataScientist, model.RoleResearcher:
	default:
		return nil
	}
	folded := normalize.Fold(headline)
	var found []string
	for _, kw := range techKeywordVocab {
		if strings.Contains(folded, kw) {
			found = append(found, kw)
		}
		if len(found) == 2 {
			break
		}
	}
	return found
}

// isNumeric reports whether s parses as a base-10 integer.
func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
