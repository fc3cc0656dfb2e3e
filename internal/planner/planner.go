// Package planner implements C2, the query planner: given hints and a
// platform, it generates a deduplicated, prioritized list of Query records
// within a global budget (spec.md §4.2).
package planner

import (
	"fmt"
	"strings"

	"github.com/sells-group/identity-resolver/internal/hints"
	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/normalize"
)

// Confidence gates (spec.md §4.2).
const (
	High   = 0.70
	Medium = 0.50
	Low    = 0.30
)

// Plan generates the ordered, deduplicated, budget-truncated query list for
// the GitHub/name-based planner — the default planner used for name-centric
// discovery (spec.md §4.2).
func Plan(h model.EnrichedHints, maxQueries int) []model.Query {
	var qs []model.Query

	if h.Name.Has() {
		if h.Name.Confidence >= High {
			qs = append(qs, q(fmt.Sprintf("%q", h.Name.String()), model.QueryNameOnly, "name:exact"))
		}
		if h.Name.Confidence >= Low {
			qs = append(qs, q(h.Name.String(), model.QueryNameOnly, "name:unquoted"))
		}

		if h.Company.Has() && h.Company.Confidence >= Medium {
			qs = append(qs, q(h.Name.String()+" "+h.Company.String(), model.QueryNameCompany, "name+company"))
			if h.Name.Confidence >= High {
				qs = append(qs, q(h.Name.String()+" "+h.Company.String()+" github", model.QueryNameCompany, "name+company+github"))
				qs = append(qs, q(h.Name.String()+" "+h.Company.String()+" linkedin", model.QueryNameCompany, "name+company+linkedin"))
			}
		}

		if h.Location.Has() && h.Location.Confidence >= Medium && len(h.Location.String()) <= 30 {
			qs = append(qs, q(h.Name.String()+" "+h.Location.String(), model.QueryNameLocation, "name+location"))
		}

		if kws := hints.TechKeywords(h.Headline.String(), h.RoleType); len(kws) > 0 {
			qs = append(qs, q(h.Name.String()+" "+strings.Join(kws, " "), model.QueryNameLocation, "name+tech"))
		}
	} else if h.Company.Has() && h.Company.Confidence >= 0.85 {
		qs = append(qs, q(h.Company.String(), model.QueryCompanyOnly, "company:only"))
		if h.Location.Has() {
			qs = append(qs, q(h.Company.String()+" "+h.Location.String(), model.QueryCompanyLocation, "company+location"))
		}
	} else {
		qs = append(qs, slugQueries(h.LinkedInID)...)
	}

	return dedupeAndTruncate(qs, maxQueries)
}

// slugQueries is the fallback planner when no name hint survives (spec.md
// §4.2): raw handle, hex/numeric-stripped handle, hyphens-to-spaces.
func slugQueries(slug string) []model.Query {
	if slug == "" {
		return nil
	}
	var qs []model.Query
	qs = append(qs, q(slug, model.QuerySlugBased, "slug:raw"))

	stripped := stripTrailingID(slug)
	if stripped != slug && stripped != "" {
		qs = append(qs, q(stripped, model.QuerySlugBased, "slug:stripped"))
	}

	spaced := strings.ReplaceAll(stripped, "-", " ")
	if spaced != "" {
		qs = append(qs, q(fmt.Sprintf("%q", spaced), model.QuerySlugBased, "slug:spaced:quoted"))
		qs = append(qs, q(spaced, model.QuerySlugBased, "slug:spaced:unquoted"))
	}
	return qs
}

func stripTrailingID(slug string) string {
	parts := strings.Split(slug, "-")
	for len(parts) > 1 {
		last := parts[len(parts)-1]
		if isHexOrNumeric(last) {
			parts = parts[:len(parts)-1]
			continue
		}
		break
	}
	return strings.Join(parts, "-")
}

func isHexOrNumeric(s string) bool {
	if len(s) < 4 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// PlanReverseLink builds the URL-anchored reverse-link query set (spec.md
// §4.2): exact-match LinkedIn URL queries, a site:github.com variant, a
// portfolio/personal-site variant, and a conference/speaker variant for
// engineer/researcher roles.
func PlanReverseLink(h model.EnrichedHints, maxQueries int) []model.Query {
	var qs []model.Query
	if h.LinkedInURL != "" {
		qs = append(qs, q(fmt.Sprintf("%q", h.LinkedInURL), model.QueryURLReverse, "url_exact"))
		qs = append(qs, q(fmt.Sprintf("%q site:github.com", h.LinkedInURL), model.QueryURLReverse, "url_exact:github"))
		qs = append(qs, q(fmt.Sprintf("%q portfolio OR personal site", h.LinkedInURL), model.QueryURLReverse, "url_exact:portfolio"))
		if h.RoleType == model.RoleEngineer || h.RoleType == model.RoleResearcher {
			qs = append(qs, q(fmt.Sprintf("%q conference OR speaker", h.LinkedInURL), model.QueryURLReverse, "url_exact:speaker"))
		}
	}
	return dedupeAndTruncate(qs, maxQueries)
}

// PlatformHandlePlan builds the handle-based query set for a non-GitHub
// source platform (npm, PyPI, Kaggle, ORCID, Dribbble, ...) by combining a
// site-scoped handle search with name-based searches (spec.md §4.2).
func PlatformHandlePlan(platform, domain string, h model.EnrichedHints, maxQueries int) []model.Query {
	var qs []model.Query
	if h.Name.Has() {
		handle := normalize.Fold(h.Name.String())
		handle = strings.ReplaceAll(handle, " ", "")
		qs = append(qs, q(fmt.Sprintf("site:%s/%s", domain, handle), model.QueryHandleBased, "handle:clean"))
		qs = append(qs, q(fmt.Sprintf("%q site:%s", h.Name.String(), domain), model.QueryNameOnly, "name+site"))
		if h.Company.Has() {
			qs = append(qs, q(fmt.Sprintf("%s %s site:%s", h.Name.String(), h.Company.String(), domain), model.QueryNameCompany, "name+company+site"))
		}
	}
	for i := range qs {
		qs[i].Platform = platform
	}
	return dedupeAndTruncate(qs, maxQueries)
}

func q(text string, t model.QueryType, variant string) model.Query {
	return model.Query{Text: text, Type: t, VariantID: variant}
}

// dedupeAndTruncate removes duplicates by case-folded text within this
// planning pass and enforces the min(result, budget) truncation (spec.md
// §4.2, last paragraph).
func dedupeAndTruncate(qs []model.Query, maxQueries int) []model.Query {
	seen := make(map[string]bool, len(qs))
	var out []model.Query
	for _, query := range qs {
		key := strings.ToLower(strings.TrimSpace(query.Text))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, query)
	}
	if maxQueries > 0 && len(out) > maxQueries {
		out = out[:maxQueries]
	}
	return out
}
