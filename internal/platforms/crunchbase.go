package platforms

import (
	"net/url"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// NewCrunchbase builds the Crunchbase person-profile adapter
// (crunchbase.com/person/<slug>), useful for founder and executive
// candidates in particular.
func NewCrunchbase(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "crunchbase",
		Domain:          "crunchbase.com",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractCrunchbase,
	}
}

func extractCrunchbase(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "crunchbase.com" {
		return "", "", scorer.ProfileFacts{}, false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "person" || segments[1] == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	slug := segments[1]
	name := titleName(res.Title)
	return slug, "https://www.crunchbase.com/person/" + slug, scorer.ProfileFacts{
		Handle: slug,
		Name:   name,
		Bio:    res.Snippet,
	}, true
}
