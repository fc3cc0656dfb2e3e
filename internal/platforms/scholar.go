package platforms

import (
	"net/url"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// NewScholar builds the Google Scholar citations-profile adapter
// (scholar.google.com/citations?user=<id>). Scholar keys profiles by an
// opaque query-string id rather than a path segment or handle, so the
// extractor parses the query string instead of path segments.
func NewScholar(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "scholar",
		Domain:          "scholar.google.com",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractScholar,
	}
}

func extractScholar(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "scholar.google.com" || strings.Trim(u.Path, "/") != "citations" {
		return "", "", scorer.ProfileFacts{}, false
	}
	userID := u.Query().Get("user")
	if userID == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	name := titleName(res.Title)
	return userID, "https://scholar.google.com/citations?user=" + userID, scorer.ProfileFacts{
		Name: name,
		Bio:  res.Snippet,
	}, true
}
