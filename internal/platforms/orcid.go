package platforms

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

var orcidIDPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[0-9X]$`)

// NewORCID builds the ORCID researcher-identifier adapter
// (orcid.org/<orcid-id>). ORCID has no handle, only its own fixed-format id,
// so the handle-based planner query still works (it searches by name) but
// the extractor keys on the id pattern rather than a username.
func NewORCID(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "orcid",
		Domain:          "orcid.org",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractORCID,
	}
}

func extractORCID(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "orcid.org" {
		return "", "", scorer.ProfileFacts{}, false
	}
	id := strings.Trim(u.Path, "/")
	if !orcidIDPattern.MatchString(id) {
		return "", "", scorer.ProfileFacts{}, false
	}
	name := titleName(res.Title)
	return id, "https://orcid.org/" + id, scorer.ProfileFacts{
		Name: name,
		Bio:  res.Snippet,
	}, true
}
