package platforms

import (
	"net/url"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// NewPyPI builds the PyPI user-profile adapter (pypi.org/user/<user>/).
func NewPyPI(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "pypi",
		Domain:          "pypi.org",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractPyPI,
	}
}

func extractPyPI(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "pypi.org" {
		return "", "", scorer.ProfileFacts{}, false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "user" || segments[1] == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	handle := segments[1]
	name := titleName(res.Title)
	return handle, "https://pypi.org/user/" + handle + "/", scorer.ProfileFacts{
		Handle:           handle,
		Name:             name,
		Bio:              res.Snippet,
		HandleExactMatch: strings.EqualFold(handle, strings.ReplaceAll(name, " ", "")),
	}, true
}
