package platforms

import (
	"net/url"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// NewMedium builds the Medium author-profile adapter (medium.com/@<user>).
// Medium also turns up constantly during reverse-link discovery (see
// discovery.routeByHost); this adapter covers the hint-only path when no
// reverse-link hit surfaced one.
func NewMedium(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "medium",
		Domain:          "medium.com",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractMedium,
	}
}

func extractMedium(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "medium.com" {
		return "", "", scorer.ProfileFacts{}, false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || !strings.HasPrefix(segments[0], "@") {
		return "", "", scorer.ProfileFacts{}, false
	}
	handle := strings.TrimPrefix(segments[0], "@")
	if handle == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	name := titleName(res.Title)
	return handle, "https://medium.com/@" + handle, scorer.ProfileFacts{
		Handle:           handle,
		Name:             name,
		Bio:              res.Snippet,
		HandleExactMatch: strings.EqualFold(handle, strings.ReplaceAll(name, " ", "")),
	}, true
}
