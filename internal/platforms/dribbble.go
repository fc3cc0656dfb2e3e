package platforms

import (
	"net/url"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

var dribbbleReservedSegments = map[string]bool{
	"shots": true, "stories": true, "jobs": true, "freelance-jobs": true, "search": true,
}

// NewDribbble builds the Dribbble designer-profile adapter
// (dribbble.com/<user>).
func NewDribbble(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "dribbble",
		Domain:          "dribbble.com",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractDribbble,
	}
}

func extractDribbble(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "dribbble.com" {
		return "", "", scorer.ProfileFacts{}, false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 1 || segments[0] == "" || dribbbleReservedSegments[segments[0]] {
		return "", "", scorer.ProfileFacts{}, false
	}
	handle := segments[0]
	name := titleName(res.Title)
	return handle, "https://dribbble.com/" + handle, scorer.ProfileFacts{
		Handle:           handle,
		Name:             name,
		Bio:              res.Snippet,
		HandleExactMatch: strings.EqualFold(handle, strings.ReplaceAll(name, " ", "")),
	}, true
}
