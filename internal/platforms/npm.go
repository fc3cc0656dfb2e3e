package platforms

import (
	"net/url"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// NewNPM builds the npm registry profile adapter (npmjs.com/~<user>).
func NewNPM(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "npm",
		Domain:          "npmjs.com",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractNPM,
	}
}

func extractNPM(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "npmjs.com" {
		return "", "", scorer.ProfileFacts{}, false
	}
	path := strings.Trim(u.Path, "/")
	if !strings.HasPrefix(path, "~") {
		return "", "", scorer.ProfileFacts{}, false
	}
	handle := strings.TrimPrefix(path, "~")
	if handle == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	name := titleName(res.Title)
	return handle, "https://www.npmjs.com/~" + handle, scorer.ProfileFacts{
		Handle:           handle,
		Name:             name,
		Bio:              res.Snippet,
		HandleExactMatch: strings.EqualFold(handle, strings.ReplaceAll(name, " ", "")),
	}, true
}
