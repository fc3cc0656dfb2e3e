package platforms

import (
	"net/url"
	"strings"

	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

var kaggleReservedSegments = map[string]bool{
	"datasets": true, "competitions": true, "code": true, "discussions": true,
	"models": true, "organizations": true, "learn": true, "docs": true,
}

// NewKaggle builds the Kaggle profile adapter (kaggle.com/<user>).
func NewKaggle(executor SearchExecutor, resultsPerQuery int) *Engine {
	return &Engine{
		PlatformName:    "kaggle",
		Domain:          "kaggle.com",
		Executor:        executor,
		ResultsPerQuery: resultsPerQuery,
		Extract:         extractKaggle,
	}
}

func extractKaggle(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool) {
	u, err := url.Parse(res.URL)
	if err != nil || u.Host == "" {
		return "", "", scorer.ProfileFacts{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "kaggle.com" {
		return "", "", scorer.ProfileFacts{}, false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 1 || segments[0] == "" || kaggleReservedSegments[segments[0]] {
		return "", "", scorer.ProfileFacts{}, false
	}
	handle := segments[0]
	name := titleName(res.Title)
	return handle, "https://www.kaggle.com/" + handle, scorer.ProfileFacts{
		Handle:           handle,
		Name:             name,
		Bio:              res.Snippet,
		HandleExactMatch: strings.EqualFold(handle, strings.ReplaceAll(name, " ", "")),
	}, true
}
