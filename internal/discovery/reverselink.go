package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/normalize"
	"github.com/sells-group/identity-resolver/internal/search"
)

// reverseLinkDecodePasses bounds the iterative URL-decode applied to
// title/snippet/URL text before the LinkedIn-mention regex runs (spec.md
// §4.5, phase 2): some providers double- or triple-encode query-string
// fragments in cached snippets.
const reverseLinkDecodePasses = 3

var linkedInMentionRegex = regexp.MustCompile(`(?i)linkedin\.com/in/[a-z0-9\-_%]+|(?:^|[\s(])/in/[a-z0-9\-_%]+`)

// leadGenDomains mention LinkedIn constantly (they scrape and republish
// profiles) without being a genuine bridge between platforms, so reverse-link
// hits on them are dropped.
var leadGenDomains = map[string]bool{
	"ziprecruiter.com": true,
	"indeed.com":        true,
	"theladders.com":    true,
	"adzuna.com":        true,
	"glassdoor.com":     true,
	"ratemyemployer.com": true,
}

var githubReservedSegments = map[string]bool{
	"about": true, "settings": true, "login": true, "join": true, "orgs": true,
	"features": true, "sponsors": true, "marketplace": true, "issues": true,
	"pulls": true, "notifications": true, "explore": true, "topics": true,
	"collections": true, "trending": true, "search": true, "pricing": true,
}

var teamPagePathIndicators = []string{"/about", "/team", "/people"}

// conferencePageIndicators mark a third-party conference/speaker listing
// (spec.md §8 scenario S3), checked against both the URL path and the
// decoded title/snippet text.
var conferencePageIndicators = []string{
	"speaker", "speakers", "conference", "summit", "keynote", "agenda", "schedule", "cfp",
}

// githubMentionRegex finds a github.com/<login> mention inside page text,
// used when the reverse-link hit itself lives on a conference/speaker page
// rather than on github.com (ParseReverseLinkHit's conference-page branch).
var githubMentionRegex = regexp.MustCompile(`(?i)github\.com/([a-z0-9](?:[a-z0-9-]{0,37}[a-z0-9])?)`)

// ReverseLinkHit is one reverse-link-discovered candidate platform page
// (spec.md §4.5, phase 2), before it has been scored.
type ReverseLinkHit struct {
	Platform     string
	PlatformID   string
	ProfileURL   string
	Signal       model.Signal
	SERPPosition int

	// ConferenceSpeaker is set when the hit came from a third-party
	// conference/speaker listing mentioning the candidate's GitHub login,
	// rather than from the login's own platform profile (spec.md §8, S3).
	ConferenceSpeaker bool
}

// ParseReverseLinkHit inspects one search result for a LinkedIn mention and,
// if found on a non-lead-gen domain, extracts the {platform, platformId}
// pair per the platform-specific routing rules in spec.md §4.5.
func ParseReverseLinkHit(result search.Result) (ReverseLinkHit, bool) {
	text := decodeRepeatedly(result.Title, reverseLinkDecodePasses) + " " +
		decodeRepeatedly(result.Snippet, reverseLinkDecodePasses) + " " +
		decodeRepeatedly(result.URL, reverseLinkDecodePasses)
	if !linkedInMentionRegex.MatchString(text) {
		return ReverseLinkHit{}, false
	}

	u, err := url.Parse(result.URL)
	if err != nil || u.Host == "" {
		return ReverseLinkHit{}, false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if strings.Contains(host, "linkedin.com") || leadGenDomains[host] {
		return ReverseLinkHit{}, false
	}

	if isConferenceSpeakerPage(u.Path, text) {
		if login, ok := firstGitHubMention(text); ok {
			return ReverseLinkHit{
				Platform:          "github",
				PlatformID:        login,
				ProfileURL:        result.URL,
				Signal:            model.SignalLinkedInURLInPage,
				ConferenceSpeaker: true,
				SERPPosition:      result.Position,
			}, true
		}
	}

	platform, platformID, signal, ok := routeByHost(host, u.Path)
	if !ok {
		return ReverseLinkHit{}, false
	}

	return ReverseLinkHit{
		Platform:     platform,
		PlatformID:   platformID,
		ProfileURL:   result.URL,
		Signal:       signal,
		SERPPosition: result.Position,
	}, true
}

// isConferenceSpeakerPage reports whether path or text carries a
// conference/speaker-listing indicator (spec.md §8, S3): a third-party page
// about a talk or speaker roster, as distinct from a platform profile the
// candidate controls directly.
func isConferenceSpeakerPage(path, text string) bool {
	lowerPath := strings.ToLower(path)
	lowerText := strings.ToLower(text)
	for _, ind := range conferencePageIndicators {
		if strings.Contains(lowerPath, ind) || strings.Contains(lowerText, ind) {
			return true
		}
	}
	return false
}

// firstGitHubMention extracts the first github.com/<login> handle mentioned
// in text, filtering reserved path segments the same way a direct
// github.com hit is.
func firstGitHubMention(text string) (string, bool) {
	m := githubMentionRegex.FindStringSubmatch(text)
	if m == nil || githubReservedSegments[strings.ToLower(m[1])] {
		return "", false
	}
	return m[1], true
}

func routeByHost(host, path string) (platform, platformID string, signal model.Signal, ok bool) {
	path = strings.Trim(path, "/")
	segments := strings.Split(path, "/")

	if containsTeamIndicator(path) {
		return "companyteam", path, model.SignalLinkedInURLInTeamPage, true
	}

	switch {
	case host == "github.com":
		if len(segments) == 1 && segments[0] != "" && !githubReservedSegments[segments[0]] {
			return "github", segments[0], model.SignalLinkedInURLInPage, true
		}
	case host == "twitter.com" || host == "x.com":
		if len(segments) >= 1 && segments[0] != "" {
			return "twitter", segments[0], model.SignalLinkedInURLInPage, true
		}
	case host == "medium.com":
		if len(segments) >= 1 && strings.HasPrefix(segments[0], "@") {
			return "medium", strings.TrimPrefix(segments[0], "@"), model.SignalLinkedInURLInPage, true
		}
	case strings.HasSuffix(host, ".substack.com"):
		sub := strings.TrimSuffix(host, ".substack.com")
		return "substack", sub, model.SignalLinkedInURLInPage, true
	}
	return "", "", "", false
}

func containsTeamIndicator(path string) bool {
	p := "/" + strings.ToLower(path)
	for _, ind := range teamPagePathIndicators {
		if strings.Contains(p, ind) {
			return true
		}
	}
	return false
}

// decodeRepeatedly applies url.QueryUnescape up to maxPasses times or until
// a pass leaves the string unchanged, whichever comes first.
func decodeRepeatedly(s string, maxPasses int) string {
	for i := 0; i < maxPasses; i++ {
		decoded, err := url.QueryUnescape(s)
		if err != nil || decoded == s {
			break
		}
		s = decoded
	}
	return s
}

// hasCorroboratingHint reports whether a company or location token from
// hints appears in the result's title/snippet, adding the
// reverse_link_hint_match signal (spec.md §4.5, phase 2).
func hasCorroboratingHint(result search.Result, hints model.EnrichedHints) bool {
	text := normalize.Fold(result.Title + " " + result.Snippet)
	if text == "" {
		return false
	}
	for _, h := range []model.Hint{hints.Company, hints.Location} {
		if !h.Has() {
			continue
		}
		for _, tok := range normalize.Tokens(h.String()) {
			if len(tok) > 2 && strings.Contains(text, tok) {
				return true
			}
		}
	}
	return false
}
