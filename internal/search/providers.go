package search

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
)

// Provider names recognised by the executor and the live HTTP transport.
const (
	ProviderSerper = "serper"
	ProviderBrave  = "brave"
	ProviderGitHub = "github"
)

// DecodeSerper normalises a Serper.dev `/search` response into []Result.
func DecodeSerper(body []byte) ([]Result, error) {
	var payload struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "search: decode serper payload")
	}
	results := make([]Result, 0, len(payload.Organic))
	for i, o := range payload.Organic {
		results = append(results, Result{URL: o.Link, Title: o.Title, Snippet: o.Snippet, Position: i + 1})
	}
	return results, nil
}

// DecodeBrave normalises a Brave Search web API response into []Result.
func DecodeBrave(body []byte) ([]Result, error) {
	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "search: decode brave payload")
	}
	results := make([]Result, 0, len(payload.Web.Results))
	for i, r := range payload.Web.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Snippet: r.Description, Position: i + 1})
	}
	return results, nil
}

// DecodeGitHubCodeSearch normalises a GitHub code-search response (used when
// the "github" provider is queried directly instead of via a general-web
// reverse-link search) into []Result.
func DecodeGitHubCodeSearch(body []byte) ([]Result, error) {
	var payload struct {
		Items []struct {
			HTMLURL string `json:"html_url"`
			Name    string `json:"name"`
			Repository struct {
				FullName string `json:"full_name"`
			} `json:"repository"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "search: decode github payload")
	}
	results := make([]Result, 0, len(payload.Items))
	for i, item := range payload.Items {
		results = append(results, Result{
			URL:      item.HTMLURL,
			Title:    fmt.Sprintf("%s - %s", item.Name, item.Repository.FullName),
			Snippet:  item.Repository.FullName,
			Position: i + 1,
		})
	}
	return results, nil
}
