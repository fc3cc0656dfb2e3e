package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sells-group/identity-resolver/internal/model"
)

// HTTPTransport issues live requests against the configured provider
// endpoints. Each provider is a simple REST lookup; the response shape is
// normalised into []Result by the provider-specific decode function.
type HTTPTransport struct {
	client    *http.Client
	endpoints map[string]ProviderEndpoint
}

// ProviderEndpoint describes how to call and decode one provider.
type ProviderEndpoint struct {
	BaseURL string
	APIKey  string
	Decode  func(body []byte) ([]Result, error)
}

// NewHTTPTransport builds a live transport over the given provider endpoints.
func NewHTTPTransport(endpoints map[string]ProviderEndpoint, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPTransport{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
	}
}

// Search implements Transport against a live provider endpoint.
func (t *HTTPTransport) Search(ctx context.Context, provider string, query model.Query, limit int) ([]Result, error) {
	ep, ok := t.endpoints[provider]
	if !ok {
		return nil, model.NewKindedError(model.ErrNotFound, nil, fmt.Sprintf("search: unknown provider %q", provider))
	}

	reqURL := fmt.Sprintf("%s?q=%s&limit=%d", ep.BaseURL, url.QueryEscape(query.Text), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, model.NewKindedError(model.ErrFatal, err, "search: build request")
	}
	if ep.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+ep.APIKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, model.NewKindedError(model.ErrNetwork, err, "search: do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		msg, retryAfter := retryAfterMessage(resp)
		return nil, model.NewRateLimitedError(msg, retryAfter)
	case resp.StatusCode >= 500:
		return nil, model.NewKindedError(model.ErrProviderUnavailable, nil, fmt.Sprintf("search: %s returned %d", provider, resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, model.NewKindedError(model.ErrAuth, nil, fmt.Sprintf("search: %s unauthorized", provider))
	case resp.StatusCode == http.StatusNotFound:
		return nil, model.NewKindedError(model.ErrNotFound, nil, fmt.Sprintf("search: %s not found", provider))
	case resp.StatusCode >= 400:
		return nil, model.NewKindedError(model.ErrFatal, nil, fmt.Sprintf("search: %s returned %d", provider, resp.StatusCode))
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, model.NewKindedError(model.ErrParseError, err, "search: decode response")
	}
	results, err := ep.Decode(raw)
	if err != nil {
		return nil, model.NewKindedError(model.ErrParseError, err, "search: decode provider payload")
	}
	return results, nil
}

// retryAfterMessage parses the Retry-After header (seconds form; spec.md
// §4.3, §7) and returns both a human-readable message and the parsed delay,
// the latter carried structurally on the returned error so the retry loop
// can honour it rather than just logging it.
func retryAfterMessage(resp *http.Response) (string, time.Duration) {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			return fmt.Sprintf("search: rate limited, retry after %ds", secs), time.Duration(secs) * time.Second
		}
	}
	return "search: rate limited", 0
}
