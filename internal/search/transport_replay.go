package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/identity-resolver/internal/model"
)

// ReplayFixture is one query's deterministic canned result, keyed by the
// query text with case and surrounding whitespace ignored (spec.md §4.3's
// replay mode).
type ReplayFixture struct {
	Query   string   `yaml:"query"`
	Results []Result `yaml:"results"`
	Error   string   `yaml:"error,omitempty"`
}

// ReplayFixtureFile is the on-disk shape of one provider's fixture pack.
type ReplayFixtureFile struct {
	Provider string          `yaml:"provider"`
	Fixtures []ReplayFixture `yaml:"fixtures"`
}

// ReplayTransport intercepts Execute calls and returns deterministic
// fixture results keyed by query string, recording every query it was
// asked for so the evaluation harness can assert on issued queries.
type ReplayTransport struct {
	mu        sync.Mutex
	fixtures  map[string]map[string]ReplayFixture // provider -> folded query text -> fixture
	issued    []model.Query
}

// LoadReplayTransport reads every *.yaml fixture file in dir and builds a
// ReplayTransport from them.
func LoadReplayTransport(dir string) (*ReplayTransport, error) {
	rt := &ReplayTransport{fixtures: make(map[string]map[string]ReplayFixture)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "search: read fixture dir %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, eris.Wrapf(err, "search: read fixture file %s", e.Name())
		}
		var file ReplayFixtureFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, eris.Wrapf(err, "search: parse fixture file %s", e.Name())
		}
		byQuery := rt.fixtures[file.Provider]
		if byQuery == nil {
			byQuery = make(map[string]ReplayFixture)
		}
		for _, f := range file.Fixtures {
			byQuery[foldQuery(f.Query)] = f
		}
		rt.fixtures[file.Provider] = byQuery
	}
	return rt, nil
}

// NewReplayTransportFromFixtures builds a ReplayTransport directly from an
// in-memory fixture set (used by unit tests that don't want testdata files).
func NewReplayTransportFromFixtures(byProvider map[string][]ReplayFixture) *ReplayTransport {
	rt := &ReplayTransport{fixtures: make(map[string]map[string]ReplayFixture)}
	for provider, fixtures := range byProvider {
		byQuery := make(map[string]ReplayFixture, len(fixtures))
		for _, f := range fixtures {
			byQuery[foldQuery(f.Query)] = f
		}
		rt.fixtures[provider] = byQuery
	}
	return rt
}

// Search implements Transport by returning the canned fixture whose query
// text matches, ignoring case and surrounding whitespace, or a not_found
// error if no fixture matches.
func (rt *ReplayTransport) Search(_ context.Context, provider string, query model.Query, limit int) ([]Result, error) {
	rt.mu.Lock()
	rt.issued = append(rt.issued, query)
	rt.mu.Unlock()

	byQuery := rt.fixtures[provider]
	if byQuery == nil {
		return nil, model.NewKindedError(model.ErrNotFound, nil, fmt.Sprintf("search: no fixtures for provider %q", provider))
	}
	fixture, ok := byQuery[foldQuery(query.Text)]
	if !ok {
		return nil, model.NewKindedError(model.ErrNotFound, nil, fmt.Sprintf("search: no fixture for query %q", query.Text))
	}
	if fixture.Error != "" {
		return nil, model.NewKindedError(model.ErrorKind(fixture.Error), nil, "search: replay fixture error")
	}
	results := fixture.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// IssuedQueries returns every query this transport was asked to search, in
// issue order, for offline evaluation traces (spec.md §4.3).
func (rt *ReplayTransport) IssuedQueries() []model.Query {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]model.Query, len(rt.issued))
	copy(out, rt.issued)
	return out
}

func foldQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
