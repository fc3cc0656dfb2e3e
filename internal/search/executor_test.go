package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/search"
)

func TestExecutor_ReplayDeterministic(t *testing.T) {
	rt := search.NewReplayTransportFromFixtures(map[string][]search.ReplayFixture{
		"github": {
			{Query: "Jane Doe", Results: []search.Result{{URL: "https://github.com/janedoe", Title: "janedoe", Position: 1}}},
		},
	})
	exec := search.NewExecutor(rt, map[string]search.ProviderConfig{"github": {QPS: 100, Burst: 10}}, search.DefaultRetryPolicy())

	q := model.Query{Text: "Jane Doe", Type: model.QueryNameOnly, VariantID: "name:exact"}
	r1, err := exec.Execute(context.Background(), "github", q, 5)
	require.NoError(t, err)
	r2, err := exec.Execute(context.Background(), "github", q, 5)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestExecutor_NotFoundFixtureReturnsError(t *testing.T) {
	rt := search.NewReplayTransportFromFixtures(map[string][]search.ReplayFixture{})
	exec := search.NewExecutor(rt, map[string]search.ProviderConfig{"github": {QPS: 100, Burst: 10}}, search.DefaultRetryPolicy())

	_, err := exec.Execute(context.Background(), "github", model.Query{Text: "nobody"}, 5)
	require.Error(t, err)
	assert.Equal(t, model.ErrNotFound, model.KindOf(err))
}

func TestExecutor_RateLimitFailFast(t *testing.T) {
	rt := search.NewReplayTransportFromFixtures(map[string][]search.ReplayFixture{
		"github": {{Query: "x", Results: []search.Result{{URL: "u"}}}},
	})
	exec := search.NewExecutor(rt, map[string]search.ProviderConfig{"github": {QPS: 100, Burst: 10}}, search.DefaultRetryPolicy())
	exec.RecordQuota("github", search.Quota{Remaining: 2, ResetAt: time.Now().Add(time.Hour)})

	_, err := exec.Execute(context.Background(), "github", model.Query{Text: "x"}, 5)
	require.Error(t, err)
	assert.Equal(t, model.ErrRateLimited, model.KindOf(err))
}

func TestExecutor_NonRetryableFailsImmediately(t *testing.T) {
	rt := search.NewReplayTransportFromFixtures(map[string][]search.ReplayFixture{
		"github": {{Query: "x", Error: "auth"}},
	})
	exec := search.NewExecutor(rt, map[string]search.ProviderConfig{"github": {QPS: 100, Burst: 10}}, search.DefaultRetryPolicy())

	_, err := exec.Execute(context.Background(), "github", model.Query{Text: "x"}, 5)
	require.Error(t, err)
	assert.Equal(t, model.ErrAuth, model.KindOf(err))
}
