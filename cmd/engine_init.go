package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/identity-resolver/internal/discovery"
	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/platforms"
	"github.com/sells-group/identity-resolver/internal/queue"
	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
	"github.com/sells-group/identity-resolver/internal/store"
)

// engineEnv holds every initialized client, the discovery runner, and the
// queue backend needed by the serve/worker/enrich commands, mirroring the
// teacher's pipelineEnv in cmd/pipeline_init.go.
type engineEnv struct {
	Store  store.Store
	Runner *discovery.Runner
	Queue  queue.Queue
	Bus    *queue.Bus
}

// Close releases resources held by the engine environment.
func (e *engineEnv) Close() {
	if e.Queue != nil {
		_ = e.Queue.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEngine wires together the store, search executor, every platform
// adapter, the discovery runner, and the configured queue backend.
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	transport, err := initTransport()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	executor := search.NewExecutor(transport, map[string]search.ProviderConfig{
		search.ProviderSerper: {QPS: cfg.Providers.Serper.QPS, Burst: cfg.Providers.Serper.Burst},
		search.ProviderBrave:  {QPS: cfg.Providers.Brave.QPS, Burst: cfg.Providers.Brave.Burst},
		search.ProviderGitHub: {QPS: cfg.Providers.GitHub.QPS, Burst: cfg.Providers.GitHub.Burst},
	}, search.DefaultRetryPolicy())

	githubFetcher := platforms.NewGitHubFetcher(cfg.Providers.GitHub.Token)
	githubFetcher.GatherCommitEvidence = cfg.Flags.CommitEvidence

	scoringConfig := scorer.Config{
		AutoMergeThreshold: cfg.Scoring.AutoMergeThreshold,
		SuggestThreshold:   cfg.Scoring.SuggestThreshold,
		LowThreshold:       cfg.Scoring.LowThreshold,
		MinConfidence:      cfg.Scoring.MinConfidence,
		Tier2Cap:           cfg.Scoring.Tier2Cap,
	}

	resultsPerQuery := 10
	adapters := []discovery.Adapter{
		platforms.NewNPM(executor, resultsPerQuery),
		platforms.NewPyPI(executor, resultsPerQuery),
		platforms.NewKaggle(executor, resultsPerQuery),
		platforms.NewORCID(executor, resultsPerQuery),
		platforms.NewDribbble(executor, resultsPerQuery),
		platforms.NewMedium(executor, resultsPerQuery),
		platforms.NewCrunchbase(executor, resultsPerQuery),
		platforms.NewScholar(executor, resultsPerQuery),
	}

	bus := queue.NewBus()

	defaultBudget := model.EnrichmentBudget{
		MaxTotalQueries:           cfg.Budget.MaxTotalQueries,
		MaxPlatforms:              cfg.Budget.MaxPlatforms,
		MaxIdentitiesPerPlatform:  cfg.Budget.MaxIdentitiesPerPlatform,
		OverallTimeout:            time.Duration(cfg.Budget.OverallTimeoutSecs) * time.Second,
		MaxParallelPlatforms:      cfg.Budget.MaxParallelPlatforms,
		MinConfidenceForEarlyStop: cfg.Budget.MinConfidenceForEarlyStop,
	}

	runner := &discovery.Runner{
		Store:               st,
		Executor:            executor,
		GeneralWebProviders: []string{search.ProviderSerper, search.ProviderBrave},
		GitHub:              githubFetcher,
		Adapters:            adapters,
		ScoringConfig:       scoringConfig,
		ResultsPerQuery:     resultsPerQuery,
		DefaultBudget:       defaultBudget,
		Progress: func(ev model.ProgressEvent) {
			bus.Publish(ev.SessionID, ev)
		},
	}

	env := &engineEnv{Store: st, Runner: runner, Bus: bus}

	q, err := initQueue(st, runner.Run, bus)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	env.Queue = q

	return env, nil
}

// initTransport builds the search.Transport backing the executor: replay
// fixtures when cfg.Replay.Enabled (spec.md §8's deterministic harness),
// otherwise the live HTTP transport against Serper/Brave/GitHub.
func initTransport() (search.Transport, error) {
	if cfg.Replay.Enabled {
		rt, err := search.LoadReplayTransport(cfg.Replay.FixtureDir)
		if err != nil {
			return nil, eris.Wrap(err, "init replay transport")
		}
		zap.L().Info("search: replay mode enabled", zap.String("fixture_dir", cfg.Replay.FixtureDir))
		return rt, nil
	}

	endpoints := map[string]search.ProviderEndpoint{
		search.ProviderSerper: {
			BaseURL: "https://google.serper.dev/search",
			APIKey:  cfg.Providers.Serper.Key,
			Decode:  search.DecodeSerper,
		},
		search.ProviderBrave: {
			BaseURL: "https://api.search.brave.com/res/v1/web/search",
			APIKey:  cfg.Providers.Brave.Key,
			Decode:  search.DecodeBrave,
		},
		search.ProviderGitHub: {
			BaseURL: "https://api.github.com/search/code",
			APIKey:  cfg.Providers.GitHub.Token,
			Decode:  search.DecodeGitHubCodeSearch,
		},
	}
	return search.NewHTTPTransport(endpoints, 15*time.Second), nil
}

// initQueue builds the configured C6 backend. run is the discovery runner's
// Run method; it is threaded through so both backends execute the exact
// same C5 state machine.
func initQueue(st store.Store, run queue.RunFunc, bus *queue.Bus) (queue.Queue, error) {
	switch cfg.Queue.Backend {
	case "local":
		return queue.NewLocalQueue(st, run, bus, cfg.Worker.Concurrency), nil
	case "temporal":
		tq, err := queue.NewTemporalQueue(cfg.Queue.HostPort, cfg.Queue.Namespace, cfg.Queue.TaskQueue)
		if err != nil {
			return nil, eris.Wrap(err, "init queue: temporal")
		}
		return tq, nil
	default:
		return nil, eris.Errorf("unsupported queue backend: %s", cfg.Queue.Backend)
	}
}
