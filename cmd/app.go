package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-pipeline/internal/enrich"
	"github.com/sells-group/insight-pipeline/internal/pipeline"
	"github.com/sells-group/insight-pipeline/internal/store"
	"github.com/sells-group/insight-pipeline/internal/synth"
	"github.com/sells-group/insight-pipeline/pkg/anthropic"
)

// appEnv holds the wired collaborators for a serve run.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Service
}

func (e *appEnv) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "insights.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initPipeline(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate("serve"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "ping store")
	}

	ai := anthropic.NewClient(cfg.Anthropic.Key,
		anthropic.WithTimeout(time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second),
		anthropic.WithRateLimit(cfg.Anthropic.RPS),
	)

	svc := pipeline.New(
		st,
		enrich.NewInsightEnricher(ai, st, cfg.Anthropic.EnrichModel),
		enrich.NewResponseEnricher(ai, enrich.NewResolver(st), cfg.Anthropic.EnrichModel),
		synth.New(ai, st, cfg.Anthropic.SynthModel),
		pipeline.Options{
			BatchThreshold: cfg.Pipeline.BatchThreshold,
			AutoApprove:    cfg.Pipeline.AutoApprove,
		},
	)

	return &appEnv{Store: st, Pipeline: svc}, nil
}
