package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/contacts"
	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/enrichment"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/sink"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/internal/strategy"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/apify"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/gemini"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// pipelineEnv holds the store, sinks, and pipeline needed by the run and
// serve commands.
type pipelineEnv struct {
	Store    store.Store
	Sinks    sink.Multi
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if err := pe.Sinks.Close(); err != nil {
		zap.L().Warn("close sinks", zap.Error(err))
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline opens the store, builds the configured sinks, and wires the
// Pipeline. jsonlPath overrides output.jsonl_path when non-empty. Callers
// should defer env.Close().
func initPipeline(ctx context.Context, jsonlPath string) (*pipelineEnv, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	if jsonlPath == "" {
		jsonlPath = cfg.Output.JSONLPath
	}
	sinks, err := initSinks(jsonlPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		Sinks:    sinks,
		Pipeline: pipeline.New(st, sinks, newStageBuilder(cfg)),
	}, nil
}

// initSinks builds every sink that has configuration.
func initSinks(jsonlPath string) (sink.Multi, error) {
	var sinks sink.Multi

	if jsonlPath != "" {
		js, err := sink.NewJSONL(jsonlPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, js)
	}

	if cfg.Notion.Token != "" && cfg.Notion.LeadDB != "" {
		nc := notion.NewClient(cfg.Notion.Token, cfg.Notion.LeadDB,
			notion.WithRateLimit(cfg.Notion.RateLimitRPS),
		)
		sinks = append(sinks, sink.NewNotion(nc))
	}

	if cfg.Salesforce.ClientID != "" {
		sfClient, err := initSalesforce()
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, sink.NewSalesforce(sfClient, cfg.Salesforce.LeadSource))
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	zap.L().Info("sinks configured", zap.Strings("sinks", names))
	return sinks, nil
}

// newStageBuilder returns a StageBuilder that creates vendor clients from the
// application config and the run profile's keys.
func newStageBuilder(c *config.Config) pipeline.StageBuilder {
	return func(ctx context.Context, prof config.Profile) (*pipeline.Stages, error) {
		if err := prof.Validate(c.Strategy.Provider, c.Anthropic.Key); err != nil {
			return nil, err
		}
		if c.Apify.Key == "" {
			return nil, eris.New("apify key is required (LEADGEN_APIFY_KEY)")
		}

		apifyClient := apify.NewClient(c.Apify.Key, apify.WithBaseURL(c.Apify.BaseURL))
		stages := &pipeline.Stages{
			Discoverer: discovery.New(apifyClient, c.Apify.ActorID, discovery.WithSync(c.Apify.Sync)),
		}

		if prof.ApolloAPIKey != "" {
			apolloClient := apollo.NewClient(prof.ApolloAPIKey,
				apollo.WithBaseURL(c.Apollo.BaseURL),
				apollo.WithRateLimit(c.Apollo.RateLimitRPS),
			)
			stages.Enricher = enrichment.New(apolloClient)
			stages.Contacts = contacts.New(apolloClient,
				contacts.WithDelay(time.Duration(c.Contacts.DelayMS)*time.Millisecond),
			)
		} else {
			zap.L().Warn("no Apollo key; enrichment and contact finding disabled")
		}

		m, err := newStrategyModel(ctx, c, prof)
		if err != nil {
			return nil, err
		}
		stages.Strategy = strategy.NewGenerator(m)
		return stages, nil
	}
}

// newStrategyModel selects the generation backend from strategy.provider.
func newStrategyModel(ctx context.Context, c *config.Config, prof config.Profile) (strategy.Model, error) {
	switch c.Strategy.Provider {
	case config.ProviderAnthropic:
		return &strategy.AnthropicModel{
			Client:    anthropicpkg.NewClient(c.Anthropic.Key),
			Model:     c.Anthropic.Model,
			MaxTokens: c.Anthropic.MaxTokens,
		}, nil
	case "", config.ProviderGemini:
		gc, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  prof.GeminiAPIKey,
			Model:   c.Gemini.Model,
			BaseURL: c.Gemini.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		model := c.Gemini.Model
		if model == "" {
			model = gemini.DefaultModel
		}
		return &strategy.GeminiModel{Client: gc, Model: model}, nil
	default:
		return nil, eris.Errorf("unsupported strategy provider %q", c.Strategy.Provider)
	}
}
