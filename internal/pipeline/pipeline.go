// Package pipeline runs the lead-generation flow for one search profile:
// discover, enrich, classify, find contacts, extract tech signals, and
// generate an outreach strategy per company.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/classify"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/enrichment"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/sink"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/internal/strategy"
	"github.com/sells-group/leadgen-cli/internal/techsignal"
)

// ErrNoCompanies is the run error when discovery yields nothing.
const ErrNoCompanies = "No companies found"

// Discoverer finds companies for a query across locations.
type Discoverer interface {
	Discover(ctx context.Context, query string, locations []string, limit int) ([]model.Company, error)
}

// Enricher fetches firmographics for one domain.
type Enricher interface {
	Enrich(ctx context.Context, domain string) model.Enrichment
}

// ContactFinder looks up decision makers per domain.
type ContactFinder interface {
	FindContacts(ctx context.Context, domains []string, maxPerCompany int) (map[string][]model.Contact, error)
}

// StrategyGenerator produces one strategy per company.
type StrategyGenerator interface {
	Generate(ctx context.Context, in strategy.Input) strategy.Result
}

// Stages are the collaborators for one run. Enricher and Contacts are nil
// when no Apollo key is available, which disables those steps.
type Stages struct {
	Discoverer Discoverer
	Enricher   Enricher
	Contacts   ContactFinder
	Strategy   StrategyGenerator
}

// StageBuilder constructs Stages for a profile. It fails when a credential the
// run cannot do without is missing.
type StageBuilder func(ctx context.Context, p config.Profile) (*Stages, error)

// Pipeline orchestrates runs and records their output.
type Pipeline struct {
	store store.Store
	sinks sink.Sink
	build StageBuilder
}

// New creates a Pipeline. sinks may be nil.
func New(st store.Store, sinks sink.Sink, build StageBuilder) *Pipeline {
	return &Pipeline{store: st, sinks: sinks, build: build}
}

// Prepare builds the stages for p without touching the store.
func (p *Pipeline) Prepare(ctx context.Context, prof config.Profile) (*Stages, error) {
	stages, err := p.build(ctx, prof)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build stages")
	}
	return stages, nil
}

// Start persists a new run for prof. API keys are redacted before storage.
func (p *Pipeline) Start(ctx context.Context, prof config.Profile) (*model.Run, error) {
	profJSON, err := json.Marshal(prof.Redacted())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal profile")
	}
	run, err := p.store.CreateRun(ctx, profJSON)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	return run, nil
}

// Run prepares, starts, and executes a run. A missing generation credential
// fails before any run is created.
func (p *Pipeline) Run(ctx context.Context, prof config.Profile) (*model.RunResult, error) {
	stages, err := p.Prepare(ctx, prof)
	if err != nil {
		return nil, err
	}
	run, err := p.Start(ctx, prof)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, run.ID, prof, stages)
}

// Execute runs the stages for an already created run. Per-company failures
// are carried in the records; only cancellation and store failures abort.
func (p *Pipeline) Execute(ctx context.Context, runID string, prof config.Profile, stages *Stages) (*model.RunResult, error) {
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: starting run",
		zap.String("query", prof.SearchQuery),
		zap.Strings("locations", prof.Locations),
	)

	summary := model.NewSummary()
	summary.StartedAt = time.Now().UTC()

	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) error {
		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		switch {
		case fnErr != nil:
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		case phaseResult.Status == model.PhaseStatusSkipped:
			log.Info("pipeline: phase skipped", zap.String("phase", name))
		default:
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}
		summary.Phases = append(summary.Phases, *phaseResult)
		return fnErr
	}

	fail := func(msg string, cause error) (*model.RunResult, error) {
		if err := p.store.FailRun(context.WithoutCancel(ctx), runID, msg); err != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(err))
		}
		return nil, cause
	}

	// Phase 1: discovery
	var companies []model.Company
	err := trackPhase("1_discover", func() (*model.PhaseResult, error) {
		found, err := stages.Discoverer.Discover(ctx, prof.SearchQuery, prof.Locations, prof.MaxCompanies)
		if err != nil {
			return nil, err
		}
		companies = found
		return &model.PhaseResult{Metadata: map[string]any{"companies": len(found)}}, nil
	})
	if err != nil {
		return fail(err.Error(), eris.Wrap(err, "pipeline: discover"))
	}
	summary.CompaniesDiscovered = len(companies)
	if len(companies) == 0 {
		log.Warn("pipeline: discovery returned no companies")
		if err := p.store.FailRun(ctx, runID, ErrNoCompanies); err != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(err))
		}
		return &model.RunResult{Error: ErrNoCompanies}, nil
	}

	// Phase 2: enrichment of the first numTargets companies only. Companies
	// past that point still get contacts and a strategy.
	err = trackPhase("2_enrich", func() (*model.PhaseResult, error) {
		if !prof.EnableApolloEnrichment || stages.Enricher == nil {
			return &model.PhaseResult{Status: model.PhaseStatusSkipped}, nil
		}
		targets := min(prof.NumTargets, len(companies))
		failed := 0
		for i := 0; i < targets; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			enr := stages.Enricher.Enrich(ctx, companies[i].Domain)
			if enr.Failed() {
				failed++
				log.Warn("pipeline: enrichment failed",
					zap.String("company", companies[i].Name),
					zap.String("reason", enr.Error),
				)
				continue
			}
			companies[i] = enrichment.Merge(companies[i], enr)
			if companies[i].Enriched {
				summary.CompaniesEnriched++
			}
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"targets":  targets,
			"enriched": summary.CompaniesEnriched,
			"failed":   failed,
		}}, nil
	})
	if err != nil {
		return fail(err.Error(), eris.Wrap(err, "pipeline: enrich"))
	}

	// Phase 3: classification
	_ = trackPhase("3_classify", func() (*model.PhaseResult, error) {
		for i := range companies {
			companies[i].Category = classify.Classify(companies[i])
			summary.Classification[companies[i].Category]++
		}
		return nil, nil
	})

	// Phase 4: contacts for every company with a domain
	contactMap := map[string][]model.Contact{}
	err = trackPhase("4_contacts", func() (*model.PhaseResult, error) {
		if !prof.EnableContactFinding || stages.Contacts == nil {
			return &model.PhaseResult{Status: model.PhaseStatusSkipped}, nil
		}
		found, err := stages.Contacts.FindContacts(ctx, uniqueDomains(companies), prof.MaxContactsPerCompany)
		if err != nil {
			return nil, err
		}
		contactMap = found
		summary.ContactsByDomain = make(map[string]int, len(found))
		for domain, cs := range found {
			summary.ContactsByDomain[domain] = len(cs)
			summary.ContactsFound += len(cs)
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"domains":  len(found),
			"contacts": summary.ContactsFound,
		}}, nil
	})
	if err != nil {
		return fail(err.Error(), eris.Wrap(err, "pipeline: find contacts"))
	}

	// Phase 5: tech signal and strategy per company, in discovery order
	records := make([]model.OutputRecord, 0, len(companies))
	err = trackPhase("5_strategy", func() (*model.PhaseResult, error) {
		for i, c := range companies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, err := p.process(ctx, runID, i, c, contactsFor(contactMap, c), stages.Strategy)
			if err != nil {
				return nil, err
			}
			if rec.StrategyFailed() {
				summary.StrategiesFailed++
			}
			records = append(records, rec)
			summary.CompaniesProcessed++
			log.Info("pipeline: company processed",
				zap.Int("index", i),
				zap.String("company", c.Name),
				zap.String("category", string(rec.Company.Category)),
				zap.Int("contacts", len(rec.Contacts)),
				zap.Bool("strategy_failed", rec.StrategyFailed()),
			)
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"processed":         len(records),
			"strategies_failed": summary.StrategiesFailed,
		}}, nil
	})
	if err != nil {
		return fail(err.Error(), eris.Wrap(err, "pipeline: generate strategies"))
	}

	summary.FinishedAt = time.Now().UTC()
	if err := p.store.CompleteRun(ctx, runID, summary); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete run")
	}

	log.Info("pipeline: run complete",
		zap.Int("discovered", summary.CompaniesDiscovered),
		zap.Int("enriched", summary.CompaniesEnriched),
		zap.Int("processed", summary.CompaniesProcessed),
		zap.Int("contacts", summary.ContactsFound),
		zap.Int("strategies_failed", summary.StrategiesFailed),
	)

	return &model.RunResult{RunID: runID, Summary: summary, Records: records}, nil
}

// process builds, persists, and publishes the record for one company. Only a
// store failure is returned; sink failures are logged.
func (p *Pipeline) process(ctx context.Context, runID string, idx int, c model.Company, contacts []model.Contact, gen StrategyGenerator) (model.OutputRecord, error) {
	sig := techsignal.ForCompany(c)
	res := gen.Generate(ctx, strategy.Input{Company: c, Contacts: contacts, Signal: sig})

	rec := model.OutputRecord{
		RunID:         runID,
		Index:         idx,
		Company:       c,
		Contacts:      contacts,
		TechSignal:    sig,
		Strategy:      res.Text,
		StrategyError: res.Err,
		GeneratedAt:   time.Now().UTC(),
	}

	if err := p.store.AppendRecord(ctx, rec); err != nil {
		return rec, eris.Wrapf(err, "pipeline: append record %d", idx)
	}
	if p.sinks != nil {
		if err := p.sinks.Write(ctx, rec); err != nil {
			zap.L().Warn("pipeline: sink write failed",
				zap.String("run_id", runID),
				zap.String("company", c.Name),
				zap.Error(err),
			)
		}
	}
	return rec, nil
}

// uniqueDomains lists non-empty domains in discovery order, once each.
func uniqueDomains(companies []model.Company) []string {
	seen := make(map[string]bool, len(companies))
	var out []string
	for _, c := range companies {
		if !c.HasDomain() || seen[c.Domain] {
			continue
		}
		seen[c.Domain] = true
		out = append(out, c.Domain)
	}
	return out
}

// contactsFor joins contacts on domain. Domain-less companies never match.
func contactsFor(m map[string][]model.Contact, c model.Company) []model.Contact {
	if !c.HasDomain() {
		return []model.Contact{}
	}
	cs := m[c.Domain]
	out := make([]model.Contact, len(cs))
	copy(out, cs)
	return out
}
