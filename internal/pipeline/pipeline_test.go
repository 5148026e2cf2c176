package pipeline

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/sink"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/internal/strategy"
)

// --- fakes ---

type fakeDiscoverer struct {
	companies []model.Company
	err       error
	gotLimit  int
}

func (f *fakeDiscoverer) Discover(_ context.Context, _ string, _ []string, limit int) ([]model.Company, error) {
	f.gotLimit = limit
	out := make([]model.Company, len(f.companies))
	copy(out, f.companies)
	return out, f.err
}

type fakeEnricher struct {
	calls   []string
	results map[string]model.Enrichment
}

func (f *fakeEnricher) Enrich(_ context.Context, domain string) model.Enrichment {
	f.calls = append(f.calls, domain)
	if enr, ok := f.results[domain]; ok {
		return enr
	}
	return model.Enrichment{Domain: domain, Error: "apollo: no organization for " + domain}
}

type fakeContacts struct {
	gotDomains []string
	gotMax     int
	result     map[string][]model.Contact
}

func (f *fakeContacts) FindContacts(_ context.Context, domains []string, maxPerCompany int) (map[string][]model.Contact, error) {
	f.gotDomains = domains
	f.gotMax = maxPerCompany
	out := make(map[string][]model.Contact, len(domains))
	for _, d := range domains {
		cs := f.result[d]
		if cs == nil {
			cs = []model.Contact{}
		}
		out[d] = cs
	}
	return out, nil
}

type fakeModel struct {
	mu      sync.Mutex
	prompts []string
	failFor string
}

func (f *fakeModel) Complete(_ context.Context, _ string, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.failFor != "" && strings.Contains(prompt, "Name: "+f.failFor) {
		return "", eris.New("gemini: HTTP 503: overloaded")
	}
	return "Reach out about GPU capacity.", nil
}

func (f *fakeModel) Name() string { return "fake" }

type recordingSink struct {
	mu   sync.Mutex
	recs []model.OutputRecord
	err  error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Write(_ context.Context, rec model.OutputRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return r.err
}

type failingAppendStore struct {
	store.Store
}

func (f failingAppendStore) AppendRecord(context.Context, model.OutputRecord) error {
	return eris.New("disk full")
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func builderFor(stages *Stages) StageBuilder {
	return func(context.Context, config.Profile) (*Stages, error) {
		return stages, nil
	}
}

func twoCompanies() []model.Company {
	return []model.Company{
		{Name: "Alpha AI AB", Domain: "a.se", EmployeeCount: "11-50", Description: "We build PyTorch models on aws"},
		{Name: "Beta Labs", EmployeeCount: model.UnknownEmployeeCount},
	}
}

// --- tests ---

func TestRun_EndToEndScenario(t *testing.T) {
	st := newTestStore(t)
	disc := &fakeDiscoverer{companies: twoCompanies()}
	enr := &fakeEnricher{}
	cf := &fakeContacts{}
	fm := &fakeModel{}

	prof, err := config.ParseProfile([]byte(`{
		"searchQuery": "ai",
		"locations": ["Sweden"],
		"maxCompanies": 2,
		"numTargets": 1,
		"enableApolloEnrichment": false,
		"enableContactFinding": false,
		"geminiApiKey": "k"
	}`))
	require.NoError(t, err)

	p := New(st, nil, builderFor(&Stages{
		Discoverer: disc,
		Enricher:   enr,
		Contacts:   cf,
		Strategy:   strategy.NewGenerator(fm),
	}))

	res, err := p.Run(context.Background(), prof)
	require.NoError(t, err)
	require.Empty(t, res.Error)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, disc.gotLimit)

	for i, rec := range res.Records {
		assert.Equal(t, i, rec.Index)
		assert.True(t, rec.Company.Category.Valid(), "record %d category", i)
		assert.NotNil(t, rec.Contacts)
		assert.Empty(t, rec.Contacts)
		assert.False(t, rec.Company.Enriched)
		assert.False(t, rec.StrategyFailed())
		assert.Equal(t, res.RunID, rec.RunID)
	}
	assert.Equal(t, "Alpha AI AB", res.Records[0].Company.Name)
	assert.Equal(t, "Beta Labs", res.Records[1].Company.Name)
	assert.Contains(t, res.Records[0].TechSignal.LikelyStack, "PyTorch")
	assert.Contains(t, res.Records[0].TechSignal.DataInfrastructure, "AWS")

	// Disabled steps never call their collaborators.
	assert.Empty(t, enr.calls)
	assert.Nil(t, cf.gotDomains)

	s := res.Summary
	require.NotNil(t, s)
	assert.Equal(t, 2, s.CompaniesDiscovered)
	assert.Equal(t, 2, s.CompaniesProcessed)
	assert.Equal(t, 0, s.CompaniesEnriched)
	assert.Equal(t, 2, s.Classification[model.CategoryStartupSmall])
	assert.Len(t, s.Classification, 3)

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 2, run.Summary.CompaniesProcessed)

	stored, err := st.ListRecords(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRun_ZeroCompanies(t *testing.T) {
	st := newTestStore(t)
	fm := &fakeModel{}
	rs := &recordingSink{}

	p := New(st, rs, builderFor(&Stages{
		Discoverer: &fakeDiscoverer{},
		Strategy:   strategy.NewGenerator(fm),
	}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "k"
	res, err := p.Run(context.Background(), prof)
	require.NoError(t, err)

	assert.Equal(t, model.RunResult{Error: ErrNoCompanies}, *res)
	assert.Empty(t, fm.prompts)
	assert.Empty(t, rs.recs)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Equal(t, ErrNoCompanies, runs[0].Error)
}

func TestRun_EnrichmentLimitedToTargetsContactsForAll(t *testing.T) {
	st := newTestStore(t)
	companies := []model.Company{
		{Name: "First AB", Domain: "first.se", EmployeeCount: "2-10"},
		{Name: "Second AB", Domain: "second.se", EmployeeCount: "2-10"},
	}
	employees := 250
	enr := &fakeEnricher{results: map[string]model.Enrichment{
		"first.se":  {Domain: "first.se", EmployeeCount: &employees, Industry: "Software", Keywords: []string{}, Technologies: []string{"Kubernetes"}},
		"second.se": {Domain: "second.se", EmployeeCount: &employees, Keywords: []string{}, Technologies: []string{}},
	}}
	cf := &fakeContacts{result: map[string][]model.Contact{
		"first.se":  {{Name: "Ada Berg", Title: "CTO"}},
		"second.se": {{Name: "Bo Ek", Title: "CEO"}, {Name: "Cy Lund", Title: "VP Engineering"}},
	}}
	fm := &fakeModel{}

	p := New(st, nil, builderFor(&Stages{
		Discoverer: &fakeDiscoverer{companies: companies},
		Enricher:   enr,
		Contacts:   cf,
		Strategy:   strategy.NewGenerator(fm),
	}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "k"
	prof.ApolloAPIKey = "apollo"
	prof.NumTargets = 1

	res, err := p.Run(context.Background(), prof)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	// Only the first company is enriched.
	assert.Equal(t, []string{"first.se"}, enr.calls)
	assert.True(t, res.Records[0].Company.Enriched)
	assert.Equal(t, model.CategoryEstablishedBig, res.Records[0].Company.Category)
	assert.Equal(t, "Software", res.Records[0].Company.Industry)
	assert.False(t, res.Records[1].Company.Enriched)
	assert.Equal(t, model.CategoryStartupSmall, res.Records[1].Company.Category)

	// Both get contacts and a strategy.
	assert.Equal(t, []string{"first.se", "second.se"}, cf.gotDomains)
	assert.Equal(t, 3, cf.gotMax)
	assert.Len(t, res.Records[0].Contacts, 1)
	assert.Len(t, res.Records[1].Contacts, 2)
	assert.Len(t, fm.prompts, 2)

	assert.Equal(t, 1, res.Summary.CompaniesEnriched)
	assert.Equal(t, 3, res.Summary.ContactsFound)
	assert.Equal(t, map[string]int{"first.se": 1, "second.se": 2}, res.Summary.ContactsByDomain)
}

func TestRun_EnrichmentFailureLeavesCompanyUnchanged(t *testing.T) {
	st := newTestStore(t)
	companies := []model.Company{{Name: "Gamma AB", Domain: "gamma.se", EmployeeCount: "51-200", Industry: "Robotics"}}

	p := New(st, nil, builderFor(&Stages{
		Discoverer: &fakeDiscoverer{companies: companies},
		Enricher:   &fakeEnricher{},
		Strategy:   strategy.NewGenerator(&fakeModel{}),
	}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "k"
	prof.EnableContactFinding = false

	res, err := p.Run(context.Background(), prof)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	got := res.Records[0].Company
	assert.False(t, got.Enriched)
	assert.Equal(t, "Robotics", got.Industry)
	assert.Equal(t, "51-200", got.EmployeeCount)
	assert.Nil(t, got.EmployeeEstimate)
	assert.Equal(t, 0, res.Summary.CompaniesEnriched)
}

func TestRun_StrategyFailureIsRecorded(t *testing.T) {
	st := newTestStore(t)
	fm := &fakeModel{failFor: "Beta Labs"}

	p := New(st, nil, builderFor(&Stages{
		Discoverer: &fakeDiscoverer{companies: twoCompanies()},
		Strategy:   strategy.NewGenerator(fm),
	}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "k"

	res, err := p.Run(context.Background(), prof)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	assert.False(t, res.Records[0].StrategyFailed())
	assert.True(t, res.Records[1].StrategyFailed())
	assert.Equal(t, strategy.ErrorPrefix+res.Records[1].StrategyError, res.Records[1].Strategy)
	assert.Equal(t, 1, res.Summary.StrategiesFailed)
}

func TestRun_SinkErrorsDoNotAbort(t *testing.T) {
	st := newTestStore(t)
	rs := &recordingSink{err: eris.New("notion: unauthorized")}

	p := New(st, sink.Multi{rs}, builderFor(&Stages{
		Discoverer: &fakeDiscoverer{companies: twoCompanies()},
		Strategy:   strategy.NewGenerator(&fakeModel{}),
	}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "k"

	res, err := p.Run(context.Background(), prof)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Len(t, rs.recs, 2)
}

func TestRun_AppendFailureFailsRun(t *testing.T) {
	base := newTestStore(t)
	st := failingAppendStore{Store: base}

	p := New(st, nil, builderFor(&Stages{
		Discoverer: &fakeDiscoverer{companies: twoCompanies()},
		Strategy:   strategy.NewGenerator(&fakeModel{}),
	}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "k"

	_, err := p.Run(context.Background(), prof)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	runs, err := base.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
}

func TestRun_BuildErrorCreatesNoRun(t *testing.T) {
	st := newTestStore(t)
	p := New(st, nil, func(context.Context, config.Profile) (*Stages, error) {
		return nil, config.ErrMissingGenerationKey
	})

	_, err := p.Run(context.Background(), config.DefaultProfile())
	require.Error(t, err)
	assert.True(t, eris.Is(err, config.ErrMissingGenerationKey))

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRun_Cancelled(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(st, nil, builderFor(&Stages{
		Discoverer: &fakeDiscoverer{err: context.Canceled},
		Strategy:   strategy.NewGenerator(&fakeModel{}),
	}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "k"
	_, err := p.Run(context.Background(), prof)
	require.Error(t, err)

	_, err = p.Run(ctx, prof)
	require.Error(t, err)
}

func TestStart_RedactsKeys(t *testing.T) {
	st := newTestStore(t)
	p := New(st, nil, builderFor(&Stages{}))

	prof := config.DefaultProfile()
	prof.GeminiAPIKey = "AIzaSySecretValue"

	run, err := p.Start(context.Background(), prof)
	require.NoError(t, err)

	var stored config.Profile
	require.NoError(t, json.Unmarshal(run.Profile, &stored))
	assert.NotEqual(t, prof.GeminiAPIKey, stored.GeminiAPIKey)
	assert.Equal(t, prof.SearchQuery, stored.SearchQuery)
}

func TestUniqueDomains(t *testing.T) {
	got := uniqueDomains([]model.Company{
		{Domain: "a.se"}, {}, {Domain: "b.se"}, {Domain: "a.se"},
	})
	assert.Equal(t, []string{"a.se", "b.se"}, got)
	assert.Nil(t, uniqueDomains([]model.Company{{Name: "x"}}))
}

func TestContactsFor(t *testing.T) {
	m := map[string][]model.Contact{"a.se": {{Name: "Ann"}}}

	assert.Len(t, contactsFor(m, model.Company{Domain: "a.se"}), 1)
	assert.NotNil(t, contactsFor(m, model.Company{Domain: "b.se"}))
	assert.Empty(t, contactsFor(m, model.Company{Domain: "b.se"}))
	none := contactsFor(map[string][]model.Contact{"": {{Name: "Ghost"}}}, model.Company{})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
