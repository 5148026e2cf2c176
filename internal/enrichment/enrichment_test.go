package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

type mockApollo struct {
	mock.Mock
}

func (m *mockApollo) EnrichOrganization(ctx context.Context, domain string) (*apollo.Organization, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.Organization), args.Error(1)
}

func (m *mockApollo) SearchPeople(ctx context.Context, req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apollo.PeopleSearchResponse), args.Error(1)
}

func intPtr(n int) *int { return &n }

func TestEnrich_Success(t *testing.T) {
	ctx := context.Background()
	m := new(mockApollo)
	m.On("EnrichOrganization", ctx, "acme.se").Return(&apollo.Organization{
		ID:                    "org-1",
		EstimatedNumEmployees: intPtr(340),
		Industry:              "computer software",
		TechnologyNames:       []string{"AWS"},
		LatestFundingStage:    "Series B",
		FoundedYear:           intPtr(2016),
	}, nil).Once()

	enr := New(m).Enrich(ctx, " acme.se ")
	assert.False(t, enr.Failed())
	assert.Equal(t, "acme.se", enr.Domain)
	assert.Equal(t, "org-1", enr.OrganizationID)
	assert.Equal(t, intPtr(340), enr.EmployeeCount)
	assert.Equal(t, []string{"AWS"}, enr.Technologies)
	assert.NotNil(t, enr.Keywords)
	assert.Empty(t, enr.Keywords)
	assert.Nil(t, enr.Revenue)
	m.AssertExpectations(t)
}

func TestEnrich_ErrorMarker(t *testing.T) {
	ctx := context.Background()
	m := new(mockApollo)
	m.On("EnrichOrganization", ctx, "down.se").Return(nil, &apollo.APIError{StatusCode: 503, Body: "unavailable"}).Once()

	enr := New(m).Enrich(ctx, "down.se")
	require.True(t, enr.Failed())
	assert.Contains(t, enr.Error, "HTTP 503")
}

func TestEnrich_MissingKeyAndDomain(t *testing.T) {
	enr := New(nil).Enrich(context.Background(), "acme.se")
	assert.Equal(t, ErrMissingKey, enr.Error)

	m := new(mockApollo)
	enr = New(m).Enrich(context.Background(), "")
	assert.Equal(t, ErrMissingDomain, enr.Error)
	m.AssertNotCalled(t, "EnrichOrganization", mock.Anything, mock.Anything)
}

func TestMerge_FailedLeavesCompanyUnchanged(t *testing.T) {
	c := model.Company{Name: "Acme AB", Domain: "acme.se", EmployeeCount: "51-200", Industry: "IT"}

	got := Merge(c, model.Enrichment{Domain: "acme.se", Industry: "Software", Error: "apollo: HTTP 500"})
	assert.Equal(t, c, got)
}

func TestMerge_Success(t *testing.T) {
	rev := 1.5e7
	c := model.Company{Name: "Acme AB", Domain: "acme.se", EmployeeCount: "51-200", Industry: "IT"}
	enr := model.Enrichment{
		Domain:         "acme.se",
		OrganizationID: "org-1",
		EmployeeCount:  intPtr(340),
		Industry:       "computer software",
		Keywords:       []string{"ml"},
		Technologies:   []string{"AWS"},
		Revenue:        &rev,
	}

	got := Merge(c, enr)
	assert.True(t, got.Enriched)
	assert.Equal(t, "51-200", got.EmployeeCount)
	assert.Equal(t, intPtr(340), got.EmployeeEstimate)
	assert.Equal(t, "computer software", got.Industry)
	assert.Equal(t, []string{"AWS"}, got.Technologies)
	assert.Equal(t, &rev, got.Revenue)
	// Input is a value; the original is untouched.
	assert.False(t, c.Enriched)
}

func TestMerge_DomainKeyed(t *testing.T) {
	enr := model.Enrichment{Domain: "acme.se", OrganizationID: "org-1"}

	noDomain := model.Company{Name: "No Site AB"}
	assert.Equal(t, noDomain, Merge(noDomain, enr))

	other := model.Company{Name: "Other AB", Domain: "other.se"}
	assert.Equal(t, other, Merge(other, enr))
}

func TestMerge_KeepsIndustryWhenEnrichmentBlank(t *testing.T) {
	c := model.Company{Name: "Acme AB", Domain: "acme.se", Industry: "IT"}
	got := Merge(c, model.Enrichment{Domain: "acme.se", Keywords: []string{}, Technologies: []string{}})
	assert.True(t, got.Enriched)
	assert.Equal(t, "IT", got.Industry)
}
