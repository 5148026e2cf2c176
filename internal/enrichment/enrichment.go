// Package enrichment overlays firmographic data from Apollo onto discovered
// companies.
package enrichment

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// Error markers set on a failed Enrichment.
const (
	ErrMissingKey    = "missing Apollo API key"
	ErrMissingDomain = "missing domain"
)

// Enricher looks up organizations by domain.
type Enricher struct {
	client apollo.Client
}

// New returns an Enricher. A nil client means no API key was configured and
// every lookup fails with ErrMissingKey.
func New(client apollo.Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich fetches the organization for domain. Failures are reported in the
// returned record's Error field, never as a Go error.
func (e *Enricher) Enrich(ctx context.Context, domain string) model.Enrichment {
	domain = strings.TrimSpace(domain)
	out := model.Enrichment{Domain: domain, Keywords: []string{}, Technologies: []string{}}

	switch {
	case e.client == nil:
		out.Error = ErrMissingKey
		return out
	case domain == "":
		out.Error = ErrMissingDomain
		return out
	}

	org, err := e.client.EnrichOrganization(ctx, domain)
	if err != nil {
		zap.L().Warn("enrichment failed", zap.String("domain", domain), zap.Error(err))
		out.Error = err.Error()
		return out
	}

	out.OrganizationID = org.ID
	out.EmployeeCount = org.EstimatedNumEmployees
	out.Industry = org.Industry
	if org.Keywords != nil {
		out.Keywords = org.Keywords
	}
	if org.TechnologyNames != nil {
		out.Technologies = org.TechnologyNames
	}
	out.FundingStage = org.LatestFundingStage
	out.Revenue = org.AnnualRevenue
	out.FundingTotal = org.TotalFunding
	out.Phone = org.Phone
	out.FoundedYear = org.FoundedYear
	return out
}

// Merge overlays enr onto c. A failed enrichment leaves c untouched; there is
// no partial merge. A domain mismatch is treated as a failure.
func Merge(c model.Company, enr model.Enrichment) model.Company {
	if enr.Failed() || !c.HasDomain() || enr.Domain != c.Domain {
		return c
	}

	c.Enriched = true
	c.OrganizationID = enr.OrganizationID
	c.EmployeeEstimate = enr.EmployeeCount
	if enr.Industry != "" {
		c.Industry = enr.Industry
	}
	c.Keywords = enr.Keywords
	c.Technologies = enr.Technologies
	c.FundingStage = enr.FundingStage
	c.Revenue = enr.Revenue
	c.FundingTotal = enr.FundingTotal
	c.Phone = enr.Phone
	c.FoundedYear = enr.FoundedYear
	return c
}
