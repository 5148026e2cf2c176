package sink

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/classify"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// Salesforce upserts each record as a Lead keyed by website. The first
// contact, when present, becomes the Lead's person.
type Salesforce struct {
	client     salesforce.Client
	leadSource string
}

// NewSalesforce returns a sink tagging Leads with leadSource.
func NewSalesforce(client salesforce.Client, leadSource string) *Salesforce {
	return &Salesforce{client: client, leadSource: leadSource}
}

func (s *Salesforce) Name() string { return "salesforce" }

func (s *Salesforce) Write(ctx context.Context, rec model.OutputRecord) error {
	id, err := salesforce.UpsertLead(ctx, s.client, s.lead(rec))
	if err != nil {
		return eris.Wrap(err, "salesforce sink: upsert")
	}
	zap.L().Debug("salesforce sink: lead written",
		zap.String("company", rec.Company.Name),
		zap.String("lead_id", id),
	)
	return nil
}

func (s *Salesforce) lead(rec model.OutputRecord) salesforce.Lead {
	c := rec.Company
	l := salesforce.Lead{
		Company:           c.Name,
		Website:           c.Domain,
		Industry:          c.Industry,
		Phone:             c.Phone,
		NumberOfEmployees: employeeCount(c),
		LeadSource:        s.leadSource,
		Description:       leadDescription(rec),
	}
	if len(rec.Contacts) > 0 {
		ct := rec.Contacts[0]
		l.FirstName, l.LastName = splitName(ct.Name)
		l.Title = ct.Title
		l.Email = ct.Email
	}
	return l
}

// employeeCount prefers the enrichment estimate, then the discovered range's
// lower bound. Zero means unknown.
func employeeCount(c model.Company) int {
	if c.EmployeeEstimate != nil && *c.EmployeeEstimate > 0 {
		return *c.EmployeeEstimate
	}
	if n, ok := classify.ParseEmployeeCount(c.EmployeeCount); ok {
		return n
	}
	return 0
}

func leadDescription(rec model.OutputRecord) string {
	var b strings.Builder
	b.WriteString("Category: ")
	b.WriteString(string(rec.Company.Category))
	if terms := stackTerms(rec.TechSignal); len(terms) > 0 {
		b.WriteString("\nTech: ")
		b.WriteString(strings.Join(terms, ", "))
	}
	if !rec.StrategyFailed() && rec.Strategy != "" {
		b.WriteString("\n\n")
		b.WriteString(rec.Strategy)
	}
	return b.String()
}

func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	i := strings.LastIndex(full, " ")
	if i < 0 {
		return "", full
	}
	return strings.TrimSpace(full[:i]), full[i+1:]
}
