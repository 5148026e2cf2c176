package sink

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// Notion upserts each record as a row in a lead database keyed by domain.
type Notion struct {
	client notion.Client
}

// NewNotion returns a sink writing to the client's lead database.
func NewNotion(client notion.Client) *Notion {
	return &Notion{client: client}
}

func (s *Notion) Name() string { return "notion" }

func (s *Notion) Write(ctx context.Context, rec model.OutputRecord) error {
	pageID, err := notion.UpsertLead(ctx, s.client, notionLead(rec))
	if err != nil {
		return eris.Wrap(err, "notion sink: upsert")
	}
	zap.L().Debug("notion sink: lead written",
		zap.String("company", rec.Company.Name),
		zap.String("page_id", pageID),
	)
	return nil
}

func notionLead(rec model.OutputRecord) notion.Lead {
	c := rec.Company
	contacts := make([]string, 0, len(rec.Contacts))
	for _, ct := range rec.Contacts {
		contacts = append(contacts, formatContact(ct))
	}
	return notion.Lead{
		Name:      c.Name,
		Domain:    c.Domain,
		Category:  string(c.Category),
		Employees: c.EmployeeCount,
		Industry:  c.Industry,
		Location:  c.Location,
		Contacts:  contacts,
		Stack:     stackTerms(rec.TechSignal),
		Strategy:  rec.Strategy,
		RunID:     rec.RunID,
	}
}

func formatContact(ct model.Contact) string {
	s := ct.Name
	if ct.Title != "" {
		s = fmt.Sprintf("%s (%s)", s, ct.Title)
	}
	if ct.Email != "" {
		s = fmt.Sprintf("%s <%s>", s, ct.Email)
	}
	return s
}

// stackTerms flattens a tech signal into one list, stack first.
func stackTerms(sig model.TechSignal) []string {
	out := make([]string, 0, len(sig.LikelyStack)+len(sig.AIMLIndicators)+len(sig.DataInfrastructure))
	out = append(out, sig.LikelyStack...)
	out = append(out, sig.AIMLIndicators...)
	out = append(out, sig.DataInfrastructure...)
	return out
}
