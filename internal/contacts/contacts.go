// Package contacts searches Apollo for decision-makers at company domains.
package contacts

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// DefaultDelay is the pause before every people-search request.
const DefaultDelay = time.Second

// DecisionMakerTitles are the titles a contact search is filtered to.
var DecisionMakerTitles = []string{
	"CEO",
	"CTO",
	"Founder",
	"Co-Founder",
	"VP Engineering",
	"Head of AI",
	"Head of Data",
	"Chief Data Officer",
	"Director of Engineering",
}

// Option configures a Finder.
type Option func(*Finder)

// WithDelay overrides the pre-request delay. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(f *Finder) {
		f.delay = d
	}
}

// Finder runs one people search per domain, strictly one at a time.
type Finder struct {
	client apollo.Client
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns a Finder. A nil client disables lookups: every domain maps to
// an empty contact list.
func New(client apollo.Client, opts ...Option) *Finder {
	f := &Finder{client: client, delay: DefaultDelay, sleep: sleepCtx}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindContacts returns up to maxPerCompany contacts for each non-empty domain,
// in retrieval order. A failed domain maps to an empty slice and the batch
// continues. Only a cancelled context stops the batch early; the partial map
// is returned with the error.
func (f *Finder) FindContacts(ctx context.Context, domains []string, maxPerCompany int) (map[string][]model.Contact, error) {
	out := make(map[string][]model.Contact, len(domains))
	log := zap.L().With(zap.String("component", "contacts"))

	for _, domain := range domains {
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		if f.client == nil || maxPerCompany <= 0 {
			out[domain] = []model.Contact{}
			continue
		}

		if err := f.sleep(ctx, f.delay); err != nil {
			return out, eris.Wrap(err, "contacts: cancelled")
		}

		found, err := f.search(ctx, domain, maxPerCompany)
		if err != nil {
			if ctx.Err() != nil {
				return out, eris.Wrap(ctx.Err(), "contacts: cancelled")
			}
			log.Warn("contact search failed", zap.String("domain", domain), zap.Error(err))
			out[domain] = []model.Contact{}
			continue
		}
		out[domain] = found
		log.Debug("contacts found", zap.String("domain", domain), zap.Int("count", len(found)))
	}

	return out, nil
}

func (f *Finder) search(ctx context.Context, domain string, limit int) ([]model.Contact, error) {
	resp, err := f.client.SearchPeople(ctx, apollo.PeopleSearchRequest{
		OrganizationDomains: []string{domain},
		PersonTitles:        DecisionMakerTitles,
		Page:                1,
		PerPage:             limit,
	})
	if err != nil {
		return nil, err
	}

	found := make([]model.Contact, 0, min(len(resp.People), limit))
	for _, p := range resp.People {
		if len(found) == limit {
			break
		}
		found = append(found, model.Contact{
			Name:        p.FullName(),
			Title:       p.Title,
			Email:       p.Email,
			LinkedInURL: p.LinkedInURL,
			PhotoURL:    p.PhotoURL,
		})
	}
	return found, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
