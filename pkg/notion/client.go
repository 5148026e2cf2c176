// Package notion keeps a Notion database of leads, one page per company.
package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultRateLimit is Notion's documented average request rate.
const DefaultRateLimit = 3.0

// Client reads and writes leads in one Notion database.
type Client interface {
	// FindLeadByDomain returns the ID of the page whose Domain equals domain,
	// or "" when there is none.
	FindLeadByDomain(ctx context.Context, domain string) (string, error)
	CreateLead(ctx context.Context, lead Lead) (string, error)
	UpdateLead(ctx context.Context, pageID string, lead Lead) error
}

// ClientOption configures the lead client.
type ClientOption func(*leadClient)

// WithRateLimit sets the request rate in requests per second. Zero or less
// disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *leadClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// databases and pages are the parts of notionapi the lead client calls.
type databases interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type pages interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

type leadClient struct {
	dbID    notionapi.DatabaseID
	db      databases
	pages   pages
	limiter *rate.Limiter
}

// NewClient returns a Client for the lead database dbID, throttled to
// DefaultRateLimit unless overridden.
func NewClient(token, dbID string, opts ...ClientOption) Client {
	inner := notionapi.NewClient(notionapi.Token(token))
	return newLeadClient(dbID, inner.Database, inner.Page, opts...)
}

func newLeadClient(dbID string, db databases, p pages, opts ...ClientOption) *leadClient {
	c := &leadClient{
		dbID:    notionapi.DatabaseID(dbID),
		db:      db,
		pages:   p,
		limiter: rate.NewLimiter(DefaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *leadClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return eris.Wrap(c.limiter.Wait(ctx), "notion: rate limit")
}

func (c *leadClient) FindLeadByDomain(ctx context.Context, domain string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.db.Query(ctx, c.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: propDomain,
			RichText: &notionapi.TextFilterCondition{Equals: domain},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", eris.Wrapf(err, "notion: find lead %s", domain)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}

func (c *leadClient) CreateLead(ctx context.Context, lead Lead) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	page, err := c.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.dbID,
		},
		Properties: leadProperties(lead),
	})
	if err != nil {
		return "", eris.Wrapf(err, "notion: create lead %s", lead.Name)
	}
	return string(page.ID), nil
}

func (c *leadClient) UpdateLead(ctx context.Context, pageID string, lead Lead) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.pages.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: leadProperties(lead),
	})
	return eris.Wrapf(err, "notion: update lead %s", pageID)
}
