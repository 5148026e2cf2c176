// Package discovery finds candidate companies by running a LinkedIn company
// search scraper once per target location.
package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/apify"
)

const linkedInCompanySearch = "https://www.linkedin.com/search/results/companies/"

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithSync makes the Discoverer use the synchronous run endpoint instead of
// starting a run and polling it.
func WithSync(sync bool) Option {
	return func(d *Discoverer) {
		d.sync = sync
	}
}

// WithPollOptions passes polling options through to apify.PollRun.
func WithPollOptions(opts ...apify.PollOption) Option {
	return func(d *Discoverer) {
		d.pollOpts = append(d.pollOpts, opts...)
	}
}

// Discoverer runs the company search actor and normalizes its output.
type Discoverer struct {
	client   apify.Client
	actorID  string
	sync     bool
	pollOpts []apify.PollOption
}

// New creates a Discoverer for the given actor.
func New(client apify.Client, actorID string, opts ...Option) *Discoverer {
	d := &Discoverer{client: client, actorID: actorID}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SearchInput is the actor input for one location.
type SearchInput struct {
	SearchURL  string `json:"searchUrl"`
	Keyword    string `json:"keyword"`
	Location   string `json:"location"`
	MaxResults int    `json:"maxResults"`
}

// Discover issues one search per location, in order, and returns the
// normalized companies. limit caps the results of each location search, not
// the total; every location is searched. Companies found under several
// locations appear once per location. A failed location is logged and
// skipped, so a total outage yields an empty list. The only error returned
// is a cancelled context.
func (d *Discoverer) Discover(ctx context.Context, query string, locations []string, limit int) ([]model.Company, error) {
	log := zap.L().With(zap.String("component", "discovery"), zap.String("query", query))
	companies := make([]model.Company, 0)

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return companies, eris.Wrap(err, "discovery: cancelled")
		}

		input := SearchInput{
			SearchURL:  SearchURL(query, loc),
			Keyword:    query,
			Location:   loc,
			MaxResults: limit,
		}

		var items []Item
		var err error
		if d.sync {
			err = d.client.RunSyncGetDatasetItems(ctx, d.actorID, input, &items)
		} else {
			err = apify.RunAndCollect(ctx, d.client, d.actorID, input, &items, d.pollOpts...)
		}
		if err != nil {
			if ctx.Err() != nil {
				return companies, eris.Wrap(ctx.Err(), "discovery: cancelled")
			}
			log.Warn("location search failed", zap.String("location", loc), zap.Error(err))
			continue
		}

		found := 0
		for _, it := range items {
			c, ok := Normalize(it)
			if !ok {
				continue
			}
			if limit > 0 && found >= limit {
				break
			}
			c.Location = loc
			companies = append(companies, c)
			found++
		}
		log.Info("location searched",
			zap.String("location", loc),
			zap.Int("items", len(items)),
			zap.Int("companies", found),
		)
	}

	return companies, nil
}

// SearchURL builds the LinkedIn company search URL for a phrase and location.
func SearchURL(query, location string) string {
	kw := strings.TrimSpace(strings.TrimSpace(query) + " " + strings.TrimSpace(location))
	v := url.Values{}
	v.Set("keywords", kw)
	return linkedInCompanySearch + "?" + v.Encode()
}
