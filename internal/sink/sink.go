// Package sink delivers finished output records to destinations outside the
// run store: a JSONL file, a Notion lead database, and Salesforce Leads.
package sink

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Sink receives each output record once, after it is appended to the run.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec model.OutputRecord) error
}

// Multi fans a record out to every sink. A failing sink does not stop the
// others; failures are logged and returned joined.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Write(ctx context.Context, rec model.OutputRecord) error {
	if len(m) == 0 {
		return nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, s := range m {
		g.Go(func() error {
			if err := s.Write(ctx, rec); err != nil {
				zap.L().Warn("sink: write failed",
					zap.String("sink", s.Name()),
					zap.String("company", rec.Company.Name),
					zap.Int("index", rec.Index),
					zap.Error(err),
				)
				mu.Lock()
				errs = append(errs, eris.Wrapf(err, "sink: %s", s.Name()))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, eris.Wrapf(err, "sink: close %s", s.Name()))
			}
		}
	}
	return errors.Join(errs...)
}
