package jobsource

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/jobs"
)

// ErrNoPostings is returned by Chain when every source came back empty.
var ErrNoPostings = errors.New("no postings found")

// Chain tries its sources in order and returns the first non-empty result.
type Chain struct {
	Sources []Source
	Logger  *zap.Logger
}

func NewChain(logger *zap.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{Sources: sources, Logger: logger}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error) {
	var errs []error
	for _, source := range c.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		postings, err := source.Fetch(ctx, q)
		if err != nil {
			c.Logger.Warn("job source failed", zap.String("source", source.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
			continue
		}
		if len(postings) == 0 {
			c.Logger.Info("job source returned nothing", zap.String("source", source.Name()))
			continue
		}

		c.Logger.Info("postings fetched", zap.String("source", source.Name()), zap.Int("count", len(postings)))
		return postings, nil
	}
	return nil, errors.Join(append([]error{ErrNoPostings}, errs...)...)
}
