package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/jobs"
)

type minSimilarityFilter struct {
	disabled  bool
	reason    string
	threshold float64
}

// NewMinSimilarity creates a filter that drops postings scoring below the
// configured similarity. A zero threshold keeps everything.
func NewMinSimilarity() Filter {
	return &minSimilarityFilter{}
}

func (f *minSimilarityFilter) Name() string { return "min_similarity" }

func (f *minSimilarityFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minSimilarityFilter) IsEnabled() bool { return !f.disabled }

func (f *minSimilarityFilter) Validate(cfg *Config) error {
	f.threshold = 0
	if cfg != nil {
		f.threshold = cfg.MinSimilarity
	}
	if f.threshold < -1 || f.threshold > 1 {
		return fmt.Errorf("minimum similarity must be within [-1, 1], got %.2f", f.threshold)
	}
	return nil
}

func (f *minSimilarityFilter) Apply(_ context.Context, deps Deps, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if f.threshold == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	dropped := p.Keep(func(posting *jobs.Posting) bool {
		return posting.Similarity != nil && *posting.Similarity >= f.threshold
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding postings below similarity threshold",
			zap.Float64("threshold", f.threshold),
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(dropped), Left: p.Len()}, nil
}

func (f *minSimilarityFilter) Status() Status {
	details := map[string]string{"threshold": fmt.Sprintf("%.2f", f.threshold)}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
