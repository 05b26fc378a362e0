// Package ranking orders job postings by semantic similarity to a résumé.
package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/embedding"
	"github.com/spigell/job-agent/internal/jobs"
)

// Ranker owns one encoder for the lifetime of a run.
type Ranker struct {
	encoder embedding.Encoder
	logger  *zap.Logger
}

func New(encoder embedding.Encoder, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{encoder: encoder, logger: logger}
}

// Rank scores every posting against resumeText, writes the score onto the
// posting and returns at most topK postings sorted by descending similarity.
// Ties keep their input order. topK <= 0 returns all postings. A posting whose
// description cannot be encoded is left out of the result.
func (r *Ranker) Rank(ctx context.Context, resumeText string, postings []*jobs.Posting, topK int) ([]*jobs.Posting, error) {
	if len(postings) == 0 {
		return []*jobs.Posting{}, nil
	}

	resumeVec, err := r.encoder.Embed(ctx, resumeText)
	if err != nil {
		return nil, fmt.Errorf("embedding resume: %w", err)
	}

	ranked := make([]*jobs.Posting, 0, len(postings))
	for _, posting := range postings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := r.encoder.Embed(ctx, posting.Description)
		if err != nil {
			r.logger.Warn("posting skipped: description could not be encoded",
				zap.String("job_id", posting.ID),
				zap.String("title", posting.Title),
				zap.Error(err),
			)
			continue
		}

		posting.SetSimilarity(Cosine(resumeVec, vec))
		ranked = append(ranked, posting)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SimilarityValue() > ranked[j].SimilarityValue()
	})

	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK]
	}

	r.logger.Debug("postings ranked",
		zap.Int("input", len(postings)),
		zap.Int("returned", len(ranked)),
		zap.Int("top_k", topK),
	)
	return ranked, nil
}

// Cosine returns the cosine similarity of a and b. Vectors of different length
// are compared over their common prefix; a zero vector yields 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push identical vectors just past 1
	return math.Max(-1, math.Min(1, score))
}
