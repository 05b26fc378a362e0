package coverletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-agent/internal/ai"
	"github.com/spigell/job-agent/internal/jobs"
)

type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	calls   atomic.Int32
	fn      func(ctx context.Context, prompt string) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, _ int) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.fn(ctx, prompt)
}

func (s *stubGenerator) Model() string { return "stub-model" }

func fixedClock() time.Time { return fixedNow }

func templateLetter(t *testing.T) string {
	t.Helper()
	letter, err := Compose(sampleProfile(), samplePosting(), ComposeOptions{Now: fixedNow})
	require.NoError(t, err)
	return letter
}

func TestSynthesizeUsesGenerator(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, string) (string, error) {
		return "```markdown\nDear Acme Hiring Manager,\nHello.\n```", nil
	}}
	s := New(gen, Options{Clock: fixedClock}, nil)

	letter := s.Synthesize(context.Background(), sampleProfile(), samplePosting(), true)

	assert.Equal(t, "Dear Acme Hiring Manager,\nHello.", letter)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Name: John Smith")
	assert.Contains(t, gen.prompts[0], "March 05, 2024")
}

func TestSynthesizeFallsBackToTemplate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, prompt string) (string, error)
	}{
		{name: "backend error", fn: func(context.Context, string) (string, error) { return "", errors.New("connection refused") }},
		{name: "model missing", fn: func(context.Context, string) (string, error) { return "", ai.ErrModelMissing }},
		{name: "empty output", fn: func(context.Context, string) (string, error) { return "  \n ", nil }},
		{name: "panic", fn: func(context.Context, string) (string, error) { panic("backend exploded") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			s := New(&stubGenerator{fn: tt.fn}, Options{Clock: fixedClock, Backend: "stub"}, zap.New(core))

			letter := s.Synthesize(context.Background(), sampleProfile(), samplePosting(), true)

			assert.Equal(t, templateLetter(t), letter)
			assert.NotEqual(t, ApologySentinel, letter)

			require.Equal(t, 1, logs.Len())
			fields := logs.All()[0].ContextMap()
			assert.Equal(t, strategyGenerative, fields["strategy"])
			assert.Equal(t, "job-1", fields["job_id"])
			assert.Equal(t, "stub", fields["letter_backend"])
			assert.Equal(t, "stub-model", fields["letter_model"])
		})
	}
}

func TestSynthesizeTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	gen := &stubGenerator{fn: func(context.Context, string) (string, error) {
		<-release // ignores its context on purpose
		return "too late", nil
	}}
	s := New(gen, Options{Clock: fixedClock, Timeout: 20 * time.Millisecond}, nil)

	letter := s.Synthesize(context.Background(), sampleProfile(), samplePosting(), true)

	assert.Equal(t, templateLetter(t), letter)
}

func TestSynthesizeSkipsGeneratorWhenNotPreferred(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, string) (string, error) { return "generated", nil }}
	s := New(gen, Options{Clock: fixedClock}, nil)

	letter := s.Synthesize(context.Background(), sampleProfile(), samplePosting(), false)

	assert.Equal(t, templateLetter(t), letter)
	assert.Zero(t, gen.calls.Load())
}

func TestSynthesizeWithoutGenerator(t *testing.T) {
	s := New(nil, Options{Clock: fixedClock}, nil)

	assert.Equal(t, templateLetter(t), s.Synthesize(context.Background(), sampleProfile(), samplePosting(), true))
}

func TestSynthesizeMissingNameStrict(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, string) (string, error) { return "generated", nil }}
	s := New(gen, Options{Clock: fixedClock}, nil)

	letter := s.Synthesize(context.Background(), sampleProfile().WithName(""), samplePosting(), true)

	assert.Equal(t, ApologySentinel, letter)
	assert.Zero(t, gen.calls.Load(), "strict policy must not call the backend")
}

func TestSynthesizeMissingNamePlaceholder(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, string) (string, error) { return "", errors.New("down") }}
	s := New(gen, Options{Clock: fixedClock, Policy: PolicyPlaceholder}, nil)

	letter := s.Synthesize(context.Background(), sampleProfile().WithName(""), samplePosting(), true)

	assert.Contains(t, letter, NamePlaceholder)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Name: "+NamePlaceholder)
}

func TestSynthesizeNilPosting(t *testing.T) {
	s := New(nil, Options{}, nil)

	assert.Equal(t, ApologySentinel, s.Synthesize(context.Background(), sampleProfile(), nil, false))
}

func batch(n int) []*jobs.Posting {
	postings := make([]*jobs.Posting, 0, n)
	for i := 0; i < n; i++ {
		postings = append(postings, &jobs.Posting{
			ID:      fmt.Sprintf("job-%d", i),
			Title:   "Analyst",
			Company: fmt.Sprintf("Company %d", i),
		})
	}
	return postings
}

func TestSynthesizeAllIsolatesFailures(t *testing.T) {
	gen := &stubGenerator{fn: func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Company: Company 2") {
			panic("only this one")
		}
		if strings.Contains(prompt, "Company: Company 4") {
			return "", errors.New("rate limited")
		}
		return "generated letter", nil
	}}
	s := New(gen, Options{Clock: fixedClock, Workers: 3}, nil)
	postings := batch(6)

	summary := s.SynthesizeAll(context.Background(), sampleProfile(), postings, true)

	assert.Equal(t, Summary{Generative: 4, Template: 2}, summary)
	for i, posting := range postings {
		assert.Equal(t, fmt.Sprintf("job-%d", i), posting.ID, "order must be preserved")
		require.NotEmpty(t, posting.CoverLetter)
		if i == 2 || i == 4 {
			assert.Contains(t, posting.CoverLetter, fmt.Sprintf("Company %d", i))
			assert.Contains(t, posting.CoverLetter, "Sincerely,\nJohn Smith")
			continue
		}
		assert.Equal(t, "generated letter", posting.CoverLetter)
	}
}

func TestSynthesizeAllRespectsWorkerLimit(t *testing.T) {
	var active, peak atomic.Int32
	gen := &stubGenerator{fn: func(context.Context, string) (string, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return "ok", nil
	}}
	s := New(gen, Options{Clock: fixedClock, Workers: 2}, nil)

	s.SynthesizeAll(context.Background(), sampleProfile(), batch(8), true)

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(8), gen.calls.Load())
}

func TestSynthesizeAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	postings := append(batch(3), nil)
	summary := New(nil, Options{Clock: fixedClock}, nil).SynthesizeAll(ctx, sampleProfile(), postings, false)

	assert.Equal(t, 3, summary.Failed)
	for _, posting := range postings[:3] {
		assert.Equal(t, FailureSentinel, posting.CoverLetter)
	}
}

func TestBuildPrompt(t *testing.T) {
	posting := samplePosting()
	posting.Description = strings.Repeat("x", 500) + "TAIL"

	prompt := BuildPrompt(sampleProfile(), posting, "John Smith", fixedNow)

	assert.Contains(t, prompt, "Name: John Smith\nEmail: john@x.com\nPhone: 5551234567")
	assert.Contains(t, prompt, "Skills: Python, SQL")
	assert.Contains(t, prompt, "Built ETL pipelines using Python and SQL.")
	assert.Contains(t, prompt, "Position: Data Engineer")
	assert.Contains(t, prompt, "Do NOT make up any experience")
	assert.Contains(t, prompt, "(March 05, 2024)")
	assert.NotContains(t, prompt, "TAIL")
	assert.NotContains(t, prompt, "{{")
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, "Dear team", cleanResponse("```text\nDear team\n```"))
	assert.Equal(t, "Dear team", cleanResponse("  Dear team "))
}
