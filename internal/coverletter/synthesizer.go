// Package coverletter writes cover letters grounded in a résumé profile. A
// generative backend is tried first when requested, a deterministic template
// second, and a fixed sentinel is returned when both fail.
package coverletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-agent/internal/ai"
	"github.com/spigell/job-agent/internal/jobs"
	"github.com/spigell/job-agent/internal/logger"
	"github.com/spigell/job-agent/internal/resume"
	"github.com/spigell/job-agent/internal/utils"
)

const (
	// ApologySentinel is returned by Synthesize when no strategy produced a letter.
	ApologySentinel = "Failed to generate cover letter due to technical issues."
	// FailureSentinel marks a batch item that could not be processed at all.
	FailureSentinel = "Failed to generate cover letter."
	// NamePlaceholder signs letters for nameless profiles under PolicyPlaceholder.
	NamePlaceholder = "[Your Name]"

	DefaultMaxTokens = 600
	DefaultTimeout   = 60 * time.Second
	DefaultWorkers   = 1

	strategyGenerative = "generative"
	strategyTemplate   = "template"
	strategySentinel   = "sentinel"

	defaultMaxLogLength = 200
)

var (
	ErrMissingName = errors.New("profile has no candidate name")
	ErrNoPosting   = errors.New("posting is required")

	errEmptyOutput = errors.New("strategy returned empty text")
)

// Policy decides what happens when the profile carries no name.
type Policy string

const (
	// PolicyStrict refuses to write an unsigned letter.
	PolicyStrict Policy = "strict"
	// PolicyPlaceholder signs with NamePlaceholder.
	PolicyPlaceholder Policy = "placeholder"
)

// ParsePolicy accepts "strict", "placeholder" or an empty string (strict).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyPlaceholder:
		return PolicyPlaceholder, nil
	default:
		return "", fmt.Errorf("unknown missing-name policy %q", s)
	}
}

type Options struct {
	Policy    Policy
	MaxTokens int
	// Timeout bounds every generative call.
	Timeout time.Duration
	Workers int
	// Backend names the generator in logs.
	Backend string
	Clock   func() time.Time
}

type Synthesizer struct {
	generator ai.Generator
	opts      Options
	logger    *zap.Logger
}

// New builds a synthesizer. generator may be nil, in which case only the
// template is used.
func New(generator ai.Generator, opts Options, log *zap.Logger) *Synthesizer {
	if opts.Policy == "" {
		opts.Policy = PolicyStrict
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &Synthesizer{
		generator: generator,
		opts:      opts,
		logger:    logger.WithCommonFields(log, opts.Backend, model),
	}
}

type strategy struct {
	name string
	run  func(ctx context.Context, profile resume.Profile, posting *jobs.Posting) (string, error)
}

func (s *Synthesizer) strategies(preferGenerative bool) []strategy {
	chain := make([]strategy, 0, 2)
	if preferGenerative && s.generator != nil {
		chain = append(chain, strategy{name: strategyGenerative, run: s.generate})
	}
	return append(chain, strategy{name: strategyTemplate, run: s.compose})
}

// Synthesize returns a letter for the posting. It never returns an empty
// string and never panics: a failing strategy hands over to the next one and
// ApologySentinel is returned when none succeeds.
func (s *Synthesizer) Synthesize(ctx context.Context, profile resume.Profile, posting *jobs.Posting, preferGenerative bool) string {
	text, _ := s.synthesize(ctx, profile, posting, preferGenerative)
	return text
}

func (s *Synthesizer) synthesize(ctx context.Context, profile resume.Profile, posting *jobs.Posting, preferGenerative bool) (string, string) {
	if posting == nil {
		s.logger.Warn("cover letter skipped", zap.Error(ErrNoPosting))
		return ApologySentinel, strategySentinel
	}

	log := logger.WithFields(s.logger, logger.PostingFields(posting.ID, posting.Company)...)

	for _, st := range s.strategies(preferGenerative) {
		text, err := guard(ctx, st, profile, posting)
		if err == nil {
			log.Debug("cover letter ready", zap.String(logger.FieldStrategy, st.name))
			return text, st.name
		}
		log.Warn("cover letter strategy failed",
			zap.String(logger.FieldStrategy, st.name),
			zap.Error(err),
		)
	}
	return ApologySentinel, strategySentinel
}

// guard runs one strategy and turns panics and blank output into errors.
func guard(ctx context.Context, st strategy, profile resume.Profile, posting *jobs.Posting) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%s strategy panicked: %v", st.name, r)
		}
	}()

	text, err = st.run(ctx, profile, posting)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyOutput
	}
	return text, nil
}

func (s *Synthesizer) compose(_ context.Context, profile resume.Profile, posting *jobs.Posting) (string, error) {
	return Compose(profile, posting, ComposeOptions{Policy: s.opts.Policy, Now: s.opts.Clock()})
}

func (s *Synthesizer) generate(ctx context.Context, profile resume.Profile, posting *jobs.Posting) (string, error) {
	name, err := signatureName(profile, s.opts.Policy)
	if err != nil {
		return "", err
	}

	prompt := BuildPrompt(profile, posting, name, s.opts.Clock())
	s.logger.Debug("generate cover letter request",
		zap.String(logger.FieldJobID, posting.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, defaultMaxLogLength)),
	)

	raw, err := s.generateWithTimeout(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.logger.Debug("generate cover letter response",
		zap.String(logger.FieldJobID, posting.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, defaultMaxLogLength)),
	)
	return cleanResponse(raw), nil
}

type generation struct {
	text string
	err  error
}

// generateWithTimeout stops waiting once the timeout passes, even when the
// backend ignores its context.
func (s *Synthesizer) generateWithTimeout(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("generator panicked: %v", r)}
			}
		}()
		text, err := s.generator.Generate(callCtx, prompt, s.opts.MaxTokens)
		done <- generation{text: text, err: err}
	}()

	select {
	case <-callCtx.Done():
		return "", fmt.Errorf("generation aborted: %w", callCtx.Err())
	case res := <-done:
		return res.text, res.err
	}
}

// Summary counts which strategy produced each letter of a batch.
type Summary struct {
	Generative int
	Template   int
	Failed     int
}

// SynthesizeAll writes a letter into every posting using at most
// Options.Workers concurrent syntheses. The slice order is untouched. An item
// that panics or is reached after ctx is cancelled gets FailureSentinel and
// the rest of the batch continues.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, profile resume.Profile, postings []*jobs.Posting, preferGenerative bool) Summary {
	strategies := make([]string, len(postings))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)

	for i, posting := range postings {
		if posting == nil {
			continue
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("cover letter batch item panicked",
						zap.String(logger.FieldJobID, posting.ID),
						zap.Any("panic", r),
					)
					posting.CoverLetter = FailureSentinel
					strategies[i] = strategySentinel
				}
			}()

			if err := ctx.Err(); err != nil {
				posting.CoverLetter = FailureSentinel
				strategies[i] = strategySentinel
				return nil
			}

			posting.CoverLetter, strategies[i] = s.synthesize(ctx, profile, posting, preferGenerative)
			return nil
		})
	}
	_ = g.Wait()

	var summary Summary
	for _, name := range strategies {
		switch name {
		case strategyGenerative:
			summary.Generative++
		case strategyTemplate:
			summary.Template++
		case strategySentinel:
			summary.Failed++
		}
	}

	s.logger.Info("cover letters synthesized",
		zap.Int("generative", summary.Generative),
		zap.Int("template", summary.Template),
		zap.Int("failed", summary.Failed),
	)
	return summary
}
