package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/spigell/job-agent/internal/ai"
)

type fakeModels struct {
	mu        sync.Mutex
	calls     []callRecord
	responses []fakeResponse
}

type callRecord struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	f.calls = append(f.calls, callRecord{model: model, prompt: prompt, config: config})

	if len(f.responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	original := wait
	wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &waits
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	waits := noWait(t)

	fake := &fakeModels{}
	fake.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	fake.enqueue(textResponse("retry ok"), nil)

	g := newGenerator(fake, "gemini-pro", WithMaxRetries(2), WithSystemInstruction("system"))

	output, err := g.Generate(context.Background(), "message", 350)
	require.NoError(t, err)
	assert.Equal(t, "retry ok", output)
	require.Len(t, fake.calls, 2)
	assert.Equal(t, []time.Duration{retryBaseDelay}, *waits)

	for _, call := range fake.calls {
		assert.Equal(t, "gemini-pro", call.model)
		assert.Equal(t, "message", call.prompt)
		assert.EqualValues(t, 350, call.config.MaxOutputTokens)
		require.NotNil(t, call.config.SystemInstruction, "expected system instruction to be set")
		assert.Equal(t, "system", call.config.SystemInstruction.Parts[0].Text)
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noWait(t)

	fake := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	fake.enqueue(nil, tempErr)
	fake.enqueue(nil, tempErr)

	g := newGenerator(fake, "gemini-pro", WithMaxRetries(2))

	_, err := g.Generate(context.Background(), "msg", 0)
	require.Error(t, err, "expected error after retries exhausted")
	assert.Len(t, fake.calls, 2)
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	noWait(t)

	fake := &fakeModels{}
	fake.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := newGenerator(fake, "gemini-pro", WithMaxRetries(3))

	_, err := g.Generate(context.Background(), "msg", 0)
	require.Error(t, err, "expected error when quota delay too long")
	assert.Len(t, fake.calls, 1)
}

func TestGeneratorRetriesShortQuotaDelay(t *testing.T) {
	waits := noWait(t)

	fake := &fakeModels{}
	fake.enqueue(nil, genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 1.5s."})
	fake.enqueue(textResponse("ok"), nil)

	out, err := newGenerator(fake, "", WithMaxRetries(3)).Generate(context.Background(), "msg", 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, *waits)
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	noWait(t)

	fake := &fakeModels{}
	fake.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	_, err := newGenerator(fake, "m").Generate(context.Background(), "msg", 0)
	require.Error(t, err)
	assert.Len(t, fake.calls, 1)
}

func TestGeneratorEmptyResponse(t *testing.T) {
	fake := &fakeModels{}
	fake.enqueue(textResponse("   "), nil)

	_, err := newGenerator(fake, "m").Generate(context.Background(), "msg", 0)
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}

func TestGeneratorDefaults(t *testing.T) {
	g := newGenerator(&fakeModels{}, " ")
	assert.Equal(t, DefaultModel, g.Model())

	_, err := NewGenerator(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ai.ErrUnavailable, "expected ErrUnavailable for empty key")
}
