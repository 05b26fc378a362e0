package jobsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/job-agent/internal/jobs"
)

// File reads postings from a JSON feed: either a bare array of objects or an
// object with an "items" (or "results") array. Numeric ids are accepted.
type File struct {
	Path string
}

type fileRecord struct {
	ID          string `mapstructure:"id"`
	Title       string `mapstructure:"title"`
	Company     string `mapstructure:"company"`
	Location    string `mapstructure:"location"`
	Description string `mapstructure:"description"`
	URL         string `mapstructure:"url"`
	RedirectURL string `mapstructure:"redirect_url"`
}

func (f *File) Name() string { return "file" }

func (f *File) Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}

	items, err := feedItems(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}

	var records []fileRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &records,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}

	limit := q.limit()
	postings := make([]*jobs.Posting, 0, min(limit, len(records)))
	for _, r := range records {
		if len(postings) >= limit {
			break
		}
		if clean(r.Title) == "" {
			continue
		}
		posting := &jobs.Posting{
			ID:          r.ID,
			Title:       clean(r.Title),
			Company:     clean(r.Company),
			Location:    clean(r.Location),
			Description: r.Description,
			URL:         r.URL,
			Source:      f.Name(),
		}
		if posting.URL == "" {
			posting.URL = r.RedirectURL
		}
		if posting.ID == "" {
			posting.ID = PostingID(posting.URL, posting.Title, posting.Company)
		}
		postings = append(postings, posting)
	}
	return postings, nil
}

func feedItems(raw any) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range []string{"items", "results"} {
			if items, ok := v[key].([]any); ok {
				return items, nil
			}
		}
		return nil, fmt.Errorf("no items array found")
	default:
		return nil, fmt.Errorf("unexpected feed type %T", raw)
	}
}
