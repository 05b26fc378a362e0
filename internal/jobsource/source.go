// Package jobsource acquires job postings from the web, from files or from a
// built-in demo set.
package jobsource

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/spigell/job-agent/internal/jobs"
)

const DefaultLimit = 20

// Query describes what to search for.
type Query struct {
	Text     string
	Location string
	// Limit caps the number of postings; zero means DefaultLimit.
	Limit int
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error)
}

// PostingID derives a stable identifier from the fields that identify a posting.
func PostingID(url, title, company string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url+"\x00"+title+"\x00"+company)).String()
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
