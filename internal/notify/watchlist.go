// Package notify alerts the candidate when postings from watched companies
// show up in a run.
package notify

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/spigell/job-agent/internal/jobs"
)

// Watchlist is a list of company names, matched loosely against postings.
type Watchlist struct {
	Companies []string
}

// LoadWatchlist reads one company per line, skipping blank lines and lines
// starting with '#'. A missing file is an empty watchlist.
func LoadWatchlist(path string) (*Watchlist, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Watchlist{}, nil
		}
		return nil, err
	}
	defer file.Close()

	w := &Watchlist{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w.Companies = append(w.Companies, line)
	}
	return w, scanner.Err()
}

func (w *Watchlist) Empty() bool {
	return w == nil || len(w.Companies) == 0
}

// Match returns the postings whose company loosely matches a watched name.
func (w *Watchlist) Match(postings []*jobs.Posting) []*jobs.Posting {
	if w.Empty() {
		return nil
	}
	return (&jobs.Postings{Items: postings}).MatchWatchlist(w.Companies)
}
