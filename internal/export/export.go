// Package export writes ranked postings and their letters to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/job-agent/internal/jobs"
)

var Columns = []string{"job_id", "title", "company", "location", "similarity", "link", "cover_letter"}

var pathCleaner = strings.NewReplacer(" ", "_", "/", "-", "\\", "-")

// ResultsPath names a results file after the query and the run time, e.g.
// outputs/jobs_data_analyst_20240305_141500.csv.
func ResultsPath(dir, query, ext string, now time.Time) string {
	name := fmt.Sprintf("jobs_%s_%s%s", pathCleaner.Replace(strings.ToLower(strings.TrimSpace(query))), now.Format("20060102_150405"), ext)
	return filepath.Join(dir, name)
}

func row(p *jobs.Posting) []string {
	similarity := ""
	if p.Similarity != nil {
		similarity = strconv.FormatFloat(*p.Similarity, 'f', 4, 64)
	}
	return []string{p.ID, p.Title, p.Company, p.Location, similarity, p.URL, p.CoverLetter}
}

// WriteCSV writes one header row and one row per posting in slice order.
func WriteCSV(w io.Writer, postings []*jobs.Posting) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, p := range postings {
		if p == nil {
			continue
		}
		if err := cw.Write(row(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path (and its directory) and writes postings into it.
func WriteCSVFile(path string, postings []*jobs.Posting) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, postings); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}
