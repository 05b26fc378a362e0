package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/job-agent/internal/jobs"
)

// LettersDir returns <root>/<Name>_<YYYY-MM-DD>. An empty name becomes "Candidate".
func LettersDir(root, name string, now time.Time) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Candidate"
	}
	return filepath.Join(root, pathCleaner.Replace(name)+"_"+now.Format("2006-01-02"))
}

func letterFileName(p *jobs.Posting, ext string) string {
	company := p.Company
	if company == "" {
		company = "Company"
	}
	title := p.Title
	if title == "" {
		title = "Position"
	}
	id := p.ID
	if id == "" {
		id = "unknown"
	}
	clean := strings.NewReplacer("/", "-", "\\", "-")
	return fmt.Sprintf("CoverLetter_%s_%s_%s.%s", clean.Replace(company), clean.Replace(title), clean.Replace(id), ext)
}

// WriteLetters saves every non-empty letter as a text file in dir and returns
// the written paths in posting order.
func WriteLetters(dir string, postings []*jobs.Posting) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, p := range postings {
		if p == nil || strings.TrimSpace(p.CoverLetter) == "" {
			continue
		}
		path := filepath.Join(dir, letterFileName(p, FormatTXT))
		if err := os.WriteFile(path, []byte(strings.TrimRight(p.CoverLetter, "\n")+"\n"), 0o644); err != nil {
			return written, fmt.Errorf("writing letter for %s: %w", p.ID, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ParseLettersFormat normalizes output.letters-format; empty means txt.
func ParseLettersFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatTXT:
		return FormatTXT, nil
	case FormatDOCX:
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("unsupported letters format %q", format)
	}
}
