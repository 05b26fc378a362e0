// Package jobs holds the job posting model shared by sources, the ranker,
// the letter synthesizer and the writers.
package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	PostingIDField      = "ID"
	PostingCompanyField = "Company"
)

// Posting is one job advertisement. Similarity is nil until the posting has
// been ranked, CoverLetter is empty until a letter has been synthesized.
type Posting struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Similarity  *float64 `json:"similarity,omitempty"`
	CoverLetter string   `json:"cover_letter,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// SimilarityValue returns the similarity or 0 for unranked postings.
func (p *Posting) SimilarityValue() float64 {
	if p.Similarity == nil {
		return 0
	}
	return *p.Similarity
}

// SetSimilarity stores a copy of score on the posting.
func (p *Posting) SetSimilarity(score float64) {
	p.Similarity = &score
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ID
	case PostingCompanyField:
		return p.Company
	default:
		return ""
	}
}

type Postings struct {
	Items []*Posting `json:"items"`
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

func (p *Postings) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, posting := range p.Items {
		ids = append(ids, posting.ID)
	}
	return ids
}

// Exclude drops every posting whose field matches one of targets
// (case-insensitive) and returns the IDs of dropped postings. The order of the
// remaining postings is preserved.
func (p *Postings) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	var excluded []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if _, ok := set[strings.ToLower(posting.GetStringField(field))]; ok {
			excluded = append(excluded, posting.ID)
			continue
		}
		kept = append(kept, posting)
	}
	for i := len(kept); i < len(p.Items); i++ {
		p.Items[i] = nil
	}
	p.Items = kept
	return excluded
}

// Keep retains only the postings for which fn returns true and returns the IDs
// of the dropped ones, preserving order.
func (p *Postings) Keep(fn func(*Posting) bool) []string {
	var dropped []string
	kept := make([]*Posting, 0, len(p.Items))
	for _, posting := range p.Items {
		if fn(posting) {
			kept = append(kept, posting)
			continue
		}
		dropped = append(dropped, posting.ID)
	}
	p.Items = kept
	return dropped
}

// ReportByCompany groups a printable summary of each posting by company.
func (p *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		key := posting.Company
		if key == "" {
			key = "unknown company"
		}
		entry := map[string]string{
			"title":    posting.Title,
			"url":      posting.URL,
			"location": posting.Location,
		}
		if posting.Similarity != nil {
			entry["similarity"] = fmt.Sprintf("%.4f", *posting.Similarity)
		}
		if posting.CoverLetter != "" {
			entry["cover_letter"] = "yes"
		}
		report[key] = append(report[key], entry)
	}
	return report
}

// MatchWatchlist returns postings whose company loosely matches a watched
// name: either string contains the other, ignoring case.
func (p *Postings) MatchWatchlist(companies []string) []*Posting {
	var matched []*Posting
	for _, posting := range p.Items {
		company := strings.ToLower(strings.TrimSpace(posting.Company))
		if company == "" {
			continue
		}
		for _, watched := range companies {
			watched = strings.ToLower(strings.TrimSpace(watched))
			if watched == "" {
				continue
			}
			if strings.Contains(company, watched) || strings.Contains(watched, company) {
				matched = append(matched, posting)
				break
			}
		}
	}
	return matched
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (p *Postings) ToExcluded() *Excluded {
	now := time.Now().UTC()
	excluded := &Excluded{}
	for _, posting := range p.Items {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			ID:         posting.ID,
			URL:        posting.URL,
			Company:    posting.Company,
			ExcludedAt: now,
		})
	}
	return excluded
}
