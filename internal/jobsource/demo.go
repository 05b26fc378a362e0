package jobsource

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/job-agent/internal/jobs"
)

var demoCompanies = []string{
	"Tech Innovations Inc.", "Global Solutions Ltd.", "StartUp Ventures", "Enterprise Corp",
	"Consulting Partners", "DataTech Systems", "CloudFirst Solutions", "InnovateX",
	"FutureLabs", "DigitalTransform", "AI Pioneers", "QuantumLeap",
	"NextGen Systems", "Visionary Labs", "Strategic Insights", "Growth Partners",
	"Market Leaders", "Industry Experts", "Professional Services", "Career Advancers",
}

var demoTitles = []string{
	"Senior %s", "%s - Remote", "Junior %s", "Lead %s", "%s Consultant",
	"Principal %s", "%s Specialist", "Staff %s", "%s Analyst", "%s Engineer",
	"%s Architect", "%s Manager", "Director of %s", "VP of %s", "%s Associate",
	"%s Coordinator", "%s Intern", "Entry Level %s", "Experienced %s", "%s Expert",
}

var demoLocations = []string{
	"Remote", "San Francisco, CA", "New York, NY", "Chicago, IL", "Austin, TX",
	"Seattle, WA", "Boston, MA", "Los Angeles, CA", "Washington, DC", "Denver, CO",
	"Atlanta, GA", "Miami, FL", "Dallas, TX", "Philadelphia, PA", "Phoenix, AZ",
	"Portland, OR", "Minneapolis, MN", "Charlotte, NC", "Houston, TX",
}

const demoDescription = "We are seeking a skilled %s with strong problem-solving abilities and relevant experience. " +
	"This position offers excellent growth opportunities and a competitive compensation package. " +
	"The ideal candidate will have experience with industry-standard tools and technologies."

// Demo produces a fixed set of placeholder postings so the pipeline can run
// without network access. At most 20 postings are returned.
type Demo struct{}

func (Demo) Name() string { return "demo" }

func (d Demo) Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	role := titleCase(q.Text)
	if role == "" {
		role = "Professional"
	}
	firstLocation := q.Location
	if strings.TrimSpace(firstLocation) == "" {
		firstLocation = "Remote"
	}

	n := min(q.limit(), len(demoCompanies))
	postings := make([]*jobs.Posting, 0, n)
	for i := range n {
		location := firstLocation
		if i > 0 {
			location = demoLocations[i-1]
		}
		posting := &jobs.Posting{
			Title:       fmt.Sprintf(demoTitles[i], role),
			Company:     demoCompanies[i],
			Location:    location,
			Description: fmt.Sprintf(demoDescription, strings.ToLower(role)),
			URL:         fmt.Sprintf("https://example.com/jobs/demo-%d", i),
			Source:      d.Name(),
		}
		posting.ID = PostingID(posting.URL, posting.Title, posting.Company)
		postings = append(postings, posting)
	}
	return postings, nil
}
