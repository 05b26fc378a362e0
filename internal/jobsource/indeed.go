package jobsource

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/job-agent/internal/jobs"
)

const (
	indeedBaseURL   = "https://www.indeed.com"
	indeedPageSize  = 10
	indeedMaxPages  = 3
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
	acceptEncoding  = "gzip"
	defaultInterval = 2 * time.Second
)

var (
	cardSelectors     = []string{"div.job_seen_beacon", "div.jobsearch-SerpJobCard", "div[class*='job_']", "a[id^='job_']"}
	titleSelectors    = []string{"h2.jobTitle span", "a.jcs-JobTitle", "h2 a"}
	companySelectors  = []string{"span.companyName", "span[data-testid='company-name']"}
	locationSelectors = []string{"div.companyLocation", "div[data-testid='text-location']"}
	snippetSelectors  = []string{"div.job-snippet", "div.jobCardShelfContainer"}
	linkSelectors     = []string{"a[id^='job_']", "a.jcs-JobTitle", "h2 a"}
)

// Indeed scrapes the public Indeed search page. Layout changes break it
// silently: it then returns no postings.
type Indeed struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewIndeed creates a scraper issuing at most one request per interval.
func NewIndeed(logger *zap.Logger, interval time.Duration) *Indeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Indeed{
		BaseURL:    indeedBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		UserAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		logger:     logger,
	}
}

func (i *Indeed) Name() string { return "indeed" }

func (i *Indeed) Fetch(ctx context.Context, q Query) ([]*jobs.Posting, error) {
	limit := q.limit()
	var postings []*jobs.Posting
	seen := make(map[string]struct{})

	for page := 0; page < indeedMaxPages && len(postings) < limit; page++ {
		if err := i.limiter.Wait(ctx); err != nil {
			return postings, err
		}

		doc, err := i.page(ctx, q, page)
		if err != nil {
			if len(postings) > 0 {
				i.logger.Warn("stopping pagination", zap.Int("page", page), zap.Error(err))
				break
			}
			return nil, err
		}

		found := i.parse(doc, q.Location)
		added := 0
		for _, posting := range found {
			if _, ok := seen[posting.ID]; ok {
				continue
			}
			seen[posting.ID] = struct{}{}
			postings = append(postings, posting)
			added++
			if len(postings) >= limit {
				break
			}
		}

		i.logger.Debug("indeed page parsed",
			zap.Int("page", page),
			zap.Int("cards", len(found)),
			zap.Int("added", added),
		)
		if added == 0 {
			break
		}
	}

	return postings, nil
}

func (i *Indeed) page(ctx context.Context, q Query, page int) (*goquery.Document, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("l", q.Location)
	if page > 0 {
		params.Set("start", strconv.Itoa(page*indeedPageSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.BaseURL+"/jobs?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", i.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	i.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := i.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}
	return doc, nil
}

func (i *Indeed) parse(doc *goquery.Document, location string) []*jobs.Posting {
	var cards *goquery.Selection
	for _, selector := range cardSelectors {
		if cards = doc.Find(selector); cards.Length() > 0 {
			break
		}
	}

	var postings []*jobs.Posting
	cards.Each(func(_ int, card *goquery.Selection) {
		title := clean(first(card, titleSelectors).Text())
		if title == "" {
			return
		}

		company := clean(first(card, companySelectors).Text())
		if company == "" {
			company = "Unknown"
		}
		loc := clean(first(card, locationSelectors).Text())
		if loc == "" {
			loc = location
		}
		if loc == "" {
			loc = "Remote"
		}

		link := first(card, linkSelectors)
		if link.Length() == 0 && goquery.NodeName(card) == "a" {
			link = card
		}
		href, _ := link.Attr("href")

		posting := &jobs.Posting{
			Title:       title,
			Company:     company,
			Location:    loc,
			Description: clean(first(card, snippetSelectors).Text()),
			URL:         i.absolute(href),
			Source:      i.Name(),
		}
		posting.ID = PostingID(posting.URL, posting.Title, posting.Company)
		postings = append(postings, posting)
	})
	return postings
}

func (i *Indeed) absolute(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(i.BaseURL, "/") + href
	default:
		return href
	}
}

func first(card *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := card.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return card.Slice(0, 0)
}
