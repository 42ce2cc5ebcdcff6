package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/network"
	"github.com/PuerkitoBio/goquery"
)

const glassdoorBaseURL = "https://www.glassdoor.com"

type Glassdoor struct {
	base
	open    func() (*network.Client, error)
	baseURL string
}

func NewGlassdoor(opts Options) *Glassdoor {
	return &Glassdoor{
		base:    newBase(models.SourceGlassdoor, opts),
		open:    opts.openClient,
		baseURL: opts.baseURL(models.SourceGlassdoor, glassdoorBaseURL),
	}
}

func (g *Glassdoor) Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult {
	return g.collect(ctx, cfg, func(ctx context.Context) ([]models.RawJob, error) {
		client, err := g.open()
		if err != nil {
			return nil, launchFailed(err)
		}
		defer client.Close()

		doc, err := fetchDocument(ctx, client, buildGlassdoorURL(g.baseURL, cfg), nil)
		if err != nil {
			return nil, err
		}
		jobs := parseGlassdoorJobs(doc, g.baseURL, g.now())
		if len(jobs) == 0 {
			if err := detectBlock(doc); err != nil {
				return nil, err
			}
		}
		return jobs, nil
	})
}

func buildGlassdoorURL(base string, cfg models.ScrapeConfig) string {
	values := url.Values{}
	values.Set("sc.keyword", cfg.SearchQuery)
	if cfg.Location != "" {
		values.Set("locKeyword", cfg.Location)
	}
	if cfg.JobType != "" {
		values.Set("jobType", strings.ToLower(cfg.JobType))
	}
	return fmt.Sprintf("%s/Job/jobs.htm?%s", strings.TrimRight(base, "/"), values.Encode())
}

// parseGlassdoorJobs merges JSON-LD postings with listing cards; JSON-LD
// wins when both describe the same URL.
func parseGlassdoorJobs(doc *goquery.Document, base string, now time.Time) []models.RawJob {
	jobs := parseJSONLDJobs(doc, models.SourceGlassdoor)
	jobs = append(jobs, parseGlassdoorCards(doc, base, now)...)
	return dedupeJobs(jobs)
}

func parseGlassdoorCards(doc *goquery.Document, base string, now time.Time) []models.RawJob {
	var jobs []models.RawJob

	doc.Find(".react-job-listing, li[data-test='jobListing']").Each(func(_ int, s *goquery.Selection) {
		title := cleanText(s.Find(".jobLink").First().Text())
		if title == "" {
			title = cleanText(s.Find("[data-test='job-title']").First().Text())
		}

		company := cleanText(s.Find(".jobEmployerName").First().Text())
		if company == "" {
			company = cleanText(s.Find("[data-test='employer-name'], .EmployerProfile_compactEmployerName__LE242").First().Text())
		}

		location := cleanText(s.Find(".jobLocation").First().Text())
		if location == "" {
			location = cleanText(s.Find("[data-test='emp-location']").First().Text())
		}

		link := s.Find("a.jobLink, a[data-test='job-title']").First().AttrOr("href", "")
		job := models.RawJob{
			Title:    title,
			Company:  company,
			Location: location,
			URL:      absoluteURL(base, link),
			Salary:   parseSalaryText(s.Find(".salarySnippet, [data-test='detailSalary']").First().Text()),
		}
		if id := s.AttrOr("data-id", s.AttrOr("data-jobid", "")); id != "" {
			job.ID = "glassdoor:" + id
		}
		setPosted(&job, s.Find("[data-test='job-age'], .listing-age").First().Text(), now)
		if isRemote(location) {
			setMeta(&job, models.MetaRemote, true)
		}

		if job.Title == "" || job.URL == "" {
			return
		}
		jobs = append(jobs, job)
	})

	return jobs
}
