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

const indeedBaseURL = "https://www.indeed.com"

type Indeed struct {
	base
	open    func() (*network.Client, error)
	baseURL string
}

func NewIndeed(opts Options) *Indeed {
	return &Indeed{
		base:    newBase(models.SourceIndeed, opts),
		open:    opts.openClient,
		baseURL: opts.baseURL(models.SourceIndeed, indeedBaseURL),
	}
}

func (i *Indeed) Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult {
	return i.collect(ctx, cfg, func(ctx context.Context) ([]models.RawJob, error) {
		client, err := i.open()
		if err != nil {
			return nil, launchFailed(err)
		}
		defer client.Close()

		doc, err := fetchDocument(ctx, client, buildIndeedURL(i.baseURL, cfg), nil)
		if err != nil {
			return nil, err
		}
		jobs := parseIndeedJobs(doc, i.baseURL, i.now())
		if len(jobs) == 0 {
			if err := detectBlock(doc); err != nil {
				return nil, err
			}
		}
		return jobs, nil
	})
}

func buildIndeedURL(base string, cfg models.ScrapeConfig) string {
	values := url.Values{}
	values.Set("q", cfg.SearchQuery)
	if cfg.Location != "" {
		values.Set("l", cfg.Location)
	}
	if cfg.JobType != "" {
		values.Set("jt", strings.ReplaceAll(strings.ToLower(cfg.JobType), "-", ""))
	}
	return fmt.Sprintf("%s/jobs?%s", strings.TrimRight(base, "/"), values.Encode())
}

func parseIndeedJobs(doc *goquery.Document, base string, now time.Time) []models.RawJob {
	var jobs []models.RawJob

	doc.Find("a.tapItem, div.job_seen_beacon").Each(func(_ int, s *goquery.Selection) {
		title := cleanText(s.Find("h2.jobTitle span[title]").First().AttrOr("title", ""))
		if title == "" {
			title = cleanText(s.Find("h2.jobTitle span").First().Text())
		}
		company := cleanText(s.Find("span.companyName, [data-testid='company-name']").First().Text())
		location := cleanText(s.Find("div.companyLocation, [data-testid='text-location']").First().Text())
		snippet := cleanText(s.Find("div.job-snippet").Text())

		link := s.AttrOr("href", "")
		if link == "" {
			link = s.Find("h2.jobTitle a").First().AttrOr("href", "")
		}
		link = absoluteURL(base, link)

		job := models.RawJob{
			Title:       title,
			Company:     company,
			Location:    location,
			URL:         link,
			Description: snippet,
			Salary:      parseSalaryText(s.Find("div.salary-snippet-container, div.metadata.salary-snippet-container, [data-testid='attribute_snippet_testid']").First().Text()),
		}
		if jk := s.AttrOr("data-jk", s.Find("[data-jk]").First().AttrOr("data-jk", "")); jk != "" {
			job.ID = "indeed:" + jk
		}
		setPosted(&job, s.Find("span.date").First().Text(), now)
		if isRemote(location, snippet) {
			setMeta(&job, models.MetaRemote, true)
		}

		if job.Title == "" || job.URL == "" {
			return
		}
		jobs = append(jobs, job)
	})

	return dedupeJobs(jobs)
}
