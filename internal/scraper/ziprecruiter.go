package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/network"
	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"
)

const (
	zipRecruiterBaseURL   = "https://www.ziprecruiter.com"
	zipRecruiterUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ZipRecruiter fetches the search page with a colly collector built per scrape.
type ZipRecruiter struct {
	base
	baseURL string
	rotator *network.Rotator
	timeout time.Duration
	rps     float64
}

func NewZipRecruiter(opts Options) *ZipRecruiter {
	timeout := opts.HTTP.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ZipRecruiter{
		base:    newBase(models.SourceZipRecruiter, opts),
		baseURL: opts.baseURL(models.SourceZipRecruiter, zipRecruiterBaseURL),
		rotator: opts.Rotator,
		timeout: timeout,
		rps:     opts.HTTP.RequestsPerSecond,
	}
}

func (z *ZipRecruiter) Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult {
	return z.collect(ctx, cfg, func(ctx context.Context) ([]models.RawJob, error) {
		return z.fetch(ctx, buildZipRecruiterURL(z.baseURL, cfg))
	})
}

func (z *ZipRecruiter) fetch(ctx context.Context, target string) ([]models.RawJob, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: z.timeout,
		IdleConnTimeout:       30 * time.Second,
		MaxIdleConns:          4,
	}
	defer transport.CloseIdleConnections()

	var proxy *url.URL
	if z.rotator != nil {
		if next, err := z.rotator.Next(); err == nil && next != nil {
			proxy = next
			transport.Proxy = http.ProxyURL(next)
		}
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.UserAgent(zipRecruiterUserAgent),
	)
	c.WithTransport(transport)
	c.SetRequestTimeout(z.timeout)
	if z.rps > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: time.Duration(float64(time.Second) / z.rps)}); err != nil {
			return nil, launchFailed(err)
		}
	}

	var (
		jobs     []models.RawJob
		status   int
		parseErr error
	)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = parseFailed(err)
			return
		}
		jobs = parseZipRecruiterJobs(doc, z.baseURL, z.now())
		if len(jobs) == 0 {
			parseErr = detectBlock(doc)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	visitErr := c.Visit(target)
	if proxy != nil && status > 0 {
		z.rotator.Report(proxy, status)
	}
	if visitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if status >= 400 {
			return nil, fmt.Errorf("fetch %s: %w", target, &network.StatusError{Code: status})
		}
		return nil, codedError(CodeNavigation, fmt.Errorf("fetch %s: %w", target, visitErr))
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return jobs, nil
}

func buildZipRecruiterURL(base string, cfg models.ScrapeConfig) string {
	values := url.Values{}
	values.Set("search", cfg.SearchQuery)
	if cfg.Location != "" {
		values.Set("location", cfg.Location)
	}
	if cfg.JobType != "" {
		values.Set("employment_type", strings.ReplaceAll(strings.ToLower(cfg.JobType), "-", "_"))
	}
	return fmt.Sprintf("%s/jobs-search?%s", strings.TrimRight(base, "/"), values.Encode())
}

func parseZipRecruiterJobs(doc *goquery.Document, base string, now time.Time) []models.RawJob {
	jobs := parseJSONLDJobs(doc, models.SourceZipRecruiter)

	doc.Find("article.job_result, div.job_content").Each(func(_ int, s *goquery.Selection) {
		titleLink := s.Find("a.job_link, h2.title a, a[data-testid='job-title']").First()
		title := cleanText(titleLink.Text())
		if title == "" {
			title = cleanText(s.Find("h2").First().Text())
		}
		company := cleanText(s.Find("a.company_name, .t_org_link, [data-testid='job-card-company']").First().Text())
		location := cleanText(s.Find(".company_location, .location, [data-testid='job-card-location']").First().Text())
		snippet := cleanText(s.Find(".job_snippet, p.job_snippet").First().Text())

		job := models.RawJob{
			Title:       title,
			Company:     company,
			Location:    location,
			URL:         absoluteURL(base, titleLink.AttrOr("href", "")),
			Description: snippet,
			Salary:      parseSalaryText(s.Find(".perk_item.perk_pay, .salary, [data-testid='job-card-salary']").First().Text()),
		}
		if id := s.AttrOr("data-job-id", s.AttrOr("id", "")); id != "" {
			job.ID = "ziprecruiter:" + strings.TrimPrefix(id, "job-card-")
		}
		setPosted(&job, s.Find(".job_age, [data-testid='job-card-posted']").First().Text(), now)
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
