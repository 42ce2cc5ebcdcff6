package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	linkedInBaseURL   = "https://www.linkedin.com"
	linkedInUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// LinkedIn renders the public job search page in headless Chrome.
type LinkedIn struct {
	base
	baseURL    string
	chromePath string
}

func NewLinkedIn(opts Options) *LinkedIn {
	return &LinkedIn{
		base:       newBase(models.SourceLinkedIn, opts),
		baseURL:    opts.baseURL(models.SourceLinkedIn, linkedInBaseURL),
		chromePath: opts.ChromePath,
	}
}

func (l *LinkedIn) Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult {
	return l.collect(ctx, cfg, func(ctx context.Context) ([]models.RawJob, error) {
		page, finalURL, err := l.render(ctx, buildLinkedInURL(l.baseURL, cfg))
		if err != nil {
			return nil, err
		}
		if strings.Contains(finalURL, "authwall") || strings.Contains(finalURL, "/checkpoint/") {
			return nil, blocked("login wall")
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
		if err != nil {
			return nil, parseFailed(err)
		}
		jobs := parseLinkedInJobs(doc, l.baseURL, l.now())
		if len(jobs) == 0 {
			if err := detectLinkedInBlock(doc); err != nil {
				return nil, err
			}
		}
		return jobs, nil
	})
}

// render loads target in a fresh browser and returns the page markup and the
// URL the browser ended on. The browser is shut down on every return path.
func (l *LinkedIn) render(ctx context.Context, target string) (string, string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(linkedInUserAgent),
		chromedp.WindowSize(1366, 900),
	)
	if l.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(l.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return "", "", launchFailed(err)
	}

	var page, finalURL string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return "", "", codedError(CodeNavigation, fmt.Errorf("navigate %s: %w", target, err))
	}
	return page, finalURL, nil
}

func buildLinkedInURL(base string, cfg models.ScrapeConfig) string {
	values := url.Values{}
	values.Set("keywords", cfg.SearchQuery)
	if cfg.Location != "" {
		values.Set("location", cfg.Location)
	}
	if code := linkedInJobType(cfg.JobType); code != "" {
		values.Set("f_JT", code)
	}
	return fmt.Sprintf("%s/jobs/search?%s", strings.TrimRight(base, "/"), values.Encode())
}

func linkedInJobType(jobType string) string {
	switch strings.ToLower(strings.ReplaceAll(jobType, "-", "")) {
	case "fulltime":
		return "F"
	case "parttime":
		return "P"
	case "contract":
		return "C"
	case "temporary":
		return "T"
	case "internship":
		return "I"
	}
	return ""
}

func detectLinkedInBlock(doc *goquery.Document) error {
	if doc.Find("form.login__form, form#join-form, .authwall-join-form").Length() > 0 {
		return blocked("login wall")
	}
	return detectBlock(doc)
}

func parseLinkedInJobs(doc *goquery.Document, base string, now time.Time) []models.RawJob {
	var jobs []models.RawJob

	doc.Find("h3.base-search-card__title").Each(func(_ int, heading *goquery.Selection) {
		card := heading.Closest("li")
		if card.Length() == 0 {
			card = heading.Closest("div.base-card, div.base-search-card")
		}
		if card.Length() == 0 {
			card = heading.Parent()
		}

		title := cleanText(heading.Text())
		company := cleanText(card.Find("h4.base-search-card__subtitle").First().Text())
		location := cleanText(card.Find("span.job-search-card__location").First().Text())
		snippet := cleanText(card.Find("div.job-search-card__snippet").First().Text())
		link := card.Find("a.base-card__full-link").First().AttrOr("href", "")
		if link == "" {
			link = card.Find("a").First().AttrOr("href", "")
		}

		job := models.RawJob{
			Title:       title,
			Company:     company,
			Location:    location,
			URL:         stripQuery(absoluteURL(base, link)),
			Description: snippet,
			Salary:      parseSalaryText(card.Find("span.job-search-card__salary-info").First().Text()),
		}
		urn := card.AttrOr("data-entity-urn", card.Find("[data-entity-urn]").First().AttrOr("data-entity-urn", ""))
		if id := linkedInJobID(urn); id != "" {
			job.ID = "linkedin:" + id
		}

		posted := card.Find("time").First()
		if datetime := posted.AttrOr("datetime", ""); datetime != "" {
			setPosted(&job, datetime, now)
		} else {
			setPosted(&job, posted.Text(), now)
		}
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

// linkedInJobID extracts the numeric id from "urn:li:jobPosting:123".
func linkedInJobID(urn string) string {
	idx := strings.LastIndex(urn, ":")
	if idx < 0 || idx == len(urn)-1 {
		return ""
	}
	id := urn[idx+1:]
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

func stripQuery(link string) string {
	if idx := strings.IndexAny(link, "?#"); idx >= 0 {
		return link[:idx]
	}
	return link
}
