package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/network"
	"github.com/PuerkitoBio/goquery"
)

const (
	stepstoneBaseURL  = "https://www.stepstone.de"
	stepstonePageSize = 25
	stepstoneMaxPages = 4
)

var stepstoneHeaders = map[string]string{
	"accept-language": "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7",
}

type Stepstone struct {
	base
	open    func() (*network.Client, error)
	baseURL string
}

func NewStepstone(opts Options) *Stepstone {
	return &Stepstone{
		base:    newBase(models.SourceStepstone, opts),
		open:    opts.openClient,
		baseURL: opts.baseURL(models.SourceStepstone, stepstoneBaseURL),
	}
}

func (s *Stepstone) Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult {
	return s.collect(ctx, cfg, func(ctx context.Context) ([]models.RawJob, error) {
		client, err := s.open()
		if err != nil {
			return nil, launchFailed(err)
		}
		defer client.Close()
		return s.fetchPages(ctx, client, cfg)
	})
}

// fetchPages walks result pages until enough jobs are collected. A failure
// after the first page keeps what was already read.
func (s *Stepstone) fetchPages(ctx context.Context, client *network.Client, cfg models.ScrapeConfig) ([]models.RawJob, error) {
	var jobs []models.RawJob
	seen := map[string]struct{}{}
	limit := cfg.MaxResults

	for page := 1; page <= stepstoneMaxPages; page++ {
		if limit > 0 && len(jobs) >= limit {
			break
		}

		headers := make(map[string]string, len(stepstoneHeaders))
		for key, value := range stepstoneHeaders {
			headers[key] = value
		}
		doc, err := fetchDocument(ctx, client, buildStepstoneURL(s.baseURL, cfg, page), headers)
		if err != nil {
			if len(jobs) > 0 {
				return jobs, fmt.Errorf("page %d: %w", page, err)
			}
			return nil, err
		}

		pageJobs := parseStepstoneJobs(doc, s.baseURL, s.now())
		if len(pageJobs) == 0 {
			if page == 1 {
				if err := detectBlock(doc); err != nil {
					return nil, err
				}
			}
			break
		}

		added := 0
		for _, job := range pageJobs {
			if _, ok := seen[job.URL]; ok {
				continue
			}
			seen[job.URL] = struct{}{}
			jobs = append(jobs, job)
			added++
		}
		if added == 0 || len(pageJobs) < stepstonePageSize {
			break
		}
	}

	return jobs, nil
}

func buildStepstoneURL(base string, cfg models.ScrapeConfig, page int) string {
	query := stepstoneSlug(cfg.SearchQuery)
	if query == "" {
		query = strings.ToLower(strings.TrimSpace(cfg.SearchQuery))
	}
	path := fmt.Sprintf("%s/jobs/%s", strings.TrimRight(base, "/"), url.PathEscape(query))
	if cfg.Location != "" {
		if location := stepstoneSlug(cfg.Location); location != "" {
			path = fmt.Sprintf("%s/in-%s", path, url.PathEscape(location))
		}
	}
	if page > 1 {
		return fmt.Sprintf("%s?page=%d", path, page)
	}
	return path
}

func stepstoneSlug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	var b strings.Builder
	lastDash := false
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func parseStepstoneJobs(doc *goquery.Document, base string, now time.Time) []models.RawJob {
	jobs := parseJSONLDJobs(doc, models.SourceStepstone)
	jobs = append(jobs, parseStepstoneJobCards(doc, base, now)...)
	return dedupeJobs(jobs)
}

func parseStepstoneJobCards(doc *goquery.Document, base string, now time.Time) []models.RawJob {
	var jobs []models.RawJob
	seen := map[string]struct{}{}

	doc.Find("a[href*='stellenangebote--']").Each(func(_ int, s *goquery.Selection) {
		link := absoluteURL(base, s.AttrOr("href", ""))
		if link == "" {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}

		title := cleanText(s.Text())
		if title == "" {
			return
		}

		card := stepstoneCardForAnchor(s)
		details := stepstoneParseCard(card, title)

		job := models.RawJob{
			Title:       title,
			Company:     details.company,
			Location:    details.location,
			URL:         link,
			Description: details.snippet,
			Salary:      parseSalaryText(details.salary),
		}
		setPosted(&job, details.posted, now)
		if details.remote || isRemote(details.location, details.snippet) {
			setMeta(&job, models.MetaRemote, true)
		}
		jobs = append(jobs, job)
		seen[link] = struct{}{}
	})

	return jobs
}

func stepstoneCardForAnchor(s *goquery.Selection) *goquery.Selection {
	if s == nil {
		return nil
	}
	if card := s.Closest("article"); card.Length() > 0 {
		return card
	}
	if card := s.Closest("li"); card.Length() > 0 {
		return card
	}
	if card := s.Closest("section"); card.Length() > 0 {
		return card
	}
	if card := s.Closest("div"); card.Length() > 0 {
		return card
	}
	return s.Parent()
}

type stepstoneCard struct {
	company  string
	location string
	snippet  string
	posted   string
	salary   string
	remote   bool
}

func stepstoneParseCard(card *goquery.Selection, title string) stepstoneCard {
	var details stepstoneCard
	if card == nil || card.Length() == 0 {
		return details
	}

	details.posted = stepstonePostedText(card)
	lines := stepstoneCardLines(card, title)

	candidates := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case stepstoneIsRemoteLine(line):
			details.remote = true
		case stepstoneIsSalaryLine(line):
			if details.salary == "" {
				details.salary = line
			}
		case stepstoneIsPostedLine(line):
			if details.posted == "" {
				details.posted = line
			}
		case stepstoneIsNoiseLine(line):
		default:
			candidates = append(candidates, line)
		}
	}

	if len(candidates) > 0 {
		details.company = candidates[0]
	}
	if len(candidates) > 1 {
		details.location = candidates[1]
	}
	if len(candidates) > 2 {
		for _, line := range candidates[2:] {
			if len(line) >= 30 {
				details.snippet = line
				break
			}
		}
		if details.snippet == "" {
			details.snippet = candidates[2]
		}
	}

	return details
}

func stepstoneCardLines(card *goquery.Selection, title string) []string {
	raw := card.Text()
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, part := range parts {
		line := cleanText(part)
		if line == "" || line == title {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

func stepstonePostedText(card *goquery.Selection) string {
	if card == nil {
		return ""
	}
	if value := cleanText(card.Find("time").First().AttrOr("datetime", "")); value != "" {
		return value
	}
	if value := cleanText(card.Find("time").First().Text()); value != "" {
		return value
	}
	return ""
}

func stepstoneIsRemoteLine(line string) bool {
	value := strings.ToLower(line)
	return strings.Contains(value, "home-office") ||
		strings.Contains(value, "homeoffice") ||
		strings.Contains(value, "remote")
}

func stepstoneIsPostedLine(line string) bool {
	value := strings.ToLower(line)
	if strings.HasPrefix(value, "vor ") {
		return true
	}
	return value == "heute" || value == "gestern"
}

func stepstoneIsSalaryLine(line string) bool {
	return strings.Contains(line, "€") && strings.IndexFunc(line, unicode.IsDigit) >= 0
}

func stepstoneIsNoiseLine(line string) bool {
	value := strings.ToLower(line)
	switch value {
	case "gehalt", "gehalt anzeigen", "mehr", "neu", "top-job":
		return true
	}
	if strings.Contains(value, "gehalt anzeigen") {
		return true
	}
	if strings.Contains(value, "schnelle bewerbung") {
		return true
	}
	if strings.Contains(value, "anschreiben nicht erforderlich") {
		return true
	}
	return false
}
