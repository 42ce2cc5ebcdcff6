package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/network"
	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
)

func fetchDocument(ctx context.Context, client *network.Client, target string, headers map[string]string) (*goquery.Document, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, codedError(CodeNavigation, err)
	}

	applyHeaders(req, headers)
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: %w", target, &network.StatusError{Code: resp.StatusCode})
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, parseFailed(err)
	}
	return doc, nil
}

func applyHeaders(req *fhttp.Request, headers map[string]string) {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["accept"]; !ok {
		headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	if _, ok := headers["accept-language"]; !ok {
		headers["accept-language"] = "en-US,en;q=0.9"
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

var blockMarkers = []string{
	"captcha",
	"just a moment",
	"security check",
	"access denied",
	"are you a robot",
	"unusual traffic",
}

// detectBlock recognizes interstitial pages served instead of results.
func detectBlock(doc *goquery.Document) error {
	title := strings.ToLower(cleanText(doc.Find("title").First().Text()))
	for _, marker := range blockMarkers {
		if strings.Contains(title, marker) {
			return blocked(title)
		}
	}
	if doc.Find("#challenge-form, iframe[src*='captcha'], div.g-recaptcha").Length() > 0 {
		return blocked("challenge page")
	}
	return nil
}

func cleanText(value string) string {
	value = html.UnescapeString(value)
	return strings.Join(strings.Fields(value), " ")
}

// htmlText strips markup from a fragment, as found in JSON-LD descriptions.
func htmlText(fragment string) string {
	fragment = html.UnescapeString(fragment)
	if !strings.Contains(fragment, "<") {
		return cleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanText(fragment)
	}
	return cleanText(doc.Text())
}

func absoluteURL(base string, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func isRemote(values ...string) bool {
	value := strings.ToLower(strings.Join(values, " "))
	for _, term := range []string{"remote", "home office", "home-office", "homeoffice", "work from home"} {
		if strings.Contains(value, term) {
			return true
		}
	}
	return false
}

func setMeta(job *models.RawJob, key string, value any) {
	if job.Metadata == nil {
		job.Metadata = map[string]any{}
	}
	job.Metadata[key] = value
}

func parseJSONLDJobs(doc *goquery.Document, source models.Source) []models.RawJob {
	var jobs []models.RawJob
	seen := map[string]struct{}{}

	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		data, err := decodeJSONLD(raw)
		if err != nil {
			return
		}

		for _, job := range extractJobsFromJSONLD(data, source) {
			key := jobKey(job)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			jobs = append(jobs, job)
		}
	})

	return jobs
}

func decodeJSONLD(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "\u2028", "")
	raw = strings.ReplaceAll(raw, "\u2029", "")

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func extractJobsFromJSONLD(data any, source models.Source) []models.RawJob {
	var jobs []models.RawJob

	switch value := data.(type) {
	case []any:
		for _, item := range value {
			jobs = append(jobs, extractJobsFromJSONLD(item, source)...)
		}
	case map[string]any:
		switch strings.ToLower(stringValue(value["@type"], value["type"])) {
		case "jobposting":
			return append(jobs, jobFromJobPosting(value, source))
		case "itemlist":
			jobs = append(jobs, jobsFromItemList(value, source)...)
		case "listitem":
			if item, ok := value["item"]; ok {
				jobs = append(jobs, extractJobsFromJSONLD(item, source)...)
			}
		}
		if graph, ok := value["@graph"]; ok {
			jobs = append(jobs, extractJobsFromJSONLD(graph, source)...)
		}
		if main, ok := value["mainEntity"]; ok {
			jobs = append(jobs, extractJobsFromJSONLD(main, source)...)
		}
	}

	return jobs
}

func jobsFromItemList(value map[string]any, source models.Source) []models.RawJob {
	items, ok := value["itemListElement"]
	if !ok {
		return nil
	}

	var jobs []models.RawJob
	switch list := items.(type) {
	case []any:
		for _, item := range list {
			jobs = append(jobs, extractJobsFromJSONLD(item, source)...)
		}
	case map[string]any:
		jobs = append(jobs, extractJobsFromJSONLD(list, source)...)
	}
	return jobs
}

func jobFromJobPosting(value map[string]any, source models.Source) models.RawJob {
	job := models.RawJob{Source: source}
	job.Title = cleanText(stringValue(value["title"], value["name"]))
	job.Company = cleanText(stringValue(mapValue(value["hiringOrganization"], "name"), value["hiringOrganization"]))
	job.URL = stringValue(value["url"], value["@id"])
	job.JobType = employmentType(value["employmentType"])
	job.Salary = salaryFromJSONLD(value["baseSalary"])
	job.Location = locationFromJSONLD(value["jobLocation"])
	job.Description = htmlText(stringValue(value["description"]))

	if posted := stringValue(value["datePosted"]); posted != "" {
		setMeta(&job, models.MetaPostedRaw, posted)
		if ts, err := parsePostedAt(posted); err == nil {
			job.PostedDate = ts
		}
	}

	remote := strings.EqualFold(stringValue(value["jobLocationType"]), "TELECOMMUTE") || isRemote(job.Location)
	if remote {
		setMeta(&job, models.MetaRemote, true)
		if job.Location == "" {
			job.Location = "Remote"
		}
	}
	return job
}

func employmentType(value any) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringValue(item); s != "" {
				parts = append(parts, strings.ToLower(s))
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.ToLower(stringValue(v))
	}
}

func locationFromJSONLD(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case []any:
		var parts []string
		for _, item := range v {
			loc := locationFromJSONLD(item)
			if loc != "" {
				parts = append(parts, loc)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if addressMap, ok := v["address"].(map[string]any); ok {
			return joinAddress(addressMap)
		}
		return joinAddress(v)
	case string:
		return cleanText(v)
	}

	return ""
}

func joinAddress(value map[string]any) string {
	parts := []string{
		stringValue(value["addressLocality"]),
		stringValue(value["addressRegion"]),
		stringValue(value["addressCountry"]),
	}
	var cleaned []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cleaned = append(cleaned, part)
	}
	return strings.Join(cleaned, ", ")
}

func stringValue(values ...any) string {
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
		case int:
			return fmt.Sprintf("%d", v)
		case int64:
			return fmt.Sprintf("%d", v)
		case json.Number:
			return v.String()
		case map[string]any:
			if name := stringValue(v["name"]); name != "" {
				return name
			}
		}
	}
	return ""
}

func mapValue(value any, key string) any {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func jobKey(job models.RawJob) string {
	if job.URL != "" {
		return job.URL
	}
	if job.Title == "" {
		return ""
	}
	return strings.ToLower(job.Title + "|" + job.Company + "|" + job.Location)
}

func dedupeJobs(jobs []models.RawJob) []models.RawJob {
	seen := map[string]struct{}{}
	out := make([]models.RawJob, 0, len(jobs))
	for _, job := range jobs {
		key := jobKey(job)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, job)
	}
	return out
}
