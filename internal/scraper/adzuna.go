package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/network"
	fhttp "github.com/bogdanfinn/fhttp"
)

const (
	adzunaBaseURL        = "https://api.adzuna.com/v1/api/jobs"
	adzunaDefaultCountry = "us"
	adzunaPageSize       = 50
)

var errAdzunaCredentials = errors.New("adzuna app id and app key are not configured")

var adzunaCurrencies = map[string]string{
	"at": "EUR", "au": "AUD", "be": "EUR", "br": "BRL", "ca": "CAD", "ch": "CHF",
	"de": "EUR", "es": "EUR", "fr": "EUR", "gb": "GBP", "in": "INR", "it": "EUR",
	"mx": "MXN", "nl": "EUR", "nz": "NZD", "pl": "PLN", "sg": "SGD", "us": "USD",
	"za": "ZAR",
}

// Adzuna queries the public Adzuna search API.
type Adzuna struct {
	base
	open        func() (*network.Client, error)
	baseURL     string
	credentials AdzunaCredentials
}

func NewAdzuna(opts Options) *Adzuna {
	credentials := opts.Adzuna
	credentials.Country = strings.ToLower(strings.TrimSpace(credentials.Country))
	if credentials.Country == "" {
		credentials.Country = adzunaDefaultCountry
	}
	return &Adzuna{
		base:        newBase(models.SourceAdzuna, opts),
		open:        opts.openClient,
		baseURL:     opts.baseURL(models.SourceAdzuna, adzunaBaseURL),
		credentials: credentials,
	}
}

func (a *Adzuna) Scrape(ctx context.Context, cfg models.ScrapeConfig) models.ScraperResult {
	return a.collect(ctx, cfg, func(ctx context.Context) ([]models.RawJob, error) {
		if a.credentials.AppID == "" || a.credentials.AppKey == "" {
			return nil, codedError(CodeConfigMissing, errAdzunaCredentials)
		}

		client, err := a.open()
		if err != nil {
			return nil, launchFailed(err)
		}
		defer client.Close()

		body, err := a.fetchPage(ctx, client, cfg)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		jobs, err := decodeAdzunaJobs(body, a.credentials.Country, a.now())
		if err != nil {
			return nil, parseFailed(err)
		}
		return jobs, nil
	})
}

func (a *Adzuna) fetchPage(ctx context.Context, client *network.Client, cfg models.ScrapeConfig) (io.ReadCloser, error) {
	target := buildAdzunaURL(a.baseURL, a.credentials, cfg)
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, codedError(CodeNavigation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("adzuna request: %w", err)
	}

	switch {
	case resp.StatusCode == fhttp.StatusUnauthorized || resp.StatusCode == fhttp.StatusForbidden:
		resp.Body.Close()
		return nil, codedError(CodeConfigMissing, fmt.Errorf("adzuna rejected credentials: %w", &network.StatusError{Code: resp.StatusCode}))
	case resp.StatusCode >= 400:
		resp.Body.Close()
		return nil, fmt.Errorf("adzuna request: %w", &network.StatusError{Code: resp.StatusCode})
	}
	return resp.Body, nil
}

func buildAdzunaURL(base string, credentials AdzunaCredentials, cfg models.ScrapeConfig) string {
	perPage := adzunaPageSize
	if cfg.MaxResults > 0 && cfg.MaxResults < perPage {
		perPage = cfg.MaxResults
	}

	params := url.Values{}
	params.Set("app_id", credentials.AppID)
	params.Set("app_key", credentials.AppKey)
	params.Set("results_per_page", strconv.Itoa(perPage))
	params.Set("what", cfg.SearchQuery)
	if cfg.Location != "" {
		params.Set("where", cfg.Location)
	}
	switch strings.ToLower(strings.ReplaceAll(cfg.JobType, "-", "")) {
	case "fulltime":
		params.Set("full_time", "1")
	case "parttime":
		params.Set("part_time", "1")
	case "contract":
		params.Set("contract", "1")
	}
	params.Set("content-type", "application/json")
	return fmt.Sprintf("%s/%s/search/1?%s", strings.TrimRight(base, "/"), credentials.Country, params.Encode())
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Company         adzunaName     `json:"company"`
	Location        adzunaName     `json:"location"`
	SalaryMin       float64        `json:"salary_min"`
	SalaryMax       float64        `json:"salary_max"`
	SalaryPredicted string         `json:"salary_is_predicted"`
	RedirectURL     string         `json:"redirect_url"`
	Created         string         `json:"created"`
	ContractTime    string         `json:"contract_time"`
	Category        map[string]any `json:"category"`
}

type adzunaName struct {
	DisplayName string `json:"display_name"`
}

func decodeAdzunaJobs(body io.Reader, country string, now time.Time) ([]models.RawJob, error) {
	var resp adzunaResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode adzuna response: %w", err)
	}

	jobs := make([]models.RawJob, 0, len(resp.Results))
	for _, r := range resp.Results {
		job := models.RawJob{
			Title:       htmlText(r.Title),
			Company:     cleanText(r.Company.DisplayName),
			Location:    cleanText(r.Location.DisplayName),
			URL:         r.RedirectURL,
			Description: htmlText(r.Description),
			JobType:     strings.ReplaceAll(r.ContractTime, "_", "-"),
		}
		if r.ID != "" {
			job.ID = "adzuna:" + r.ID
		}
		if r.SalaryMin > 0 || r.SalaryMax > 0 {
			job.Salary = &models.Salary{
				Min:      r.SalaryMin,
				Max:      r.SalaryMax,
				Currency: adzunaCurrencies[country],
				Period:   models.PeriodYearly,
			}
			if r.SalaryPredicted == "1" {
				setMeta(&job, "salaryPredicted", true)
			}
		}
		setPosted(&job, r.Created, now)
		if isRemote(job.Location, job.Title) {
			setMeta(&job, models.MetaRemote, true)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
