package scraper

import (
	"strings"
	"testing"

	"github.com/MrJJimenez/jobscout/internal/models"
)

func TestParseLinkedInJobs(t *testing.T) {
	html := `
<ul class="jobs-search__results-list">
  <li>
    <div class="base-card base-search-card" data-entity-urn="urn:li:jobPosting:3812345678">
      <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/staff-engineer-3812345678?refId=abc&trk=public"></a>
      <h3 class="base-search-card__title">Staff Engineer</h3>
      <h4 class="base-search-card__subtitle">Example Co</h4>
      <span class="job-search-card__location">Remote</span>
      <span class="job-search-card__salary-info">$180,000.00 - $220,000.00</span>
      <time class="job-search-card__listdate" datetime="2024-01-10">2 weeks ago</time>
    </div>
  </li>
  <li>
    <div class="base-card">
      <a class="base-card__full-link" href="/jobs/view/2"></a>
      <h3 class="base-search-card__title">Platform Engineer</h3>
      <h4 class="base-search-card__subtitle">Remote Co</h4>
      <span class="job-search-card__location">Berlin, Germany</span>
      <div class="job-search-card__snippet">
        This is a remote-first position
      </div>
      <time>3 days ago</time>
    </div>
  </li>
</ul>`

	doc := mustDoc(t, html)
	jobs := parseLinkedInJobs(doc, linkedInBaseURL, refNow)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	first := jobs[0]
	if first.Title != "Staff Engineer" || first.Company != "Example Co" {
		t.Fatalf("unexpected first job: %+v", first)
	}
	if first.ID != "linkedin:3812345678" {
		t.Fatalf("unexpected id: %q", first.ID)
	}
	if strings.Contains(first.URL, "?") {
		t.Fatalf("expected tracking query to be stripped, got %q", first.URL)
	}
	if first.Salary == nil || first.Salary.Min != 180000 || first.Salary.Max != 220000 {
		t.Fatalf("unexpected salary: %+v", first.Salary)
	}
	if first.PostedDate.Format("2006-01-02") != "2024-01-10" {
		t.Fatalf("expected datetime attribute to win, got %v", first.PostedDate)
	}
	if first.Metadata[models.MetaRemote] != true {
		t.Fatalf("expected remote flag")
	}

	second := jobs[1]
	if second.URL != "https://www.linkedin.com/jobs/view/2" {
		t.Fatalf("expected absolute url, got %q", second.URL)
	}
	if second.Description != "This is a remote-first position" {
		t.Fatalf("unexpected snippet: %q", second.Description)
	}
	if second.Metadata[models.MetaRemote] != true {
		t.Fatalf("expected remote flag from snippet")
	}
	if second.Metadata[models.MetaPostedRaw] != "3 days ago" {
		t.Fatalf("unexpected posted label: %v", second.Metadata[models.MetaPostedRaw])
	}
}

func TestDetectLinkedInBlock(t *testing.T) {
	doc := mustDoc(t, `<html><body><form class="login__form"></form></body></html>`)
	if err := detectLinkedInBlock(doc); ErrorCode(err) != CodeBlocked {
		t.Fatalf("expected BLOCKED, got %v", err)
	}
}

func TestLinkedInJobID(t *testing.T) {
	cases := map[string]string{
		"urn:li:jobPosting:123": "123",
		"urn:li:jobPosting:":    "",
		"urn:li:jobPosting:abc": "",
		"":                      "",
	}
	for urn, want := range cases {
		if got := linkedInJobID(urn); got != want {
			t.Fatalf("linkedInJobID(%q) = %q, want %q", urn, got, want)
		}
	}
}

func TestBuildLinkedInURL(t *testing.T) {
	got := buildLinkedInURL(linkedInBaseURL, models.ScrapeConfig{SearchQuery: "go developer", Location: "Austin, TX", JobType: "full-time"})
	for _, part := range []string{"/jobs/search?", "keywords=go+developer", "location=Austin%2C+TX", "f_JT=F"} {
		if !strings.Contains(got, part) {
			t.Fatalf("expected %q in %s", part, got)
		}
	}
}
