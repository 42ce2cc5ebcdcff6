package scraper

import (
	"strings"
	"testing"

	"github.com/MrJJimenez/jobscout/internal/models"
)

func TestStepstoneParseCard_ExtractsTeaserSnippet(t *testing.T) {
	html := `
<article>
  <h2>Platform Engineer</h2>
  <div>Example GmbH</div>
  <div>Munich, Bavaria, Germany</div>
  <p data-at="job-item-teaser">Build distributed backend services.</p>
  <time>vor 2 Tagen</time>
</article>`

	doc := mustDoc(t, html)
	card := doc.Find("article").First()
	details := stepstoneParseCard(card, "Platform Engineer")

	if details.company != "Example GmbH" {
		t.Fatalf("unexpected company: %q", details.company)
	}
	if details.location != "Munich, Bavaria, Germany" {
		t.Fatalf("unexpected location: %q", details.location)
	}
	if details.snippet != "Build distributed backend services." {
		t.Fatalf("unexpected snippet: %q", details.snippet)
	}
	if details.posted != "vor 2 Tagen" {
		t.Fatalf("unexpected posted: %q", details.posted)
	}
	if details.remote {
		t.Fatalf("expected remote false")
	}
}

func TestStepstoneParseCard_DoesNotUseLocationAsSnippet(t *testing.T) {
	html := `
<article>
  <h2>Platform Engineer</h2>
  <div>Example GmbH</div>
  <div>Munich, Bavaria, Germany</div>
  <div data-testid="job-item-teaser">Munich, Bavaria, Germany</div>
</article>`

	doc := mustDoc(t, html)
	details := stepstoneParseCard(doc.Find("article").First(), "Platform Engineer")

	if details.snippet != "" {
		t.Fatalf("expected empty snippet, got %q", details.snippet)
	}
}

func TestStepstoneParseCard_SalaryAndRemote(t *testing.T) {
	html := `
<article>
  <h2>Backend Developer</h2>
  <div>Beispiel AG</div>
  <div>Berlin</div>
  <span>Teilweise Home-Office</span>
  <span>55.000 € - 70.000 €</span>
  <span>Gehalt anzeigen</span>
</article>`

	details := stepstoneParseCard(mustDoc(t, html).Find("article").First(), "Backend Developer")
	if !details.remote {
		t.Fatalf("expected remote true")
	}
	if details.salary != "55.000 € - 70.000 €" {
		t.Fatalf("unexpected salary line: %q", details.salary)
	}
	if details.company != "Beispiel AG" || details.location != "Berlin" {
		t.Fatalf("unexpected card: %+v", details)
	}
}

func TestParseStepstoneJobCards(t *testing.T) {
	html := `
<div>
  <article>
    <a href="/stellenangebote--Go-Entwickler-Muenchen-Example--123-inline.html">Go Entwickler</a>
    <div>Example GmbH</div>
    <div>München</div>
    <time datetime="2025-03-08T09:00:00Z">vor 2 Tagen</time>
  </article>
</div>`

	jobs := parseStepstoneJobCards(mustDoc(t, html), stepstoneBaseURL, refNow)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	job := jobs[0]
	if !strings.HasPrefix(job.URL, "https://www.stepstone.de/stellenangebote--") {
		t.Fatalf("unexpected url: %q", job.URL)
	}
	if job.Company != "Example GmbH" || job.Location != "München" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.PostedDate.Format("2006-01-02") != "2025-03-08" {
		t.Fatalf("unexpected posted date: %v", job.PostedDate)
	}
}

func TestBuildStepstoneURL(t *testing.T) {
	cfg := models.ScrapeConfig{SearchQuery: "Go Entwickler", Location: "München"}
	if got := buildStepstoneURL(stepstoneBaseURL, cfg, 1); got != "https://www.stepstone.de/jobs/go-entwickler/in-m%C3%BCnchen" {
		t.Fatalf("unexpected first page url: %s", got)
	}
	if got := buildStepstoneURL(stepstoneBaseURL, cfg, 3); !strings.HasSuffix(got, "?page=3") {
		t.Fatalf("unexpected paged url: %s", got)
	}
}
