package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

// ParseFormat maps a flag value to a Format; unknown values fall back to
// the table.
func ParseFormat(value string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV
	case FormatJSON:
		return FormatJSON
	case FormatMarkdown, "markdown":
		return FormatMarkdown
	case FormatTSV:
		return FormatTSV
	default:
		return FormatTable
	}
}

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
	// Breakdown adds the per factor scores to table and markdown output.
	Breakdown bool
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

const (
	linkColor  = "#87CEEB"
	highScore  = 75.0
	lowScore   = 40.0
	dateLayout = "2006-01-02"
)

// WriteJobs renders ranked jobs in format.
func WriteJobs(w io.Writer, jobs []models.ScoredJob, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, jobs)
	case FormatCSV:
		return writeCSV(w, jobs, ',')
	case FormatTSV:
		return writeCSV(w, jobs, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, jobs, opts)
	default:
		return writeTable(w, jobs, opts)
	}
}

func writeJSON(w io.Writer, jobs []models.ScoredJob) error {
	if jobs == nil {
		jobs = []models.ScoredJob{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}

func writeCSV(w io.Writer, jobs []models.ScoredJob, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := writer.Write(csvRow(job)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, jobs []models.ScoredJob, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"#", "score", "source", "title", "company", "location", "salary", "url"}
	if opts.Breakdown {
		header = append(header[:2], append([]string{"loc/title/sal/src"}, header[2:]...)...)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	output := termenv.NewOutput(w)
	for _, job := range jobs {
		fmt.Fprintln(tw, strings.Join(tableRow(job, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, jobs []models.ScoredJob, opts WriteOptions) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, job := range jobs {
		urlLine := "  URL: -"
		if link := safe(job.URL); link != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", link)
		}
		lines := []string{
			fmt.Sprintf("%d. **%s** (%s), score %s", job.Rank, safe(job.Title), safe(job.Company), formatScore(job.Score)),
			fmt.Sprintf("  Location: %s", safe(job.Location)),
			fmt.Sprintf("  Source: %s", job.Source),
			urlLine,
		}
		if remote, _ := job.Metadata[models.MetaRemote].(bool); remote {
			lines = append(lines, "  Remote: yes")
		}
		if job.JobType != "" {
			lines = append(lines, fmt.Sprintf("  Type: %s", safe(job.JobType)))
		}
		if salary := FormatSalary(job.Salary); salary != "" {
			lines = append(lines, fmt.Sprintf("  Salary: %s", salary))
		}
		if job.PostedDateKnown() {
			lines = append(lines, fmt.Sprintf("  Posted: %s", job.PostedDate.Format(dateLayout)))
		}
		if opts.Breakdown {
			lines = append(lines, fmt.Sprintf("  Breakdown: %s", breakdown(job.ScoreBreakdown)))
			if enhanced, ok := job.Enhanced(); ok && len(enhanced.TopReasons) > 0 {
				lines = append(lines, fmt.Sprintf("  Why: %s", strings.Join(enhanced.TopReasons, "; ")))
			}
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"rank",
		"score",
		"source",
		"title",
		"company",
		"location",
		"url",
		"remote",
		"job_type",
		"salary_min",
		"salary_max",
		"salary_currency",
		"salary_period",
		"posted_date",
		"posted_date_estimated",
		"score_location",
		"score_title",
		"score_salary",
		"score_source",
	}
}

func csvRow(job models.ScoredJob) []string {
	remote, _ := job.Metadata[models.MetaRemote].(bool)
	estimated, _ := job.Metadata[models.MetaPostedDateEstimated].(bool)
	posted := ""
	if !job.PostedDate.IsZero() {
		posted = job.PostedDate.Format(time.RFC3339)
	}
	var salaryMin, salaryMax, currency, period string
	if !job.Salary.IsZero() {
		salaryMin = formatAmount(job.Salary.Min)
		salaryMax = formatAmount(job.Salary.Max)
		currency = job.Salary.Currency
		period = string(job.Salary.Period)
	}
	b := job.ScoreBreakdown
	return []string{
		strconv.Itoa(job.Rank),
		formatScore(job.Score),
		string(job.Source),
		job.Title,
		job.Company,
		job.Location,
		job.URL,
		strconv.FormatBool(remote),
		job.JobType,
		salaryMin,
		salaryMax,
		currency,
		period,
		posted,
		strconv.FormatBool(estimated),
		formatScore(b.Location.Score),
		formatScore(b.TitleRelevance.Score),
		formatScore(b.Salary.Score),
		formatScore(b.SourceQuality.Score),
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

func formatAmount(amount float64) string {
	if amount <= 0 {
		return ""
	}
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// FormatSalary renders a salary as "60k-80k USD/yearly"; an empty string
// means no salary.
func FormatSalary(s *models.Salary) string {
	if s.IsZero() {
		return ""
	}
	var amount string
	switch {
	case s.Min > 0 && s.Max > 0 && s.Min != s.Max:
		amount = shortAmount(s.Min) + "-" + shortAmount(s.Max)
	case s.Min > 0:
		amount = shortAmount(s.Min)
	default:
		amount = shortAmount(s.Max)
	}
	if s.Currency != "" {
		amount += " " + s.Currency
	}
	if s.Period != "" {
		amount += "/" + string(s.Period)
	}
	return amount
}

func shortAmount(value float64) string {
	if value >= 1000 {
		return strconv.FormatFloat(value/1000, 'f', -1, 64) + "k"
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func breakdown(b models.ScoreBreakdown) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		formatScore(b.Location.Score),
		formatScore(b.TitleRelevance.Score),
		formatScore(b.Salary.Score),
		formatScore(b.SourceQuality.Score),
	)
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func tableRow(job models.ScoredJob, output *termenv.Output, opts WriteOptions) []string {
	link := safe(job.URL)
	displayURL := "-"
	if link != "" {
		displayURL = link
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(link)
		}
		if opts.ColorEnabled {
			displayURL = output.String(displayURL).Foreground(output.Color(linkColor)).String()
		}
		if opts.Hyperlinks {
			displayURL = hyperlink(link, displayURL)
		}
	}

	score := formatScore(job.Score)
	if opts.ColorEnabled {
		score = output.String(score).Foreground(output.Color(scoreColor(job.Score))).String()
	}

	row := []string{
		strconv.Itoa(job.Rank),
		score,
		string(job.Source),
		safe(job.Title),
		safe(job.Company),
		safe(job.Location),
		orDash(FormatSalary(job.Salary)),
		displayURL,
	}
	if opts.Breakdown {
		row = append(row[:2], append([]string{breakdown(job.ScoreBreakdown)}, row[2:]...)...)
	}
	return row
}

func scoreColor(score float64) string {
	switch {
	case score >= highScore:
		return "2"
	case score < lowScore:
		return "1"
	default:
		return "3"
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
