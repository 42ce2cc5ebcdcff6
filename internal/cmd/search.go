package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/export"
	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/scoring"
	"github.com/MrJJimenez/jobscout/internal/search"
	"github.com/MrJJimenez/jobscout/internal/seen"
	"github.com/muesli/termenv"
)

type SearchCmd struct {
	Query   string `arg:"" optional:"" help:"Search query. Optional when --request provides one."`
	Sources string `help:"Comma-separated list of sources (default: all enabled)." default:"all"`
	Request string `help:"Path to a JSON search request shaped like the POST /api/v1/search body; flags override its fields."`
	SearchOptions
}

type SiteCmd struct {
	Query string `arg:"" help:"Search query."`
	SearchOptions
	Source models.Source `kong:"-"`
}

type SearchOptions struct {
	Location   string        `help:"Job location." env:"JOBSCOUT_DEFAULT_LOCATION"`
	Prefer     []string      `help:"Preferred locations (comma-separated)."`
	SalaryMin  float64       `help:"Desired yearly salary minimum."`
	SalaryMax  float64       `help:"Desired yearly salary maximum."`
	JobType    []string      `help:"Job types (fulltime, parttime, contract, internship)."`
	Keywords   []string      `help:"Keywords that count towards title relevance."`
	Weights    string        `help:"Scoring weights, e.g. location=0.3,title=0.4,salary=0.2,source=0.1."`
	Limit      int           `help:"Maximum ranked results (default from config)."`
	Timeout    time.Duration `help:"Overall search deadline, capped by config (e.g. 20s)."`
	Breakdown  bool          `help:"Show per factor scores."`
	Format     string        `help:"Output format: table, csv, json, md." enum:",table,csv,json,md" default:""`
	Links      string        `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Output     string        `name:"output" short:"o" help:"Write output to a file."`
	Proxies    string        `help:"Comma-separated proxy URLs." env:"JOBSCOUT_PROXIES"`
	NoStore    bool          `help:"Do not save ranked results to the local store."`
	Seen       string        `help:"Path to seen jobs JSON file."`
	NewOnly    bool          `help:"Output only unseen jobs (requires --seen)."`
	NewOut     string        `help:"Write unseen jobs JSON to a file (requires --seen)."`
	SeenUpdate bool          `help:"Merge unseen jobs into the --seen history after the search."`
}

func (s *SearchCmd) Run(ctx *Context) error {
	req, err := loadRequest(s.Request)
	if err != nil {
		return err
	}
	if sources := splitList(s.Sources); len(sources) > 0 && !(len(sources) == 1 && strings.EqualFold(sources[0], "all")) {
		req.Sources = sources
	}
	if err := applySearchOptions(&req, s.Query, s.SearchOptions, ctx.Config.Search.DefaultLocation); err != nil {
		return err
	}
	return runSearch(ctx, req, s.SearchOptions)
}

func (s *SiteCmd) Run(ctx *Context) error {
	req := search.Request{Sources: []string{string(s.Source)}}
	if err := applySearchOptions(&req, s.Query, s.SearchOptions, ctx.Config.Search.DefaultLocation); err != nil {
		return err
	}
	return runSearch(ctx, req, s.SearchOptions)
}

func loadRequest(path string) (search.Request, error) {
	if strings.TrimSpace(path) == "" {
		return search.Request{}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return search.Request{}, fmt.Errorf("read --request: %w", err)
	}
	defer file.Close()
	req, err := search.ParseRequest(file)
	if err != nil {
		return search.Request{}, fmt.Errorf("read --request %q: %w", path, err)
	}
	return req, nil
}

// applySearchOptions layers command line flags over req. Validation is left
// to search.Normalize so the CLI and the API reject the same inputs.
func applySearchOptions(req *search.Request, query string, opts SearchOptions, defaultLocation string) error {
	if strings.TrimSpace(query) != "" {
		req.Query = query
	}
	req.Location = firstNonEmpty(opts.Location, req.Location, defaultLocation)
	if len(opts.Prefer) > 0 {
		req.PreferredLocations = opts.Prefer
	}
	if len(opts.JobType) > 0 {
		req.JobTypes = opts.JobType
	}
	if len(opts.Keywords) > 0 {
		req.Keywords = opts.Keywords
	}
	if opts.SalaryMin != 0 || opts.SalaryMax != 0 {
		req.Salary = &models.SalaryRange{Min: opts.SalaryMin, Max: opts.SalaryMax}
	}
	if strings.TrimSpace(opts.Weights) != "" {
		weights, err := parseWeights(opts.Weights)
		if err != nil {
			return err
		}
		req.ScoringWeights = weights
	}
	if opts.Limit != 0 {
		limit := opts.Limit
		req.MaxResults = &limit
	}
	if opts.Timeout != 0 {
		ms := opts.Timeout.Milliseconds()
		req.TimeoutMs = &ms
	}
	return nil
}

// parseWeights reads "factor=value" pairs; factors left out keep their
// default weight.
func parseWeights(value string) (*models.ScoringWeights, error) {
	weights := scoring.DefaultWeights
	for _, pair := range splitList(value) {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --weights entry %q: want factor=value", pair)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --weights value for %s: %w", name, err)
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "location":
			weights.Location = parsed
		case "title", "titlerelevance":
			weights.TitleRelevance = parsed
		case "salary":
			weights.Salary = parsed
		case "source", "sourcequality":
			weights.SourceQuality = parsed
		default:
			return nil, fmt.Errorf("unknown --weights factor %q", name)
		}
	}
	return &weights, nil
}

func runSearch(ctx *Context, req search.Request, opts SearchOptions) error {
	seenPath := strings.TrimSpace(opts.Seen)
	if opts.NewOnly && seenPath == "" {
		return fmt.Errorf("--new-only requires --seen")
	}
	if strings.TrimSpace(opts.NewOut) != "" && seenPath == "" {
		return fmt.Errorf("--new-out requires --seen")
	}
	if opts.SeenUpdate && seenPath == "" {
		return fmt.Errorf("--seen-update requires --seen")
	}
	if opts.NewOut != "" && pathsEqual(opts.Output, opts.NewOut) {
		return fmt.Errorf("--new-out path must differ from --output")
	}
	if seenPath != "" && pathsEqual(opts.Output, seenPath) {
		return fmt.Errorf("--output path must differ from --seen")
	}
	if opts.NewOut != "" && pathsEqual(opts.NewOut, seenPath) {
		return fmt.Errorf("--new-out path must differ from --seen")
	}

	e, err := openEngine(ctx, engineOptions{proxies: opts.Proxies, noStore: opts.NoStore})
	if err != nil {
		return err
	}
	defer e.Close()

	criteria, err := search.Normalize(req, e.limits)
	if err != nil {
		return err
	}

	stopIndicator := startSearchIndicator(ctx)
	outcome := e.orchestrator.Search(ctx.runContext(), criteria)
	if stopIndicator != nil {
		stopIndicator()
	}
	reportWarnings(ctx, outcome.Warnings)

	resp := outcome.Response(time.Now())
	if !resp.Success {
		if ctx.JSONOutput {
			_ = writeEnvelope(ctx.Out, resp)
		}
		return fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
	}

	jobs := outcome.Jobs
	var unseenJobs []models.ScoredJob
	if seenPath != "" {
		seenJobs, err := seen.ReadJobsAllowMissing(seenPath)
		if err != nil {
			return fmt.Errorf("read --seen: %w", err)
		}
		unseenJobs, _ = seen.Diff(jobs, seenJobs)
	}
	if opts.NewOut != "" {
		if err := seen.WriteJobs(opts.NewOut, unseenJobs); err != nil {
			return fmt.Errorf("write --new-out: %w", err)
		}
	}

	outputJobs := jobs
	if opts.NewOnly {
		outputJobs = unseenJobs
	}

	writer := ctx.Out
	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	if ctx.JSONOutput && opts.Output == "" && !opts.NewOnly {
		if err := writeEnvelope(writer, resp); err != nil {
			return err
		}
	} else {
		format, err := resolveFormat(ctx, opts, opts.Output)
		if err != nil {
			return err
		}
		colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled && opts.Output == ""
		linkStyle := export.LinkStyleShort
		if strings.EqualFold(opts.Links, string(export.LinkStyleFull)) {
			linkStyle = export.LinkStyleFull
		}
		if err := export.WriteJobs(writer, outputJobs, format, export.WriteOptions{
			ColorEnabled: colorEnabled,
			Hyperlinks:   colorEnabled && isTTY(writer),
			LinkStyle:    linkStyle,
			Breakdown:    opts.Breakdown,
		}); err != nil {
			return err
		}
	}

	if opts.SeenUpdate {
		if err := updateSeenHistory(seenPath, unseenJobs); err != nil {
			return err
		}
	}

	summaryJobs := jobs
	if seenPath != "" {
		summaryJobs = unseenJobs
	}
	printSearchSummary(ctx, outcome.Status, summaryJobs)
	return nil
}

func writeEnvelope(w io.Writer, resp search.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func reportWarnings(ctx *Context, warnings []string) {
	if ctx == nil || ctx.UI == nil || len(warnings) == 0 {
		return
	}
	for _, warning := range warnings {
		ctx.UI.Warnf("warning: %s", warning)
	}
}

func pathsEqual(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil {
		return absA == absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func updateSeenHistory(seenPath string, inputJobs []models.ScoredJob) error {
	seenJobs, err := seen.ReadJobsAllowMissing(seenPath)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}

	mergedJobs, _ := seen.Merge(seenJobs, inputJobs)
	if err := seen.WriteJobs(seenPath, mergedJobs); err != nil {
		return fmt.Errorf("write --seen: %w", err)
	}
	return nil
}

func printSearchSummary(ctx *Context, status int, jobs []models.ScoredJob) {
	if ctx == nil || ctx.Err == nil {
		return
	}
	_, _ = fmt.Fprintln(ctx.Err, formatSearchSummary(status, jobs))
}

func formatSearchSummary(status int, jobs []models.ScoredJob) string {
	counts := countJobsBySource(jobs)
	if len(counts) == 0 {
		return fmt.Sprintf("summary: status=%d jobs=0 by_source=none", status)
	}

	parts := make([]string, 0, len(counts))
	for _, count := range counts {
		parts = append(parts, fmt.Sprintf("%s:%d", count.source, count.total))
	}
	top := jobs[0].Score
	for _, job := range jobs[1:] {
		top = max(top, job.Score)
	}
	return fmt.Sprintf("summary: status=%d jobs=%d top_score=%.1f by_source=%s", status, len(jobs), top, strings.Join(parts, ", "))
}

type sourceCount struct {
	source models.Source
	total  int
}

func countJobsBySource(jobs []models.ScoredJob) []sourceCount {
	totals := make(map[models.Source]int, len(jobs))
	for _, job := range jobs {
		source := job.Source
		if source == "" {
			source = "unknown"
		}
		totals[source]++
	}

	counts := make([]sourceCount, 0, len(totals))
	for source, total := range totals {
		counts = append(counts, sourceCount{source: source, total: total})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].source < counts[j].source
	})
	return counts
}

func resolveFormat(ctx *Context, opts SearchOptions, outputPath string) (export.Format, error) {
	switch {
	case ctx.JSONOutput:
		return export.FormatJSON, nil
	case ctx.PlainText:
		return export.FormatTSV, nil
	case opts.Format != "":
		return parseFormat(opts.Format)
	case outputPath != "":
		return export.FormatCSV, nil
	case isTTY(ctx.Out):
		return export.FormatTable, nil
	default:
		return export.FormatCSV, nil
	}
}

func parseFormat(value string) (export.Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return export.FormatCSV, nil
	case "json":
		return export.FormatJSON, nil
	case "md", "markdown":
		return export.FormatMarkdown, nil
	case "tsv":
		return export.FormatTSV, nil
	case "table", "":
		return export.FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s", value)
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startSearchIndicator(ctx *Context) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				fmt.Fprintf(ctx.Err, "\r\033[2KSearching... %ds %s", seconds, frames[index%len(frames)])
				index++
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
