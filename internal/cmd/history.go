package cmd

import (
	"fmt"

	"github.com/MrJJimenez/jobscout/internal/export"
	"github.com/MrJJimenez/jobscout/internal/models"
)

type HistoryCmd struct {
	Limit  int    `help:"Number of jobs to list." default:"20"`
	Format string `help:"Output format: table, csv, json, md." enum:",table,csv,json,md" default:""`
}

func (h *HistoryCmd) Run(ctx *Context) error {
	st, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	records, err := st.Recent(h.Limit)
	if err != nil {
		return err
	}
	jobs := make([]models.ScoredJob, 0, len(records))
	for _, record := range records {
		jobs = append(jobs, record.ScoredJob)
	}

	format := export.ParseFormat(h.Format)
	switch {
	case ctx.JSONOutput:
		format = export.FormatJSON
	case ctx.PlainText:
		format = export.FormatTSV
	case h.Format == "" && !isTTY(ctx.Out):
		format = export.FormatCSV
	}
	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	return export.WriteJobs(ctx.Out, jobs, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   colorEnabled && isTTY(ctx.Out),
		LinkStyle:    export.LinkStyleShort,
	})
}
