package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

const (
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
)

// SourceReport is one source's line in a Report.
type SourceReport struct {
	Name    string `json:"name"`
	Stored  int    `json:"stored"`
	Skipped int    `json:"skipped"`
}

// Report aggregates the results of an ingestion run.
type Report struct {
	Stored  int            `json:"stored"`
	Skipped int            `json:"skipped"`
	Errors  []string       `json:"errors"`
	Sources []SourceReport `json:"sources"`
	Status  string         `json:"status"`
}

func NewReport() Report {
	return Report{
		Errors:  []string{},
		Sources: []SourceReport{},
		Status:  StatusCompleted,
	}
}

// Add folds one source's result into the report. Errors are prefixed with the
// source name.
func (r *Report) Add(name string, res SourceResult) {
	r.Stored += res.Stored
	r.Skipped += res.Skipped
	for _, e := range res.Errors {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", name, e))
	}
	r.Sources = append(r.Sources, SourceReport{
		Name:    name,
		Stored:  res.Stored,
		Skipped: res.Skipped,
	})

	if len(r.Errors) > 0 {
		r.Status = StatusCompletedWithErrors
	}
}

// ProcessSources runs ProcessSource over sources one at a time, in order.
// A source's own positive Limit wins over perSourceLimit.
func (i *Ingester) ProcessSources(ctx context.Context, sources []newsdesk.Source, authorID string, perSourceLimit int) Report {
	report := NewReport()
	for _, src := range sources {
		limit := perSourceLimit
		if src.Limit > 0 {
			limit = src.Limit
		}

		report.Add(src.Name, i.ProcessSource(ctx, src, authorID, limit))
	}

	slog.InfoContext(ctx, "ingestion finished",
		"sources", len(sources),
		"stored", report.Stored,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report
}
