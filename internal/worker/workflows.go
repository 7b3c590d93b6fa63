package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	deskerrs "github.com/jdholdren/newsdesk/internal/errors"
	"github.com/jdholdren/newsdesk/internal/ingest"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

// What started a run.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// ErrIngestRunning is returned when a run is requested while one is open.
var ErrIngestRunning = errors.New("ingestion already running")

type IngestParams struct {
	Trigger string
	// Only these sources when set, otherwise every active one.
	SourceIDs []string
}

type workflows struct{}

// IngestAll processes every source one after the other and records the
// combined report.
func (workflows) IngestAll(ctx workflow.Context, params IngestParams) (ingest.Report, error) {
	l := workflow.GetLogger(ctx)
	startedAt := workflow.Now(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3, // 0 is unlimited retries
		},
	})
	// The pipeline records its own failures, so a source is never retried.
	sourceCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 20 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var srcs []newsdesk.Source
	if err := workflow.ExecuteActivity(ctx, acts.ActiveSources, params.SourceIDs).Get(ctx, &srcs); err != nil {
		l.Error("failed to list sources", "error", err)
		return ingest.Report{}, err
	}

	report := ingest.NewReport()
	for _, src := range srcs {
		var res ingest.SourceResult
		if err := workflow.ExecuteActivity(sourceCtx, acts.ProcessSource, src).Get(ctx, &res); err != nil {
			l.Error("failed to process source", "source", src.Name, "error", err)
			res = ingest.SourceResult{Errors: []string{err.Error()}}
		}
		report.Add(src.Name, res)
	}

	if err := workflow.ExecuteActivity(ctx, acts.RecordRun, RecordRunParams{
		Trigger:    params.Trigger,
		Report:     report,
		StartedAt:  startedAt,
		FinishedAt: workflow.Now(ctx),
	}).Get(ctx, nil); err != nil {
		// Losing the history row doesn't undo the run.
		l.Error("failed to record run", "error", err)
	}

	return report, nil
}

// RetouchFallbacks retries the rewrite of up to limit fallback articles.
func (workflows) RetouchFallbacks(ctx workflow.Context, limit int) (int, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Minute,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    2,
		},
	})

	var updated int
	if err := workflow.ExecuteActivity(ctx, acts.RetouchFallbacks, limit).Get(ctx, &updated); err != nil {
		workflow.GetLogger(ctx).Error("failed to retouch fallbacks", "error", err)
		return 0, err
	}

	return updated, nil
}

// StartIngest starts IngestAll and returns its run id without waiting for it.
// Fails with a 409 deskerr while another run is open.
func StartIngest(ctx context.Context, c client.Client, params IngestParams) (string, error) {
	options := client.StartWorkflowOptions{
		ID:                                       IngestAllWorkflowID,
		TaskQueue:                                TaskQueue,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	we, err := c.ExecuteWorkflow(ctx, options, workflows{}.IngestAll, params)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return "", deskerrs.E(http.StatusConflict, ErrIngestRunning)
	}
	if err != nil {
		return "", fmt.Errorf("unable to execute workflow: %s", err)
	}

	return we.GetRunID(), nil
}

// AwaitIngest blocks until the given IngestAll run finishes and returns its report.
func AwaitIngest(ctx context.Context, c client.Client, runID string) (ingest.Report, error) {
	var report ingest.Report
	err := c.GetWorkflow(ctx, IngestAllWorkflowID, runID).Get(ctx, &report)
	deskErr := &deskerrs.Error{}
	if asDeskerr(err, &deskErr) {
		return ingest.Report{}, deskErr
	}
	if err != nil {
		return ingest.Report{}, fmt.Errorf("error executing workflow: %s", err)
	}

	return report, nil
}
