// Package worker runs ingestion on Temporal: a schedule fires IngestAll, which
// processes one source per activity, and RetouchFallbacks retries the rewrite
// of articles stored without one.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/jdholdren/newsdesk/internal/ingest"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
	"github.com/jdholdren/newsdesk/internal/rewrite"
)

const TaskQueue = "newsdesk"

// Workflow and schedule ids. IngestAll always runs under the same id, so
// Temporal refuses a second one while the first is open.
const (
	IngestAllWorkflowID        = "ingest_all"
	RetouchFallbacksWorkflowID = "retouch_fallbacks"
)

type (
	SourceIngester interface {
		ProcessSource(ctx context.Context, src newsdesk.Source, authorID string, limit int) ingest.SourceResult
	}

	BatchRewriter interface {
		RewriteBatch(ctx context.Context, articles []rewrite.Article) []rewrite.Result
	}

	Catalog interface {
		Weighted(base int) []newsdesk.Source
	}
)

type Config struct {
	AuthorID       string
	PerSourceLimit int
	IngestEvery    time.Duration
	// Zero disables the retouch schedule.
	RetouchEvery time.Duration
	RetouchLimit int
}

// Deps are what the activities run against.
type Deps struct {
	Repo     newsdesk.Repository
	Catalog  Catalog
	Ingester SourceIngester
	Rewriter BatchRewriter
}

// NewWorker sets up the worker with registration of workflows, activities, and schedules.
func NewWorker(ctx context.Context, cli client.Client, deps Deps, cfg Config) (worker.Worker, error) {
	a := activities{
		repo:     deps.Repo,
		catalog:  deps.Catalog,
		ingester: deps.Ingester,
		rewriter: deps.Rewriter,
		cfg:      cfg,
	}

	w := worker.New(cli, TaskQueue, worker.Options{})
	if err := registerEverything(ctx, w, a, cli, cfg); err != nil {
		return nil, fmt.Errorf("error registering workflows and activities: %T, %v", err, err)
	}

	return w, nil
}

func registerEverything(ctx context.Context, w worker.Worker, a activities, cli client.Client, cfg Config) error {
	wfs := workflows{}
	w.RegisterWorkflow(wfs.IngestAll)
	w.RegisterWorkflow(wfs.RetouchFallbacks)

	w.RegisterActivity(&a)

	if err := ensureSchedule(ctx, cli, client.ScheduleOptions{
		ID: IngestAllWorkflowID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.IngestEvery}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        IngestAllWorkflowID,
			Workflow:  wfs.IngestAll,
			Args:      []any{IngestParams{Trigger: TriggerSchedule}},
			TaskQueue: TaskQueue,
		},
		// A run still going when the next one is due wins; the new one is dropped.
		Overlap:            enums.SCHEDULE_OVERLAP_POLICY_SKIP,
		TriggerImmediately: true,
	}); err != nil {
		return fmt.Errorf("error ensuring ingest schedule: %w", err)
	}

	if cfg.RetouchEvery <= 0 {
		return nil
	}
	if err := ensureSchedule(ctx, cli, client.ScheduleOptions{
		ID: RetouchFallbacksWorkflowID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.RetouchEvery}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        RetouchFallbacksWorkflowID,
			Workflow:  wfs.RetouchFallbacks,
			Args:      []any{cfg.RetouchLimit},
			TaskQueue: TaskQueue,
		},
		Overlap: enums.SCHEDULE_OVERLAP_POLICY_SKIP,
	}); err != nil {
		return fmt.Errorf("error ensuring retouch schedule: %w", err)
	}

	return nil
}

// ensureSchedule creates the schedule if it is missing, otherwise brings its
// spec and action in line with opts.
func ensureSchedule(ctx context.Context, cli client.Client, opts client.ScheduleOptions) error {
	handle := cli.ScheduleClient().GetHandle(ctx, opts.ID)
	if _, err := handle.Describe(ctx); err != nil {
		_, err = cli.ScheduleClient().Create(ctx, opts)
		return err
	}

	return handle.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(input client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			schedule := input.Description.Schedule
			schedule.Spec = &opts.Spec
			schedule.Action = opts.Action
			if schedule.Policy != nil {
				schedule.Policy.Overlap = opts.Overlap
			}

			return &client.ScheduleUpdate{
				Schedule: &schedule,
			}, nil
		},
	})
}
