package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

const runNamespace = "-run"

// AcquireRunLease takes the named lease for holder until ttl elapses.
// A lease that has expired, or is already held by holder, can be taken.
func (r Repo) AcquireRunLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	const q = `INSERT INTO run_leases (name, holder, expires_at) VALUES (?, ?, ?)
	ON CONFLICT (name) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at
	WHERE run_leases.expires_at < ? OR run_leases.holder = excluded.holder;`

	now := r.now()
	res, err := r.db.ExecContext(ctx, q, name, holder, now.Add(ttl), now)
	if err != nil {
		return false, fmt.Errorf("error acquiring lease: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading lease result: %s", err)
	}

	return n > 0, nil
}

func (r Repo) ReleaseRunLease(ctx context.Context, name, holder string) error {
	const q = `DELETE FROM run_leases WHERE name = ? AND holder = ?;`
	if _, err := r.db.ExecContext(ctx, q, name, holder); err != nil {
		return fmt.Errorf("error releasing lease: %s", err)
	}

	return nil
}

func (r Repo) InsertRun(ctx context.Context, run newsdesk.Run) error {
	const q = `INSERT INTO ingest_runs (
		id, triggered_by, status, stored, skipped, report, started_at, finished_at
	) VALUES (
		:id, :triggered_by, :status, :stored, :skipped, :report, :started_at, :finished_at
	);`

	if run.ID == "" {
		run.ID = fmt.Sprintf("%s%s", uuid.NewString(), runNamespace)
	}
	if run.Report == "" {
		run.Report = "{}"
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()

	_, err := r.db.NamedExecContext(ctx, q, run)
	if isConflict(err) {
		return fmt.Errorf("run already recorded: %w", newsdesk.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("error inserting run: %s", err)
	}

	return nil
}

func (r Repo) LatestRun(ctx context.Context) (newsdesk.Run, error) {
	const q = `SELECT * FROM ingest_runs ORDER BY started_at DESC LIMIT 1;`

	var run newsdesk.Run
	err := r.db.GetContext(ctx, &run, q)
	if errors.Is(err, sql.ErrNoRows) {
		return newsdesk.Run{}, newsdesk.ErrNotFound
	}
	if err != nil {
		return newsdesk.Run{}, fmt.Errorf("error fetching latest run: %s", err)
	}

	return run, nil
}
