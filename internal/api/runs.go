package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	deskerrs "github.com/jdholdren/newsdesk/internal/errors"
	"github.com/jdholdren/newsdesk/internal/ingest"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
	"github.com/jdholdren/newsdesk/internal/serverutil"
	"github.com/jdholdren/newsdesk/internal/worker"
)

const maxIngestSources = 50

type PostIngestReq struct {
	// Source ids to ingest, every active source when empty.
	Sources []string `json:"sources"`
	// Block until the run finishes and return its report.
	Wait bool `json:"wait"`
}

func (req PostIngestReq) Validate() error {
	if len(req.Sources) > maxIngestSources {
		return deskerrs.E(
			http.StatusBadRequest,
			"too many sources",
			deskerrs.Detail{Field: "sources", Error: fmt.Sprintf("at most %d", maxIngestSources)},
		)
	}
	for _, id := range req.Sources {
		if strings.TrimSpace(id) == "" {
			return deskerrs.E(
				http.StatusBadRequest,
				"invalid source",
				deskerrs.Detail{Field: "sources", Error: "ids must not be blank"},
			)
		}
	}

	return nil
}

type PostIngestResp struct {
	RunID  string         `json:"run_id"`
	Report *ingest.Report `json:"report,omitempty"`
}

func (s Server) postIngest(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	req := PostIngestReq{}
	if r.ContentLength != 0 {
		var err error
		if req, err = serverutil.DecodeValid[PostIngestReq](r.Body); err != nil {
			return err
		}
	}

	runID, err := s.trigger.Start(ctx, worker.IngestParams{
		Trigger:   worker.TriggerManual,
		SourceIDs: req.Sources,
	})
	if err != nil {
		return err
	}
	if !req.Wait {
		return serverutil.WriteJSON(w, http.StatusAccepted, PostIngestResp{RunID: runID})
	}

	report, err := s.trigger.Await(ctx, runID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, PostIngestResp{RunID: runID, Report: &report})
}

type RunResp struct {
	ID         string          `json:"id"`
	Trigger    string          `json:"trigger"`
	Status     string          `json:"status"`
	Stored     int             `json:"stored"`
	Skipped    int             `json:"skipped"`
	Report     json.RawMessage `json:"report"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

func (s Server) getLatestRun(w http.ResponseWriter, r *http.Request) error {
	run, err := s.repo.LatestRun(r.Context())
	if errors.Is(err, newsdesk.ErrNotFound) {
		return deskerrs.E(http.StatusNotFound, "no runs recorded yet")
	}
	if err != nil {
		return fmt.Errorf("error fetching latest run: %w", err)
	}

	report := json.RawMessage(run.Report)
	if !json.Valid(report) {
		report = json.RawMessage("null")
	}

	return serverutil.WriteJSON(w, http.StatusOK, RunResp{
		ID:         run.ID,
		Trigger:    run.Trigger,
		Status:     run.Status,
		Stored:     run.Stored,
		Skipped:    run.Skipped,
		Report:     report,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	})
}
