package newsdesk

import "time"

type (
	// Source describes one feed the pipeline ingests from.
	Source struct {
		ID       string `yaml:"id" json:"id"`
		Name     string `yaml:"name" json:"name"`
		URL      string `yaml:"url" json:"url"`
		Category string `yaml:"category" json:"category"`
		Country  string `yaml:"country" json:"country"`
		Tier     string `yaml:"tier" json:"tier"`
		Active   bool   `yaml:"active" json:"active"`

		// Fetch the linked page when the feed body is too short.
		FullText bool `yaml:"full_text" json:"full_text"`
		// Overrides the caller's per-source limit when positive.
		Limit int `yaml:"limit" json:"limit"`
	}

	// Run is a persisted ingestion report.
	Run struct {
		ID         string    `db:"id"`
		Trigger    string    `db:"triggered_by"`
		Status     string    `db:"status"`
		Stored     int       `db:"stored"`
		Skipped    int       `db:"skipped"`
		Report     string    `db:"report"` // JSON encoded report
		StartedAt  time.Time `db:"started_at"`
		FinishedAt time.Time `db:"finished_at"`
	}
)
