package models

import "time"

// Outcome is how an enrichment run ended.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeAborted     Outcome = "aborted"
	OutcomeWriteFailed Outcome = "write_failed"
)

// RunReport summarises one enrichment run. It is built once, after every
// record has an outcome (or the run was cancelled).
type RunReport struct {
	RunID              string       `json:"runId"`
	StartedAt          time.Time    `json:"startedAt"`
	FinishedAt         time.Time    `json:"finishedAt"`
	TotalRecords       int          `json:"totalRecords"`
	WithCoordinates    int          `json:"withCoordinates"`
	WithoutCoordinates int          `json:"withoutCoordinates"`
	Failures           map[Kind]int `json:"failures"`
	Aborted            bool         `json:"aborted"`
	Outcome            Outcome      `json:"outcome"`
}
