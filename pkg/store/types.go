package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// Table names.
const (
	TableRepository   = "repository"
	TableMachine      = "machine"
	TableJobType      = "job_type"
	TableJobGroup     = "job_group"
	TablePush         = "push"
	TableJob          = "job"
	TableJobLog       = "job_log"
	TableFramework    = "performance_framework"
	TableSignature    = "performance_signature"
	TableDatum        = "performance_datum"
	TableAlertSummary = "performance_alert_summary"
	TableAlert        = "performance_alert"
)

// Signature is a performance signature joined with its repository and
// framework names.
type Signature struct {
	ID           int64
	Hash         string
	RepositoryID int64
	Repository   string
	FrameworkID  int64
	Framework    string
	Platform     string
	Suite        string
	Test         string
	Application  string
	LastUpdated  time.Time
}

// SignatureRef identifies a signature and the repository it belongs to.
type SignatureRef struct {
	ID           int64
	RepositoryID int64
}

// Datum is one performance measurement.
type Datum struct {
	ID            int64
	RepositoryID  int64
	SignatureID   int64
	JobID         int64
	PushID        int64
	PushTimestamp time.Time
	Value         float64
}

// Job is one job record of the primary system.
type Job struct {
	ID           int64
	RepositoryID int64
	PushID       int64
	JobTypeID    int64
	JobGroupID   int64
	MachineID    int64
	SubmitTime   time.Time
}

// AlertSummary groups alerts detected for a push pair.
type AlertSummary struct {
	ID           int64
	RepositoryID int64
	FrameworkID  int64
	PushID       int64
	PrevPushID   int64
	Created      time.Time
}

// Alert is a single detected regression or improvement.
type Alert struct {
	ID                int64
	SummaryID         int64
	RelatedSummaryID  int64 // 0 when unset
	SeriesSignatureID int64
	IsRegression      bool
	AmountPct         float64
}
