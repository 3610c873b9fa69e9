package store

import (
	"context"
	"fmt"
)

// The Create* methods mirror what ingestion writes. Cycling never calls them;
// they exist for fixtures and local tooling.

// CreateRepository inserts a repository and returns its id.
func (s *Store) CreateRepository(ctx context.Context, name string) (int64, error) {
	return s.insert(ctx, "create_repository", "INSERT INTO repository (name) VALUES (?)", name)
}

// CreateFramework inserts a performance framework and returns its id.
func (s *Store) CreateFramework(ctx context.Context, name string) (int64, error) {
	return s.insert(ctx, "create_framework", "INSERT INTO performance_framework (name) VALUES (?)", name)
}

// CreateLookup inserts a job_type, job_group or machine row and returns its id.
func (s *Store) CreateLookup(ctx context.Context, table, name string) (int64, error) {
	if _, ok := ancillaryColumns[table]; !ok {
		return 0, NewStoreError(s.config.Driver, "create_lookup", fmt.Errorf("unsupported table %q", table))
	}
	return s.insert(ctx, "create_lookup", fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", table), name)
}

// CreatePush inserts a push and returns its id.
func (s *Store) CreatePush(ctx context.Context, repositoryID int64, revision string, unixTime int64) (int64, error) {
	return s.insert(ctx, "create_push",
		"INSERT INTO push (repository_id, revision, time) VALUES (?, ?, ?)",
		repositoryID, revision, unixTime,
	)
}

// CreateSignature inserts a signature and returns its id.
func (s *Store) CreateSignature(ctx context.Context, sig *Signature) (int64, error) {
	id, err := s.insert(ctx, "create_signature", `
		INSERT INTO performance_signature
			(signature_hash, repository_id, framework_id, platform, suite, test, application, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.Hash, sig.RepositoryID, sig.FrameworkID, sig.Platform, sig.Suite, sig.Test, sig.Application,
		sig.LastUpdated.Unix(),
	)
	if err == nil {
		sig.ID = id
	}
	return id, err
}

// CreateDatum inserts a performance datum and returns its id.
func (s *Store) CreateDatum(ctx context.Context, d *Datum) (int64, error) {
	var jobID any
	if d.JobID != 0 {
		jobID = d.JobID
	}
	id, err := s.insert(ctx, "create_datum", `
		INSERT INTO performance_datum
			(repository_id, signature_id, job_id, push_id, push_timestamp, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.RepositoryID, d.SignatureID, jobID, d.PushID, d.PushTimestamp.Unix(), d.Value)
	if err == nil {
		d.ID = id
	}
	return id, err
}

// CreateJob inserts a job and returns its id.
func (s *Store) CreateJob(ctx context.Context, j *Job) (int64, error) {
	var pushID any
	if j.PushID != 0 {
		pushID = j.PushID
	}
	id, err := s.insert(ctx, "create_job", `
		INSERT INTO job (repository_id, push_id, job_type_id, job_group_id, machine_id, submit_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`, j.RepositoryID, pushID, j.JobTypeID, j.JobGroupID, j.MachineID, j.SubmitTime.Unix())
	if err == nil {
		j.ID = id
	}
	return id, err
}

// CreateJobLog inserts a log reference for a job.
func (s *Store) CreateJobLog(ctx context.Context, jobID int64, name, url string) (int64, error) {
	return s.insert(ctx, "create_job_log",
		"INSERT INTO job_log (job_id, name, url) VALUES (?, ?, ?)",
		jobID, name, url,
	)
}

// CreateAlertSummary inserts an alert summary and returns its id.
func (s *Store) CreateAlertSummary(ctx context.Context, a *AlertSummary) (int64, error) {
	var prevPushID any
	if a.PrevPushID != 0 {
		prevPushID = a.PrevPushID
	}
	id, err := s.insert(ctx, "create_alert_summary", `
		INSERT INTO performance_alert_summary (repository_id, framework_id, push_id, prev_push_id, created)
		VALUES (?, ?, ?, ?, ?)
	`, a.RepositoryID, a.FrameworkID, a.PushID, prevPushID, a.Created.Unix())
	if err == nil {
		a.ID = id
	}
	return id, err
}

// CreateAlert inserts an alert and returns its id.
func (s *Store) CreateAlert(ctx context.Context, a *Alert) (int64, error) {
	var related any
	if a.RelatedSummaryID != 0 {
		related = a.RelatedSummaryID
	}
	id, err := s.insert(ctx, "create_alert", `
		INSERT INTO performance_alert (summary_id, related_summary_id, series_signature_id, is_regression, amount_pct)
		VALUES (?, ?, ?, ?, ?)
	`, a.SummaryID, related, a.SeriesSignatureID, a.IsRegression, a.AmountPct)
	if err == nil {
		a.ID = id
	}
	return id, err
}

func (s *Store) insert(ctx context.Context, operation, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, NewStoreError(s.config.Driver, operation, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, NewStoreError(s.config.Driver, operation, err)
	}
	return id, nil
}
