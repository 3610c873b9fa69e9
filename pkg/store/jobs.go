package store

import (
	"context"
	"fmt"
	"time"
)

// ancillaryColumns maps the lookup tables referenced by jobs to the job
// column holding the reference.
var ancillaryColumns = map[string]string{
	TableJobType:  "job_type_id",
	TableJobGroup: "job_group_id",
	TableMachine:  "machine_id",
}

// ExpiredJobIDs returns up to limit ids of jobs submitted strictly before
// cutoff, lowest ids first.
func ExpiredJobIDs(ctx context.Context, exec Executor, cutoff time.Time, limit int) ([]int64, error) {
	ids, err := queryIDs(ctx, exec,
		"SELECT id FROM job WHERE submit_time < ? ORDER BY id LIMIT ?",
		cutoff.Unix(), limit,
	)
	if err != nil {
		return nil, NewStoreError("sql", "expired_job_ids", err)
	}
	return ids, nil
}

// DeleteJobs removes the given jobs together with their logs and returns the
// number of jobs deleted. Run it inside a transaction to keep both deletes
// atomic.
func DeleteJobs(ctx context.Context, exec Executor, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in := Placeholders(len(ids))
	args := Int64Args(ids)

	if _, err := exec.ExecContext(ctx, fmt.Sprintf("DELETE FROM job_log WHERE job_id IN (%s)", in), args...); err != nil {
		return 0, NewStoreError("sql", "delete_job_logs", err)
	}
	res, err := exec.ExecContext(ctx, fmt.Sprintf("DELETE FROM job WHERE id IN (%s)", in), args...)
	if err != nil {
		return 0, NewStoreError("sql", "delete_jobs", err)
	}
	return RowsAffected(res), nil
}

// UnusedAncillaryIDs returns ids of a lookup table (job_type, job_group or
// machine) that no remaining job references.
func (s *Store) UnusedAncillaryIDs(ctx context.Context, table string) ([]int64, error) {
	column, ok := ancillaryColumns[table]
	if !ok {
		return nil, NewStoreError(s.config.Driver, "unused_ids", fmt.Errorf("unsupported table %q", table))
	}
	query := fmt.Sprintf(
		"SELECT id FROM %s WHERE id NOT IN (SELECT DISTINCT %s FROM job WHERE %s IS NOT NULL) ORDER BY id",
		table, column, column,
	)
	ids, err := queryIDs(ctx, s.db, query)
	if err != nil {
		return nil, NewStoreError(s.config.Driver, "unused_ids", err)
	}
	return ids, nil
}

// DeleteByIDs removes rows of a lookup table by id.
func (s *Store) DeleteByIDs(ctx context.Context, table string, ids []int64) (int64, error) {
	if _, ok := ancillaryColumns[table]; !ok {
		return 0, NewStoreError(s.config.Driver, "delete_by_ids", fmt.Errorf("unsupported table %q", table))
	}
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, Placeholders(len(ids)))
	res, err := s.db.ExecContext(ctx, query, Int64Args(ids)...)
	if err != nil {
		return 0, NewStoreError(s.config.Driver, "delete_by_ids", err)
	}
	return RowsAffected(res), nil
}
