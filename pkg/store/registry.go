package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RepositoryID looks up a repository id by name.
func (s *Store) RepositoryID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM repository WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("repository %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, NewStoreError(s.config.Driver, "repository_id", err)
	}
	return id, nil
}

// RepositoryIDs resolves the ids of the named repositories. Unknown names are
// skipped, so the result may be shorter than names.
func (s *Store) RepositoryIDs(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = name
	}
	query := fmt.Sprintf("SELECT id FROM repository WHERE name IN (%s) ORDER BY id", Placeholders(len(names)))
	ids, err := queryIDs(ctx, s.db, query, args...)
	if err != nil {
		return nil, NewStoreError(s.config.Driver, "repository_ids", err)
	}
	return ids, nil
}

// SignatureIDs returns the ids of a repository's signatures, newest first.
func (s *Store) SignatureIDs(ctx context.Context, repositoryID int64) ([]int64, error) {
	ids, err := queryIDs(ctx, s.db,
		"SELECT id FROM performance_signature WHERE repository_id = ? ORDER BY id DESC",
		repositoryID,
	)
	if err != nil {
		return nil, NewStoreError(s.config.Driver, "signature_ids", err)
	}
	return ids, nil
}

// StaleSignatures returns signatures last updated at or before cutoff,
// oldest first.
func (s *Store) StaleSignatures(ctx context.Context, cutoff time.Time) ([]SignatureRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repository_id FROM performance_signature
		WHERE last_updated <= ?
		ORDER BY last_updated ASC, id ASC
	`, cutoff.Unix())
	if err != nil {
		return nil, NewStoreError(s.config.Driver, "stale_signatures", err)
	}
	defer rows.Close()

	var refs []SignatureRef
	for rows.Next() {
		var ref SignatureRef
		if err := rows.Scan(&ref.ID, &ref.RepositoryID); err != nil {
			return nil, NewStoreError(s.config.Driver, "stale_signatures", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError(s.config.Driver, "stale_signatures", err)
	}
	return refs, nil
}

// ExpiredSignatures returns signatures last updated at or before cutoff with
// their repository and framework names, ordered by id.
func (s *Store) ExpiredSignatures(ctx context.Context, cutoff time.Time) ([]Signature, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.signature_hash, s.repository_id, COALESCE(r.name, ''),
		       s.framework_id, COALESCE(f.name, ''),
		       s.platform, s.suite, s.test, s.application, s.last_updated
		FROM performance_signature s
		LEFT JOIN repository r ON r.id = s.repository_id
		LEFT JOIN performance_framework f ON f.id = s.framework_id
		WHERE s.last_updated <= ?
		ORDER BY s.id
	`, cutoff.Unix())
	if err != nil {
		return nil, NewStoreError(s.config.Driver, "expired_signatures", err)
	}
	defer rows.Close()

	var signatures []Signature
	for rows.Next() {
		var (
			sig         Signature
			lastUpdated int64
		)
		if err := rows.Scan(
			&sig.ID, &sig.Hash, &sig.RepositoryID, &sig.Repository,
			&sig.FrameworkID, &sig.Framework,
			&sig.Platform, &sig.Suite, &sig.Test, &sig.Application, &lastUpdated,
		); err != nil {
			return nil, NewStoreError(s.config.Driver, "expired_signatures", err)
		}
		sig.LastUpdated = time.Unix(lastUpdated, 0)
		signatures = append(signatures, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError(s.config.Driver, "expired_signatures", err)
	}
	return signatures, nil
}

// HasPerformanceData reports whether any datum still references the signature.
func (s *Store) HasPerformanceData(ctx context.Context, signatureID int64) (bool, error) {
	return s.exists(ctx, "has_performance_data",
		"SELECT EXISTS (SELECT 1 FROM performance_datum WHERE signature_id = ?)", signatureID)
}

// HasAlerts reports whether any alert references the signature.
func (s *Store) HasAlerts(ctx context.Context, signatureID int64) (bool, error) {
	return s.exists(ctx, "has_alerts",
		"SELECT EXISTS (SELECT 1 FROM performance_alert WHERE series_signature_id = ?)", signatureID)
}

// DeleteSignatures removes the given signatures and returns how many were
// deleted.
func (s *Store) DeleteSignatures(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("DELETE FROM performance_signature WHERE id IN (%s)", Placeholders(len(ids)))
	res, err := s.db.ExecContext(ctx, query, Int64Args(ids)...)
	if err != nil {
		return 0, NewStoreError(s.config.Driver, "delete_signatures", err)
	}
	return RowsAffected(res), nil
}

// PruneAlertSummaries deletes alert summaries created strictly before
// createdBefore that have neither alerts nor related alerts.
func (s *Store) PruneAlertSummaries(ctx context.Context, createdBefore time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM performance_alert_summary
		WHERE created < ?
		  AND NOT EXISTS (
		      SELECT 1 FROM performance_alert a
		      WHERE a.summary_id = performance_alert_summary.id
		  )
		  AND NOT EXISTS (
		      SELECT 1 FROM performance_alert a
		      WHERE a.related_summary_id = performance_alert_summary.id
		  )
	`, createdBefore.Unix())
	if err != nil {
		return 0, NewStoreError(s.config.Driver, "prune_alert_summaries", err)
	}
	return RowsAffected(res), nil
}

// Count returns the number of rows in table matching where.
func (s *Store) Count(ctx context.Context, table string, where *Where) (int64, error) {
	if where == nil {
		where = NewWhere()
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where.Clause())
	if err := s.db.QueryRowContext(ctx, query, where.Args()...).Scan(&count); err != nil {
		return 0, NewStoreError(s.config.Driver, "count", err)
	}
	return count, nil
}

func (s *Store) exists(ctx context.Context, operation, query string, args ...any) (bool, error) {
	var found bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, NewStoreError(s.config.Driver, operation, err)
	}
	return found, nil
}
