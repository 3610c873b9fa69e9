package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// UnknownRowCount is reported when the driver cannot tell how many rows a
// statement affected.
const UnknownRowCount int64 = -1

// Where accumulates AND-ed conditions and their positional arguments.
type Where struct {
	conditions []string
	args       []any
}

// NewWhere creates an empty condition set.
func NewWhere() *Where {
	return &Where{}
}

// And appends a condition with its arguments.
func (w *Where) And(condition string, args ...any) *Where {
	w.conditions = append(w.conditions, condition)
	w.args = append(w.args, args...)
	return w
}

// In restricts column to ids. An empty id list matches nothing.
func (w *Where) In(column string, ids []int64) *Where {
	if len(ids) == 0 {
		return w.And("0 = 1")
	}
	return w.And(fmt.Sprintf("%s IN (%s)", column, Placeholders(len(ids))), Int64Args(ids)...)
}

// NotIn excludes ids from column. An empty id list excludes nothing.
func (w *Where) NotIn(column string, ids []int64) *Where {
	if len(ids) == 0 {
		return w
	}
	return w.And(fmt.Sprintf("%s NOT IN (%s)", column, Placeholders(len(ids))), Int64Args(ids)...)
}

// Clause returns the conditions joined with AND, or "1 = 1" when empty.
func (w *Where) Clause() string {
	if len(w.conditions) == 0 {
		return "1 = 1"
	}
	return strings.Join(w.conditions, " AND ")
}

// Args returns a copy of the positional arguments.
func (w *Where) Args() []any {
	args := make([]any, len(w.args))
	copy(args, w.args)
	return args
}

// Placeholders returns n comma separated "?" markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Int64Args converts ids into statement arguments.
func Int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// RowsAffected returns the driver reported row count, or UnknownRowCount
// when the driver cannot report it.
func RowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil || n < 0 {
		return UnknownRowCount
	}
	return n
}

// DeleteChunk deletes at most limit rows of table matching where, lowest ids
// first, and returns the number of rows removed.
//
// SQLite builds rarely enable DELETE ... LIMIT, so the cap is applied through
// an id subquery.
func DeleteChunk(ctx context.Context, exec Executor, table string, where *Where, limit int) (int64, error) {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE id IN (SELECT id FROM %s WHERE %s ORDER BY id LIMIT ?)",
		table, table, where.Clause(),
	)
	args := append(where.Args(), limit)

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		storeErr := NewStoreError("sql", "delete_chunk", err)
		storeErr.Statement = query
		return 0, storeErr
	}
	return RowsAffected(res), nil
}

// CountUpTo counts rows of table matching where, stopping at limit.
func CountUpTo(ctx context.Context, exec Executor, table string, where *Where, limit int) (int64, error) {
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT id FROM %s WHERE %s ORDER BY id LIMIT ?)",
		table, where.Clause(),
	)
	args := append(where.Args(), limit)

	var count int64
	if err := exec.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		storeErr := NewStoreError("sql", "count", err)
		storeErr.Statement = query
		return 0, storeErr
	}
	return count, nil
}

// MaxID returns the highest id of table matching where. The boolean is false
// when no row matches.
func MaxID(ctx context.Context, exec Executor, table string, where *Where) (int64, bool, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE %s ORDER BY id DESC LIMIT 1", table, where.Clause())

	var id int64
	err := exec.QueryRowContext(ctx, query, where.Args()...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		storeErr := NewStoreError("sql", "max_id", err)
		storeErr.Statement = query
		return 0, false, storeErr
	}
	return id, true, nil
}

// queryIDs runs a single-column id query and collects the results.
func queryIDs(ctx context.Context, exec Executor, query string, args ...any) ([]int64, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
