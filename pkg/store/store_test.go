package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/datacycle/pkg/store"
	"mercator-hq/datacycle/pkg/store/storetest"
)

// TestOpen_Validation tests configuration validation on open.
func TestOpen_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config *store.Config
	}{
		{"empty path", &store.Config{Driver: store.DriverPureGo}},
		{"unknown driver", &store.Config{Driver: "postgres", Path: filepath.Join(t.TempDir(), "x.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Open(tt.config)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var storeErr *store.StoreError
			if !errors.As(err, &storeErr) {
				t.Fatalf("Expected *StoreError, got %T", err)
			}
			if storeErr.Operation != "open" {
				t.Errorf("Expected operation 'open', got %q", storeErr.Operation)
			}
		})
	}
}

// TestOpen_Defaults tests that zero values are filled in.
func TestOpen_Defaults(t *testing.T) {
	s, err := store.Open(&store.Config{Path: filepath.Join(t.TempDir(), "defaults.db")})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if s.Driver() != store.DriverPureGo {
		t.Errorf("Expected driver %q, got %q", store.DriverPureGo, s.Driver())
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

// TestDeleteChunk_RespectsLimit tests that a chunk never exceeds its limit
// and removes lowest ids first.
func TestDeleteChunk_RespectsLimit(t *testing.T) {
	f := storetest.NewFixture(t)
	ctx := context.Background()
	now := time.Now()

	repo := f.Repository("mozilla-central")
	sig := f.Signature(repo, now)
	ids := f.Data(repo, sig, now.AddDate(-1, 0, -1), 25)

	where := store.NewWhere().And("push_timestamp <= ?", now.AddDate(-1, 0, 0).Unix())

	deleted, err := store.DeleteChunk(ctx, f.Store.DB(), store.TableDatum, where, 10)
	if err != nil {
		t.Fatalf("DeleteChunk() failed: %v", err)
	}
	if deleted != 10 {
		t.Errorf("Expected 10 deleted, got %d", deleted)
	}

	remaining := f.Count(store.TableDatum, store.NewWhere().In("id", ids[:10]))
	if remaining != 0 {
		t.Errorf("Expected lowest 10 ids removed, %d remain", remaining)
	}

	for i := 0; i < 2; i++ {
		if _, err := store.DeleteChunk(ctx, f.Store.DB(), store.TableDatum, where, 10); err != nil {
			t.Fatalf("DeleteChunk() failed: %v", err)
		}
	}
	if total := f.Count(store.TableDatum, nil); total != 0 {
		t.Errorf("Expected 0 rows after three chunks, got %d", total)
	}

	deleted, err = store.DeleteChunk(ctx, f.Store.DB(), store.TableDatum, where, 10)
	if err != nil {
		t.Fatalf("DeleteChunk() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted on empty table, got %d", deleted)
	}
}

// TestDeleteChunk_BadStatement tests that statement errors carry the query.
func TestDeleteChunk_BadStatement(t *testing.T) {
	s := storetest.Open(t)

	_, err := store.DeleteChunk(context.Background(), s.DB(), "no_such_table", store.NewWhere(), 10)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	var storeErr *store.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected *StoreError, got %T", err)
	}
	if storeErr.Statement == "" {
		t.Error("Expected statement to be recorded")
	}
}

// TestWhere_Clause tests condition composition.
func TestWhere_Clause(t *testing.T) {
	tests := []struct {
		name     string
		where    *store.Where
		expected string
		args     int
	}{
		{"empty", store.NewWhere(), "1 = 1", 0},
		{"in", store.NewWhere().In("id", []int64{1, 2}), "id IN (?, ?)", 2},
		{"empty in", store.NewWhere().In("id", nil), "0 = 1", 0},
		{"empty not in", store.NewWhere().NotIn("id", nil), "1 = 1", 0},
		{
			"combined",
			store.NewWhere().And("a <= ?", 5).NotIn("repository_id", []int64{3}),
			"a <= ? AND repository_id NOT IN (?)",
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.where.Clause(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
			if got := len(tt.where.Args()); got != tt.args {
				t.Errorf("Expected %d args, got %d", tt.args, got)
			}
		})
	}
}

// TestCountUpToAndMaxID tests the chunk sizing helpers.
func TestCountUpToAndMaxID(t *testing.T) {
	f := storetest.NewFixture(t)
	ctx := context.Background()
	now := time.Now()

	repo := f.Repository("mozilla-central")
	sig := f.Signature(repo, now)
	f.Data(repo, sig, now.AddDate(0, 0, -400), 7)
	fresh := f.Data(repo, sig, now, 3)

	expired := store.NewWhere().And("push_timestamp <= ?", now.AddDate(0, 0, -365).Unix())
	n, err := store.CountUpTo(ctx, f.Store.DB(), store.TableDatum, expired, 5)
	if err != nil {
		t.Fatalf("CountUpTo() failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected count capped at 5, got %d", n)
	}

	live := store.NewWhere().And("push_timestamp > ?", now.AddDate(0, 0, -365).Unix())
	maxID, ok, err := store.MaxID(ctx, f.Store.DB(), store.TableDatum, live)
	if err != nil {
		t.Fatalf("MaxID() failed: %v", err)
	}
	if !ok || maxID != fresh[len(fresh)-1] {
		t.Errorf("Expected max id %d, got %d (found=%v)", fresh[len(fresh)-1], maxID, ok)
	}

	_, ok, err = store.MaxID(ctx, f.Store.DB(), store.TableDatum, store.NewWhere().And("0 = 1"))
	if err != nil {
		t.Fatalf("MaxID() failed: %v", err)
	}
	if ok {
		t.Error("Expected no row found")
	}
}

// TestRegistry_Lookups tests repository and signature lookups.
func TestRegistry_Lookups(t *testing.T) {
	f := storetest.NewFixture(t)
	ctx := context.Background()
	now := time.Now()

	central := f.Repository("mozilla-central")
	try := f.Repository("try")

	if _, err := f.Store.RepositoryID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	id, err := f.Store.RepositoryID(ctx, "try")
	if err != nil || id != try {
		t.Fatalf("Expected try id %d, got %d (%v)", try, id, err)
	}

	ids, err := f.Store.RepositoryIDs(ctx, []string{"mozilla-central", "autoland"})
	if err != nil {
		t.Fatalf("RepositoryIDs() failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != central {
		t.Errorf("Expected [%d], got %v", central, ids)
	}

	s1 := f.Signature(try, now)
	s2 := f.Signature(try, now)
	f.Signature(central, now)

	sigs, err := f.Store.SignatureIDs(ctx, try)
	if err != nil {
		t.Fatalf("SignatureIDs() failed: %v", err)
	}
	if len(sigs) != 2 || sigs[0] != s2 || sigs[1] != s1 {
		t.Errorf("Expected [%d %d], got %v", s2, s1, sigs)
	}
}

// TestStaleSignatures_InclusiveCutoff tests that signatures updated exactly
// at the cutoff are stale.
func TestStaleSignatures_InclusiveCutoff(t *testing.T) {
	f := storetest.NewFixture(t)
	ctx := context.Background()
	cutoff := time.Unix(time.Now().Unix(), 0).AddDate(0, 0, -120)

	repo := f.Repository("mozilla-central")
	older := f.Signature(repo, cutoff.Add(-time.Hour))
	exact := f.Signature(repo, cutoff)
	f.Signature(repo, cutoff.Add(time.Second))

	refs, err := f.Store.StaleSignatures(ctx, cutoff)
	if err != nil {
		t.Fatalf("StaleSignatures() failed: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("Expected 2 stale signatures, got %d", len(refs))
	}
	if refs[0].ID != older || refs[1].ID != exact {
		t.Errorf("Expected oldest first [%d %d], got %v", older, exact, refs)
	}
	if refs[0].RepositoryID != repo {
		t.Errorf("Expected repository %d, got %d", repo, refs[0].RepositoryID)
	}
}

// TestExpiredSignatures_JoinsNames tests that expired signatures carry
// repository and framework names.
func TestExpiredSignatures_JoinsNames(t *testing.T) {
	f := storetest.NewFixture(t)
	ctx := context.Background()
	now := time.Now()

	repo := f.Repository("autoland")
	sig := f.Signature(repo, now.AddDate(-2, 0, 0))
	f.Signature(repo, now)

	sigs, err := f.Store.ExpiredSignatures(ctx, now.AddDate(-1, 0, 0))
	if err != nil {
		t.Fatalf("ExpiredSignatures() failed: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("Expected 1 expired signature, got %d", len(sigs))
	}
	if sigs[0].ID != sig || sigs[0].Repository != "autoland" || sigs[0].Framework != "talos" {
		t.Errorf("Unexpected signature: %+v", sigs[0])
	}

	hasData, err := f.Store.HasPerformanceData(ctx, sig)
	if err != nil || hasData {
		t.Errorf("Expected no data, got %v (%v)", hasData, err)
	}
	f.Data(repo, sig, now, 1)
	hasData, err = f.Store.HasPerformanceData(ctx, sig)
	if err != nil || !hasData {
		t.Errorf("Expected data, got %v (%v)", hasData, err)
	}
}

// TestPruneAlertSummaries tests summary pruning around the boundary and
// alert references.
func TestPruneAlertSummaries(t *testing.T) {
	f := storetest.NewFixture(t)
	ctx := context.Background()
	boundary := time.Unix(time.Now().Unix(), 0).AddDate(0, 0, -180)

	repo := f.Repository("mozilla-central")
	sig := f.Signature(repo, time.Now())

	before := f.AlertSummary(repo, boundary.Add(-time.Second))
	exact := f.AlertSummary(repo, boundary)
	after := f.AlertSummary(repo, boundary.Add(time.Second))
	withAlert := f.AlertSummary(repo, boundary.AddDate(0, 0, -10))
	f.Alert(withAlert, 0, sig)
	related := f.AlertSummary(repo, boundary.AddDate(0, 0, -10))
	f.Alert(after, related, sig)

	removed, err := f.Store.PruneAlertSummaries(ctx, boundary)
	if err != nil {
		t.Fatalf("PruneAlertSummaries() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 summary removed, got %d", removed)
	}

	for _, tc := range []struct {
		name string
		id   int64
		kept bool
	}{
		{"before boundary", before, false},
		{"exactly at boundary", exact, true},
		{"after boundary", after, true},
		{"with alert", withAlert, true},
		{"with related alert", related, true},
	} {
		n := f.Count(store.TableAlertSummary, store.NewWhere().And("id = ?", tc.id))
		if (n == 1) != tc.kept {
			t.Errorf("%s: expected kept=%v, got count %d", tc.name, tc.kept, n)
		}
	}
}

// TestJobs_ExpireAndDelete tests expired job selection and deletion with
// logs, followed by lookup pruning.
func TestJobs_ExpireAndDelete(t *testing.T) {
	f := storetest.NewFixture(t)
	ctx := context.Background()
	now := time.Now()

	repo := f.Repository("autoland")
	old1 := f.Job(repo, now.AddDate(0, 0, -200), "m-old", "build", "B")
	old2 := f.Job(repo, now.AddDate(0, 0, -150), "m-old", "build", "B")
	f.Job(repo, now, "m-new", "test", "T")

	ids, err := store.ExpiredJobIDs(ctx, f.Store.DB(), now.AddDate(0, 0, -120), 10)
	if err != nil {
		t.Fatalf("ExpiredJobIDs() failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != old1 || ids[1] != old2 {
		t.Fatalf("Expected [%d %d], got %v", old1, old2, ids)
	}

	var deleted int64
	err = f.Store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = store.DeleteJobs(ctx, tx, ids)
		return err
	})
	if err != nil {
		t.Fatalf("DeleteJobs() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 jobs deleted, got %d", deleted)
	}
	if n := f.Count(store.TableJobLog, nil); n != 1 {
		t.Errorf("Expected 1 job log left, got %d", n)
	}

	unused, err := f.Store.UnusedAncillaryIDs(ctx, store.TableMachine)
	if err != nil {
		t.Fatalf("UnusedAncillaryIDs() failed: %v", err)
	}
	if len(unused) != 1 {
		t.Fatalf("Expected 1 unused machine, got %v", unused)
	}
	if n, err := f.Store.DeleteByIDs(ctx, store.TableMachine, unused); err != nil || n != 1 {
		t.Errorf("Expected 1 machine deleted, got %d (%v)", n, err)
	}

	if _, err := f.Store.UnusedAncillaryIDs(ctx, store.TableDatum); err == nil {
		t.Error("Expected error for unsupported table")
	}
}
