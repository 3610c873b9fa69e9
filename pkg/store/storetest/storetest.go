// Package storetest provides a throwaway store and fixture helpers for tests.
package storetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/datacycle/pkg/store"
)

// Open creates a pure Go SQLite store in a temporary directory. The store is
// closed when the test ends.
func Open(t testing.TB) *store.Store {
	t.Helper()
	return OpenAt(t, filepath.Join(t.TempDir(), "test.db"))
}

// OpenAt opens a pure Go SQLite store at path, for tests that share the file
// with code under test.
func OpenAt(t testing.TB, path string) *store.Store {
	t.Helper()

	s, err := store.Open(&store.Config{
		Driver:      store.DriverPureGo,
		Path:        path,
		WALMode:     true,
		BusyTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Fixture seeds rows into a store, failing the test on any error.
type Fixture struct {
	t     testing.TB
	Store *store.Store
	ctx   context.Context

	frameworkID int64
	pushes      map[int64]int64
	seq         int
}

// NewFixture opens a fresh store and returns a fixture bound to it.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	return NewFixtureAt(t, filepath.Join(t.TempDir(), "test.db"))
}

// NewFixtureAt returns a fixture bound to a store at path.
func NewFixtureAt(t testing.TB, path string) *Fixture {
	t.Helper()
	return &Fixture{
		t:      t,
		Store:  OpenAt(t, path),
		ctx:    context.Background(),
		pushes: make(map[int64]int64),
	}
}

// Repository creates a repository.
func (f *Fixture) Repository(name string) int64 {
	f.t.Helper()
	id, err := f.Store.CreateRepository(f.ctx, name)
	if err != nil {
		f.t.Fatalf("CreateRepository(%q) failed: %v", name, err)
	}
	return id
}

// Framework returns the id of the default "talos" framework, creating it on
// first use.
func (f *Fixture) Framework() int64 {
	f.t.Helper()
	if f.frameworkID != 0 {
		return f.frameworkID
	}
	id, err := f.Store.CreateFramework(f.ctx, "talos")
	if err != nil {
		f.t.Fatalf("CreateFramework() failed: %v", err)
	}
	f.frameworkID = id
	return id
}

// Signature creates a signature in repositoryID last updated at lastUpdated.
func (f *Fixture) Signature(repositoryID int64, lastUpdated time.Time) int64 {
	f.t.Helper()
	f.seq++
	sig := &store.Signature{
		Hash:         fmt.Sprintf("sig-%04d", f.seq),
		RepositoryID: repositoryID,
		FrameworkID:  f.Framework(),
		Platform:     "linux64",
		Suite:        fmt.Sprintf("suite-%d", f.seq),
		Test:         "test",
		Application:  "firefox",
		LastUpdated:  lastUpdated,
	}
	id, err := f.Store.CreateSignature(f.ctx, sig)
	if err != nil {
		f.t.Fatalf("CreateSignature() failed: %v", err)
	}
	return id
}

// Data creates count data points for signatureID at pushTimestamp.
func (f *Fixture) Data(repositoryID, signatureID int64, pushTimestamp time.Time, count int) []int64 {
	f.t.Helper()
	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		d := &store.Datum{
			RepositoryID:  repositoryID,
			SignatureID:   signatureID,
			PushID:        f.push(repositoryID),
			PushTimestamp: pushTimestamp,
			Value:         float64(i),
		}
		id, err := f.Store.CreateDatum(f.ctx, d)
		if err != nil {
			f.t.Fatalf("CreateDatum() failed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

// AlertSummary creates an alert summary created at the given time.
func (f *Fixture) AlertSummary(repositoryID int64, created time.Time) int64 {
	f.t.Helper()
	id, err := f.Store.CreateAlertSummary(f.ctx, &store.AlertSummary{
		RepositoryID: repositoryID,
		FrameworkID:  f.Framework(),
		PushID:       f.push(repositoryID),
		Created:      created,
	})
	if err != nil {
		f.t.Fatalf("CreateAlertSummary() failed: %v", err)
	}
	return id
}

// Alert creates an alert on summaryID for signatureID. relatedSummaryID may
// be 0.
func (f *Fixture) Alert(summaryID, relatedSummaryID, signatureID int64) int64 {
	f.t.Helper()
	id, err := f.Store.CreateAlert(f.ctx, &store.Alert{
		SummaryID:         summaryID,
		RelatedSummaryID:  relatedSummaryID,
		SeriesSignatureID: signatureID,
		IsRegression:      true,
		AmountPct:         5,
	})
	if err != nil {
		f.t.Fatalf("CreateAlert() failed: %v", err)
	}
	return id
}

// Job creates a job submitted at submitTime with one log entry. The lookup
// rows are named after machine, jobType and jobGroup and created on demand.
func (f *Fixture) Job(repositoryID int64, submitTime time.Time, machine, jobType, jobGroup string) int64 {
	f.t.Helper()
	j := &store.Job{
		RepositoryID: repositoryID,
		PushID:       f.push(repositoryID),
		JobTypeID:    f.lookup(store.TableJobType, jobType),
		JobGroupID:   f.lookup(store.TableJobGroup, jobGroup),
		MachineID:    f.lookup(store.TableMachine, machine),
		SubmitTime:   submitTime,
	}
	id, err := f.Store.CreateJob(f.ctx, j)
	if err != nil {
		f.t.Fatalf("CreateJob() failed: %v", err)
	}
	if _, err := f.Store.CreateJobLog(f.ctx, id, "live_backing_log", "https://example.com/log"); err != nil {
		f.t.Fatalf("CreateJobLog() failed: %v", err)
	}
	return id
}

// Count returns the number of rows in table matching where.
func (f *Fixture) Count(table string, where *store.Where) int64 {
	f.t.Helper()
	n, err := f.Store.Count(f.ctx, table, where)
	if err != nil {
		f.t.Fatalf("Count(%s) failed: %v", table, err)
	}
	return n
}

func (f *Fixture) push(repositoryID int64) int64 {
	if id, ok := f.pushes[repositoryID]; ok {
		return id
	}
	id, err := f.Store.CreatePush(f.ctx, repositoryID, fmt.Sprintf("rev-%d", repositoryID), time.Now().Unix())
	if err != nil {
		f.t.Fatalf("CreatePush() failed: %v", err)
	}
	f.pushes[repositoryID] = id
	return id
}

func (f *Fixture) lookup(table, name string) int64 {
	var id int64
	err := f.Store.DB().QueryRowContext(f.ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE name = ?", table), name).Scan(&id)
	if err == nil {
		return id
	}
	id, err = f.Store.CreateLookup(f.ctx, table, name)
	if err != nil {
		f.t.Fatalf("CreateLookup(%s, %q) failed: %v", table, name, err)
	}
	return id
}
