// Package health serves liveness, readiness and version endpoints for the
// long-running schedule command.
//
// Liveness (/health) only reports that the process is up. Readiness (/ready)
// runs the registered component checks, such as a database ping and the
// scheduler state, and answers 503 when any of them fails.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("database", st.Ping)
//	health.Register(mux, checker, health.NewVersionInfo(version, commit, date))
package health
