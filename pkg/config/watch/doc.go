// Package watch reloads the datacycle configuration file when it changes,
// so the schedule command picks up new settings without a restart.
package watch
