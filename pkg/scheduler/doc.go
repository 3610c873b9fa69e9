// Package scheduler runs cycling passes on a cron schedule for the
// long-running schedule command. Overlapping runs are skipped and the
// schedule can be replaced at runtime when the configuration is reloaded.
package scheduler
