// Datacycle removes expired jobs and performance data from a Treeherder-style
// database.
//
// Usage:
//
//	# Cycle jobs once (default data source)
//	datacycle cycle
//
//	# Cycle performance data with a config file
//	datacycle cycle perf --config /etc/datacycle/config.yaml
//
//	# Run every configured data source on a cron schedule
//	datacycle schedule --config /etc/datacycle/config.yaml
//
//	# Print the effective configuration
//	datacycle config show --output yaml
package main

func main() {
	Execute()
}
