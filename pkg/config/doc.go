// Package config provides configuration management for datacycle.
//
// Configuration is read from a YAML file, completed with defaults, then
// overridden by environment variables and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("datacycle.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention DATACYCLE_SECTION_FIELD:
//
//   - DATACYCLE_DATABASE_PATH overrides database.path
//   - DATACYCLE_CYCLING_CHUNK_SIZE overrides cycling.chunk_size
//   - DATACYCLE_CYCLING_DATA_SOURCES overrides cycling.data_sources (comma separated)
//   - DATACYCLE_NOTIFY_ACCESS_TOKEN overrides notify.access_token
//
// # Singleton Pattern
//
// The commands load the configuration once with Initialize and read it with
// GetConfig. The schedule command replaces it with ReloadConfig when the
// file changes; a reload that fails validation keeps the previous value.
package config
