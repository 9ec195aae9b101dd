// Package config handles loading and validating docstore configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The storage backend (local JSON files vs SQLite table) is resolved here,
// once, at startup. Nothing else in the codebase inspects the environment
// to decide where data lives.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
