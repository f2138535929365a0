// Package config provides centralized configuration management for SeafoodPulse.
// It loads configuration from multiple sources, validates it, and resolves the
// on-disk layout used by every command.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// The file is taken from SEAFOOD_CONFIG, or else the first of config.yaml and
// configs/config.yaml that exists.
//
// # Environment Variables
//
// Variables follow the pattern SEAFOOD_<SECTION>_<FIELD>:
//
//	SEAFOOD_SERVER_PORT=8080
//	SEAFOOD_LOGGING_LEVEL=debug
//	SEAFOOD_SCRAPER_CONCURRENCY=2
//	SEAFOOD_STORE_DRIVER=pgx
//	SEAFOOD_STORE_DSN=postgres://...
//
// # Path Management
//
// Paths are resolved relative to SEAFOOD_HOME, or the executable directory:
//
//	base/
//	  credentials.json
//	  data/
//	    downloads/          weekly statistics workbooks
//	    fishing/            fishing events JSON exports
//	    reports/combined/   combined market table
//	    reports/summary/    analysis, quality and insights JSON
//	    reports/fishing/    fishing events reports
//	    cache/
//	    seafood.db
//	  logs/
package config
