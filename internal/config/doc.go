// Package config loads the baseline builder configuration.
//
// Values are resolved in three layers, each overriding the previous one:
//
//  1. Default()
//  2. a YAML file (config.yaml or configs/config.yaml, or the path given to LoadFrom)
//  3. BASELINE_* environment variables
//
// Example environment:
//
//	BASELINE_SERVER_PORT=8080
//	BASELINE_SHEETS_SHEET_ID=1AbC...
//	BASELINE_SHEETS_CREDENTIALS_FILE=/etc/baseline/service-account.json
//	BASELINE_SHEETS_CACHE_TTL=5m
//	BASELINE_SEASONS_FILE=seasons.csv
//	BASELINE_LOGGING_LEVEL=debug
//
// When no sheet id is configured the season table is read from Seasons.File.
package config
