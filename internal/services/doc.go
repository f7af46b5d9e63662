// Package services implements the business logic layer of the baseline
// builder. Handlers and the CLI call into it; it knows nothing about HTTP.
//
// BaselineService runs one interaction end to end: the season table load
// and the rate file parse run concurrently, then the selected unit's rates
// are discounted, assigned to seasons, aggregated and optionally rendered
// for download. HealthService backs the liveness and readiness probes.
//
// Services return sentinel errors (ErrUnitNotFound, ErrNoUnitSelected) or
// the typed errors of the packages below them (dataprocessing.ParseError,
// seasons.FetchError); the transport layer maps them to problem details.
package services
