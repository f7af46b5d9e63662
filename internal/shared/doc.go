// Package shared holds helpers used by more than one package.
//
// testutil provides a capturing slog handler and the rate and season fixtures
// that the parser, service and transport tests share.
package shared
