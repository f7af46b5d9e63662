// Package seasons loads the ordered season table from a Google Sheet or a
// local file and caches it per source for a short TTL.
//
// Fetch failures surface as *FetchError; unreadable table contents wrap
// ErrInvalidSeasonTable. Neither is cached.
package seasons
