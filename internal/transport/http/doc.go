// Package http implements the HTTP handlers of the baseline builder. It is a
// thin layer between the chi router and the services package.
//
// Handlers parse and validate the request, call one service method, and
// either render JSON with go-chi/render or hand the error to
// errors.ErrorHandler, which writes an RFC 7807 problem document.
//
// Routes:
//
//	POST /api/baseline/units     multipart file -> unit codes
//	POST /api/baseline/preview   multipart file, unit, discount -> baseline JSON
//	POST /api/baseline/download  same plus format=csv|xlsx -> attachment
//	GET  /api/seasons            season table in use
//	POST /api/seasons/refresh    refetch the season table
//	GET  /api/health             liveness
//	GET  /api/health/ready       readiness (season source reachable)
package http
