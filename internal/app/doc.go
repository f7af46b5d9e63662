// Package app wires the baseline builder service together and owns its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, config.yaml, BASELINE_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Pick the season source (Google Sheet or local file) and build the cached loader
//	4. Build the baseline and health services
//	5. Set up middleware, handlers and the /metrics endpoint
//	6. Configure the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// server.shutdown_timeout and flushes telemetry. The package never calls
// os.Exit; the main function decides the exit code.
package app
