// Package app wires the service together and manages its lifecycle.
//
// New builds every component from a loaded configuration:
//
//	1. Resolve and create the data directories
//	2. Initialize OpenTelemetry and the business metrics
//	3. Open and migrate the SQL store
//	4. Start the WebSocket hub
//	5. Register the pipeline steps with the operations manager
//	6. Build the services and the chi router
//
// The CLI uses the same Application for one-shot pipeline runs through
// Execute; the serve command calls Run, which listens until the context
// is cancelled or SIGINT/SIGTERM arrives and then shuts down in reverse
// order.
package app
