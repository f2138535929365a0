// Package operations runs the data pipeline as a sequence of steps.
//
// A Manager owns a Registry of steps (scraping, processing, analysis and
// fishing, in that order) and executes them for each OperationRequest:
//
//	mgr := operations.NewManager(hub, registry, operations.NewConfig(), logger, metrics)
//	snap, err := mgr.Execute(ctx, operations.OperationRequest{})
//
// Each step runs under its own timeout. Retryable failures (network errors
// and timeouts) are retried with exponential backoff. When a step fails the
// remaining steps are skipped unless Config.ContinueOnError is set, in which
// case only the steps depending on the failed one are skipped.
//
// A single step is requested with the "step" parameter. Dependencies that
// are not part of the run are assumed to be satisfied by earlier runs.
//
// Every state change is published as a domain.OperationSnapshot through the
// WebSocketHub under the "operation:snapshot" event type.
package operations
