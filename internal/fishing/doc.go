// Package fishing processes vessel event exports into port visit reports.
//
// Events are flattened, port visits with a plausible duration are kept for
// analysis, and per-port and per-country summaries are written as CSV next
// to a JSON processing report.
package fishing
