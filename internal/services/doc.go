// Package services sits between the HTTP handlers and the pipeline
// packages. DataService answers read queries from the store and the
// report files, OperationService starts and tracks pipeline runs, and
// HealthService reports liveness and readiness.
//
// Services take their collaborators as interfaces and a *slog.Logger;
// they return the sentinel errors in errors.go, wrapped with %w, or the
// typed errors from internal/errors.
package services
