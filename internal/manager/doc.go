// Package manager resolves request model names to configured backends and
// dispatches calls to them. It is structured into small files by concern:
//
//   - manager.go: Manager type, constructor, model listing and readiness.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - resolve.go: model lookup, request data and body rewriting.
//   - admission.go: per-backend concurrency limits and queueing.
//   - dispatch.go: one entry point per OpenAI endpoint.
//   - status_report.go: Status reporting.
//   - errors.go: error types and helpers (IsTooBusy).
//
// The HTTP layer should treat this package as the orchestration layer and use
// public methods only.
package manager
