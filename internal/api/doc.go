// Package api exposes the scheduler over HTTP. Handlers start, stop and
// reset runs and report their status and attempt log, translating HTTP
// concerns to scheduler operations.
package api
