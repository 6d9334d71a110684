// Package api exposes the task and notification services over HTTP. It
// decodes and validates requests, resolves the principal set by the auth
// middleware, and maps service errors to status codes with client-safe
// messages.
package api
