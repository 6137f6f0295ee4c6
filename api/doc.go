// Package api exposes the run queue, session replay, and health surfaces
// over HTTP.
package api
