// Package queue runs pipeline executions in the background on a bounded
// worker pool and tracks their lifecycle.
package queue
