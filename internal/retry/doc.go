// Package retry wraps fallible operations with bounded attempts and
// exponential backoff. Only errors classified transient by
// services.IsTransient are retried; everything else propagates on first
// occurrence.
package retry
