// Package scheduler implements the persisted single-event trigger that drives
// reconciliation. A Scheduler records at most one pending firing per hook in
// durable storage; a Runner polls for due firings and invokes the bound
// handler serially.
package scheduler
