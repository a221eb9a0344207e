// Package store provides durable SQLite storage for pluginsync: the
// reconciliation work queue, the set of activated extensions, and pending
// scheduled events. A single Store backs all three so one database file holds
// the whole host state and survives process restarts.
package store
