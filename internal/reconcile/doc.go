// Package reconcile owns the durable work queue and converges a host toward
// an imported manifest one entry per tick.
//
// The Engine is the only writer of the queue. Import replaces the queue and
// arms the trigger; each Tick pops the head, installs the extension when its
// main file is missing, activates it when the record asks for it, persists
// the shorter queue and re-arms the trigger while entries remain.
package reconcile
