package sys

import "sync/atomic"

// officeGate guards the process against two live office instances. The
// native engine keeps global state, so initializing a second instance
// while one is live corrupts both.
var officeGate atomic.Bool

// ClaimOfficeGate claims the process office slot, returning false when
// another live instance already holds it. Claim before any expensive
// initialization work and release with ReleaseOfficeGate if that work
// fails.
func ClaimOfficeGate() bool {
	return officeGate.CompareAndSwap(false, true)
}

// ReleaseOfficeGate frees the process office slot for the next instance.
func ReleaseOfficeGate() {
	officeGate.Store(false)
}
