// Package sys provides the unsafe function table layer over a native
// LibreOfficeKit library.
//
// Everything here operates on raw pointers obtained from the kit C ABI.
// The library hands out two table-of-function-pointers objects, the
// office (LibreOfficeKit) and the document (LibreOfficeKitDocument).
// Each object starts with a pointer to its class struct, and each class
// struct starts with the byte size of the table in the build that
// produced it. A table entry is callable only when its offset lies
// inside that size and the slot holds a non-null pointer. Has and the
// Slot constants expose that probe.
//
// # Error Protocol
//
// The engine reports failures through a per-instance error slot rather
// than through return values. Nearly every call follows the same
// sequence:
//
//	invoke the table function
//	drain the error slot with getError
//	a non-empty slot means the call failed
//
// The exceptions are saveAs and signDocument, which report through
// their return values alone, and runMacro, which consults the slot only
// when its return value is zero.
//
// # Single Instance
//
// The native engine keeps process-global state, so at most one live
// office may exist per process. ClaimOfficeGate and ReleaseOfficeGate
// implement that rule. InitOffice does not claim the gate itself;
// construction paths that own a full lifecycle claim it first and
// release it when initialization fails or the instance is destroyed.
//
// # Callbacks
//
// One C trampoline, created on first use and shared by every office
// instance, dispatches engine notifications to Go functions through a
// registry id carried in the callback data argument. The payload is
// copied to a Go string before the handler runs, and handler panics are
// contained so they never unwind into native frames. RegisterCallback
// documents the replacement ordering rules.
//
// # Thread Model
//
// The engine is not reentrant. Callers serialize every call into one
// office and its documents. The single legal nested call is
// SetDocumentPassword from inside a callback that is handling a
// password request.
package sys
