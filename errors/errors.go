package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the engine lifecycle the error occurred
type Phase string

const (
	PhaseGate     Phase = "gate"     // instance exclusivity
	PhaseInit     Phase = "init"     // library loading and engine construction
	PhaseCall     Phase = "call"     // function table invocation
	PhaseCallback Phase = "callback" // notification dispatch
	PhaseParse    Phase = "parse"    // engine-produced metadata parsing
	PhaseURL      Phase = "url"      // document addressing
	PhaseDiscover Phase = "discover" // installation discovery
)

// Kind categorizes the error
type Kind string

const (
	// KindEngine carries a message the engine left in its error slot.
	KindEngine Kind = "engine"
	// KindMissingFunction means a function table slot was absent or null,
	// i.e. the installed engine build predates the capability.
	KindMissingFunction Kind = "missing_function"
	// KindMalformedMetadata covers UTF-8 or parse failures on
	// engine-produced introspection payloads.
	KindMalformedMetadata Kind = "malformed_metadata"
	// KindInvalidInput covers caller-supplied strings with embedded NUL
	// bytes and paths or URIs that fail normalization.
	KindInvalidInput Kind = "invalid_input"
	// KindInstanceLock means another engine instance is active in-process.
	KindInstanceLock Kind = "instance_lock"
	// KindStaleHandle means a weak handle outlived every strong owner.
	KindStaleHandle Kind = "stale_handle"
	// KindUnknownInit means initialization could not proceed and the
	// engine left no message, including when no installation was found.
	KindUnknownInit Kind = "unknown_init"
)

// Error is the structured error type used throughout the binding
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	Function   string // function table entry involved, if any
	MinVersion string // minimum engine version for that entry, if known
	Detail     string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Function != "" {
		b.WriteString(" at ")
		b.WriteString(e.Function)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.MinVersion != "" {
		b.WriteString(" (requires LibreOffice ")
		b.WriteString(e.MinVersion)
		b.WriteString(" or newer)")
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Function sets the function table entry name
func (b *Builder) Function(name string) *Builder {
	b.err.Function = name
	return b
}

// MinVersion sets the minimum engine version for the entry
func (b *Builder) MinVersion(v string) *Builder {
	b.err.MinVersion = v
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Engine creates an engine-reported error from the engine's error slot
func Engine(phase Phase, message string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEngine,
		Detail: message,
	}
}

// MissingFunction creates a missing-capability error for a null or absent
// table slot. minVersion may be empty when the gate version is unknown.
func MissingFunction(name, minVersion string) *Error {
	return &Error{
		Phase:      PhaseCall,
		Kind:       KindMissingFunction,
		Function:   name,
		MinVersion: minVersion,
		Detail:     "not provided by the installed engine",
	}
}

// MalformedMetadata creates a parse error for engine-produced payloads
func MalformedMetadata(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindMalformedMetadata,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// InvalidUTF8 creates a malformed-metadata error for non-UTF-8 payloads
func InvalidUTF8(what string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindMalformedMetadata,
		Detail: fmt.Sprintf("%s is not valid UTF-8: %x", what, preview),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NulByte creates an invalid input error for a string with an embedded NUL
func NulByte(what string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("%s contains an embedded NUL byte", what),
	}
}

// InstanceLock creates an instance-exclusivity error
func InstanceLock() *Error {
	return &Error{
		Phase:  PhaseGate,
		Kind:   KindInstanceLock,
		Detail: "another office instance is active in this process",
	}
}

// StaleHandle creates an error for use of a handle past its owner's lifetime
func StaleHandle(what string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindStaleHandle,
		Detail: fmt.Sprintf("%s was already destroyed", what),
	}
}

// UnknownInit creates an error for construction failures where the engine
// set no retrievable message
func UnknownInit() *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindUnknownInit,
		Detail: "engine initialization failed without an error message",
	}
}
