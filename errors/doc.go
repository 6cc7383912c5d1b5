// Package errors provides structured error types for the LibreOfficeKit binding.
//
// Errors are categorized by Phase (where in the engine lifecycle the error
// occurred) and Kind (error category). The Error type includes the function
// table entry involved, the minimum engine version for it, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCall, errors.KindEngine).
//		Function("documentLoad").
//		Detail("failed to load %s", url).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingFunction("setDocumentPassword", "6.0")
//	err := errors.Engine(errors.PhaseCall, message)
//
// All errors implement the standard error interface and support errors.Is/As;
// Is matches on Phase and Kind, so callers can test for a category:
//
//	if errors.Is(err, liberrors.InstanceLock()) { ... }
package errors
