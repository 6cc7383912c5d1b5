package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhaseCall,
				Kind:       KindMissingFunction,
				Function:   "getFilterTypes",
				MinVersion: "6.0",
				Detail:     "not provided by the installed engine",
			},
			contains: []string{"[call]", "missing_function", "getFilterTypes", "6.0", "not provided"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseGate,
				Kind:  KindInstanceLock,
			},
			contains: []string{"[gate]", "instance_lock"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseInit,
				Kind:   KindUnknownInit,
				Detail: "hook returned nil",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[init]", "unknown_init", "hook returned nil", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseParse,
		Kind:  KindMalformedMetadata,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:    PhaseCall,
		Kind:     KindMissingFunction,
		Function: "trimMemory",
	}

	// Same phase and kind
	if !err.Is(&Error{Phase: PhaseCall, Kind: KindMissingFunction}) {
		t.Error("Is should match same phase and kind")
	}

	// Different phase
	if err.Is(&Error{Phase: PhaseInit, Kind: KindMissingFunction}) {
		t.Error("Is should not match different phase")
	}

	// Different kind
	if err.Is(&Error{Phase: PhaseCall, Kind: KindEngine}) {
		t.Error("Is should not match different kind")
	}

	// Test with errors.Is
	target := &Error{Phase: PhaseCall, Kind: KindMissingFunction}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseCall, KindEngine).
		Function("documentLoad").
		MinVersion("4.3").
		Value("file:///tmp/a.docx").
		Cause(cause).
		Detail("failed to load %q", "a.docx").
		Build()

	if err.Phase != PhaseCall {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseCall)
	}
	if err.Kind != KindEngine {
		t.Errorf("Kind = %v, want %v", err.Kind, KindEngine)
	}
	if err.Function != "documentLoad" {
		t.Errorf("Function = %v, want documentLoad", err.Function)
	}
	if err.MinVersion != "4.3" {
		t.Errorf("MinVersion = %v, want 4.3", err.MinVersion)
	}
	if err.Value != "file:///tmp/a.docx" {
		t.Errorf("Value = %v, want file URL", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != `failed to load "a.docx"` {
		t.Errorf("Detail = %v, want 'failed to load \"a.docx\"'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Engine", func(t *testing.T) {
		err := Engine(PhaseCall, "loadComponentFromURL failed")
		if err.Kind != KindEngine {
			t.Errorf("Kind = %v, want %v", err.Kind, KindEngine)
		}
		if err.Detail != "loadComponentFromURL failed" {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("MissingFunction", func(t *testing.T) {
		err := MissingFunction("setOption", "7.1")
		if err.Kind != KindMissingFunction {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMissingFunction)
		}
		if err.Function != "setOption" {
			t.Errorf("Function = %v, want setOption", err.Function)
		}
		if !strings.Contains(err.Error(), "7.1") {
			t.Errorf("Error() = %v, should name the minimum version", err.Error())
		}
	})

	t.Run("MissingFunction without version", func(t *testing.T) {
		err := MissingFunction("documentLoad", "")
		if strings.Contains(err.Error(), "requires LibreOffice") {
			t.Errorf("Error() = %v, should omit version clause", err.Error())
		}
	})

	t.Run("MalformedMetadata", func(t *testing.T) {
		cause := errors.New("unexpected end of JSON input")
		err := MalformedMetadata("version info", cause)
		if err.Kind != KindMalformedMetadata {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMalformedMetadata)
		}
		if !errors.Is(err, &Error{Phase: PhaseParse, Kind: KindMalformedMetadata}) {
			t.Error("errors.Is should match phase+kind")
		}
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		err := InvalidUTF8("filter types", []byte{0xff, 0xfe})
		if err.Kind != KindMalformedMetadata {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMalformedMetadata)
		}
		if !strings.Contains(err.Detail, "fffe") {
			t.Errorf("Detail = %v, should contain hex preview", err.Detail)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput(PhaseURL, "path is not absolute")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
		}
		if err.Phase != PhaseURL {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseURL)
		}
	})

	t.Run("NulByte", func(t *testing.T) {
		err := NulByte("password")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
		}
		if !strings.Contains(err.Detail, "password") {
			t.Errorf("Detail = %v, should name the input", err.Detail)
		}
	})

	t.Run("InstanceLock", func(t *testing.T) {
		err := InstanceLock()
		if err.Kind != KindInstanceLock || err.Phase != PhaseGate {
			t.Errorf("got %v/%v, want gate/instance_lock", err.Phase, err.Kind)
		}
	})

	t.Run("StaleHandle", func(t *testing.T) {
		err := StaleHandle("office")
		if err.Kind != KindStaleHandle {
			t.Errorf("Kind = %v, want %v", err.Kind, KindStaleHandle)
		}
		// Two stale-handle errors match regardless of subject
		if !errors.Is(err, StaleHandle("document")) {
			t.Error("stale handle errors should match by category")
		}
	})

	t.Run("UnknownInit", func(t *testing.T) {
		err := UnknownInit()
		if err.Kind != KindUnknownInit || err.Phase != PhaseInit {
			t.Errorf("got %v/%v, want init/unknown_init", err.Phase, err.Kind)
		}
	})
}
