package sys_test

import (
	"strings"
	"testing"

	"github.com/jacobtread/libreofficekit/loktest"
	"github.com/jacobtread/libreofficekit/sys"
)

const docURL = "file:///tmp/test.odt"

func newRaw(t *testing.T, kit *loktest.Kit) *sys.OfficeRaw {
	t.Helper()
	raw, err := sys.FromKit(kit.Pointer())
	if err != nil {
		t.Fatalf("FromKit failed: %v", err)
	}
	return raw
}

func TestOfficeRaw_LoadAndSave(t *testing.T) {
	kit := loktest.New()
	defer kit.Close()
	raw := newRaw(t, kit)

	doc, err := raw.DocumentLoad(docURL)
	if err != nil {
		t.Fatalf("DocumentLoad failed: %v", err)
	}

	ok, err := doc.SaveAs("file:///tmp/out.pdf", "pdf", "")
	if err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	if !ok {
		t.Error("SaveAs should report success")
	}

	saves := kit.Saves()
	if len(saves) != 1 {
		t.Fatalf("Expected 1 save call, got %d", len(saves))
	}
	if saves[0].Format != "pdf" || saves[0].URL != "file:///tmp/out.pdf" {
		t.Errorf("Save call mismatch: %+v", saves[0])
	}

	if err := doc.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if kit.DocsLive() != 0 {
		t.Error("Document should be destroyed on the engine side")
	}
}

func TestOfficeRaw_SaveFailureLeavesErrorInOfficeSlot(t *testing.T) {
	kit := loktest.New(loktest.WithSaveFailure("docx", "no export filter for docx"))
	defer kit.Close()
	raw := newRaw(t, kit)

	doc, err := raw.DocumentLoad(docURL)
	if err != nil {
		t.Fatalf("DocumentLoad failed: %v", err)
	}
	defer doc.Destroy()

	ok, err := doc.SaveAs("file:///tmp/out.docx", "docx", "")
	if err != nil {
		t.Fatalf("SaveAs itself should not error: %v", err)
	}
	if ok {
		t.Fatal("SaveAs should report failure")
	}

	// The detail is in the office error slot, not the return value
	msg, pending := raw.LastError()
	if !pending {
		t.Fatal("Expected a pending office error after failed save")
	}
	if !strings.Contains(msg, "no export filter") {
		t.Errorf("Unexpected error message: %q", msg)
	}
}

func TestOfficeRaw_LoadError(t *testing.T) {
	kit := loktest.New(loktest.WithLoadError(docURL, "unsupported document format"))
	defer kit.Close()
	raw := newRaw(t, kit)

	_, err := raw.DocumentLoad(docURL)
	if err == nil {
		t.Fatal("Expected load error")
	}
	if !strings.Contains(err.Error(), "unsupported document format") {
		t.Errorf("Error should carry the engine message: %v", err)
	}

	// The failed call must have drained the slot
	if _, pending := raw.LastError(); pending {
		t.Error("Error slot should be drained after the failed call")
	}
}

func TestOfficeRaw_StringCallsFreeEngineMemory(t *testing.T) {
	kit := loktest.New(
		loktest.WithVersionInfo(`{"ProductVersion": "7.4"}`),
		loktest.WithFilterTypes(`{"writer8": {}}`),
		loktest.WithStateDump("state here"),
	)
	defer kit.Close()
	raw := newRaw(t, kit)

	version, err := raw.GetVersionInfo()
	if err != nil {
		t.Fatalf("GetVersionInfo failed: %v", err)
	}
	if !strings.Contains(version, "7.4") {
		t.Errorf("Unexpected version payload: %q", version)
	}

	filters, err := raw.GetFilterTypes()
	if err != nil {
		t.Fatalf("GetFilterTypes failed: %v", err)
	}
	if !strings.Contains(filters, "writer8") {
		t.Errorf("Unexpected filter payload: %q", filters)
	}

	state, err := raw.DumpState()
	if err != nil {
		t.Fatalf("DumpState failed: %v", err)
	}
	if state != "state here" {
		t.Errorf("Unexpected state payload: %q", state)
	}

	// Every engine allocated string, including the empty strings the
	// error slot hands back on successful polls, must have been freed.
	if live := kit.LiveAllocs(); live != 0 {
		t.Errorf("Engine strings leaked: %d live allocations", live)
	}
}

func TestOfficeRaw_RegisterCallback_ReplaceRoutesToNewHandler(t *testing.T) {
	kit := loktest.New()
	defer kit.Close()
	raw := newRaw(t, kit)

	var first, second []string
	if err := raw.RegisterCallback(func(ty int32, payload string) {
		first = append(first, payload)
	}); err != nil {
		t.Fatalf("First RegisterCallback failed: %v", err)
	}

	kit.Emit(1, "to-first")

	if err := raw.RegisterCallback(func(ty int32, payload string) {
		second = append(second, payload)
	}); err != nil {
		t.Fatalf("Second RegisterCallback failed: %v", err)
	}

	kit.Emit(1, "to-second")

	if len(first) != 1 || first[0] != "to-first" {
		t.Errorf("First handler events: %v", first)
	}
	if len(second) != 1 || second[0] != "to-second" {
		t.Errorf("Second handler events: %v", second)
	}
	if kit.Registrations() != 2 {
		t.Errorf("Expected 2 registrations, got %d", kit.Registrations())
	}
}

func TestOfficeRaw_RegisterCallback_RejectedKeepsOldHandler(t *testing.T) {
	kit := loktest.New()
	defer kit.Close()
	raw := newRaw(t, kit)

	var events []string
	if err := raw.RegisterCallback(func(ty int32, payload string) {
		events = append(events, payload)
	}); err != nil {
		t.Fatalf("RegisterCallback failed: %v", err)
	}

	kit.ScriptCallError("registerCallback", "callback registration refused")
	err := raw.RegisterCallback(func(ty int32, payload string) {
		t.Error("Rejected handler must never be invoked")
	})
	if err == nil {
		t.Fatal("Expected rejected registration to error")
	}
	kit.ClearCallError("registerCallback")

	// The engine still points at the first handler
	kit.Emit(1, "still-first")
	if len(events) != 1 || events[0] != "still-first" {
		t.Errorf("First handler should remain installed: %v", events)
	}
}

func TestOfficeRaw_ClearCallback(t *testing.T) {
	kit := loktest.New()
	defer kit.Close()
	raw := newRaw(t, kit)

	var events []string
	if err := raw.RegisterCallback(func(ty int32, payload string) {
		events = append(events, payload)
	}); err != nil {
		t.Fatalf("RegisterCallback failed: %v", err)
	}

	if err := raw.ClearCallback(); err != nil {
		t.Fatalf("ClearCallback failed: %v", err)
	}
	if kit.CallbackInstalled() {
		t.Error("Engine should hold no callback after clear")
	}

	kit.Emit(1, "after-clear")
	if len(events) != 0 {
		t.Errorf("No events expected after clear, got %v", events)
	}
}

func TestOfficeRaw_PasswordHandshake(t *testing.T) {
	const lockedURL = "file:///tmp/locked.odt"

	t.Run("correct password", func(t *testing.T) {
		kit := loktest.New(loktest.WithProtectedDocument(lockedURL, "hunter2"))
		defer kit.Close()
		raw := newRaw(t, kit)

		// DOCUMENT_PASSWORD feature bit
		if err := raw.SetOptionalFeatures(1 << 0); err != nil {
			t.Fatalf("SetOptionalFeatures failed: %v", err)
		}
		if err := raw.RegisterCallback(func(ty int32, payload string) {
			if ty == 20 {
				password := "hunter2"
				if err := raw.SetDocumentPassword(payload, &password); err != nil {
					t.Errorf("SetDocumentPassword failed: %v", err)
				}
			}
		}); err != nil {
			t.Fatalf("RegisterCallback failed: %v", err)
		}

		doc, err := raw.DocumentLoad(lockedURL)
		if err != nil {
			t.Fatalf("Load with correct password failed: %v", err)
		}
		doc.Destroy()

		if got := kit.PromptCount(lockedURL); got != 1 {
			t.Errorf("Expected exactly 1 prompt, got %d", got)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		kit := loktest.New(loktest.WithProtectedDocument(lockedURL, "hunter2"))
		defer kit.Close()
		raw := newRaw(t, kit)

		if err := raw.SetOptionalFeatures(1 << 0); err != nil {
			t.Fatalf("SetOptionalFeatures failed: %v", err)
		}
		if err := raw.RegisterCallback(func(ty int32, payload string) {
			if ty == 20 {
				if err := raw.SetDocumentPassword(payload, nil); err != nil {
					t.Errorf("SetDocumentPassword failed: %v", err)
				}
			}
		}); err != nil {
			t.Fatalf("RegisterCallback failed: %v", err)
		}

		_, err := raw.DocumentLoad(lockedURL)
		if err == nil {
			t.Fatal("Load should fail after password rejection")
		}
		if !strings.Contains(err.Error(), "rejected") {
			t.Errorf("Unexpected error: %v", err)
		}
		if got := kit.PromptCount(lockedURL); got != 1 {
			t.Errorf("Expected exactly 1 prompt, got %d", got)
		}
	})

	t.Run("wrong then correct", func(t *testing.T) {
		kit := loktest.New(loktest.WithProtectedDocument(lockedURL, "hunter2"))
		defer kit.Close()
		raw := newRaw(t, kit)

		if err := raw.SetOptionalFeatures(1 << 0); err != nil {
			t.Fatalf("SetOptionalFeatures failed: %v", err)
		}
		attempts := []string{"wrong", "hunter2"}
		next := 0
		if err := raw.RegisterCallback(func(ty int32, payload string) {
			if ty == 20 {
				password := attempts[next]
				next++
				if err := raw.SetDocumentPassword(payload, &password); err != nil {
					t.Errorf("SetDocumentPassword failed: %v", err)
				}
			}
		}); err != nil {
			t.Fatalf("RegisterCallback failed: %v", err)
		}

		doc, err := raw.DocumentLoad(lockedURL)
		if err != nil {
			t.Fatalf("Load with retried password failed: %v", err)
		}
		doc.Destroy()

		if got := kit.PromptCount(lockedURL); got != 2 {
			t.Errorf("Expected 2 prompts, got %d", got)
		}
	})

	t.Run("feature disabled", func(t *testing.T) {
		kit := loktest.New(loktest.WithProtectedDocument(lockedURL, "hunter2"))
		defer kit.Close()
		raw := newRaw(t, kit)

		_, err := raw.DocumentLoad(lockedURL)
		if err == nil {
			t.Fatal("Load of protected document should fail without the password feature")
		}
		if got := kit.PromptCount(lockedURL); got != 0 {
			t.Errorf("Expected no prompts, got %d", got)
		}
	})
}

func TestOfficeRaw_MissingSlots(t *testing.T) {
	t.Run("null slot", func(t *testing.T) {
		kit := loktest.New(loktest.WithNullSlot("setOption"))
		defer kit.Close()
		raw := newRaw(t, kit)

		err := raw.SetOption("a", "b")
		if err == nil {
			t.Fatal("Expected missing function error")
		}
		if !strings.Contains(err.Error(), "setOption") || !strings.Contains(err.Error(), "7.1") {
			t.Errorf("Error should name the entry and release: %v", err)
		}
	})

	t.Run("truncated table", func(t *testing.T) {
		kit := loktest.New(loktest.WithTableEndingBefore("dumpState"))
		defer kit.Close()
		raw := newRaw(t, kit)

		if _, err := raw.DumpState(); err == nil {
			t.Error("dumpState should be missing")
		}
		if err := raw.TrimMemory(100); err == nil {
			t.Error("trimMemory past the table end should be missing")
		}
		// Entries before the cut keep working
		if err := raw.SetOption("a", "b"); err != nil {
			t.Errorf("setOption should still work: %v", err)
		}
	})
}

func TestOfficeRaw_RunMacro(t *testing.T) {
	const macroURL = "macro:///Standard.Module1.Main"

	kit := loktest.New(loktest.WithMacroResult(macroURL, false), loktest.WithCallError("runMacro", "macro execution failed"))
	defer kit.Close()
	raw := newRaw(t, kit)

	ok, err := raw.RunMacro(macroURL)
	if err == nil {
		t.Fatal("Expected macro error")
	}
	if ok {
		t.Error("Failed macro should not report success")
	}
	if !strings.Contains(err.Error(), "macro execution failed") {
		t.Errorf("Unexpected error: %v", err)
	}

	kit.ClearCallError("runMacro")
	ok, err = raw.RunMacro("macro:///Standard.Module1.Other")
	if err != nil {
		t.Fatalf("RunMacro failed: %v", err)
	}
	if !ok {
		t.Error("Macro should report success")
	}
}

func TestOfficeRaw_SignDocument(t *testing.T) {
	kit := loktest.New()
	defer kit.Close()
	raw := newRaw(t, kit)

	ok, err := raw.SignDocument(docURL, []byte("certificate"), []byte("key"))
	if err != nil {
		t.Fatalf("SignDocument failed: %v", err)
	}
	if !ok {
		t.Error("Expected signing to succeed")
	}

	// Missing key material fails through the return value, no slot error
	ok, err = raw.SignDocument(docURL, nil, nil)
	if err != nil {
		t.Fatalf("SignDocument with empty material should not error: %v", err)
	}
	if ok {
		t.Error("Expected signing to fail without material")
	}
}

func TestOfficeRaw_DestroyDropsCallbackEntry(t *testing.T) {
	kit := loktest.New()
	defer kit.Close()
	raw := newRaw(t, kit)

	var events []string
	if err := raw.RegisterCallback(func(ty int32, payload string) {
		events = append(events, payload)
	}); err != nil {
		t.Fatalf("RegisterCallback failed: %v", err)
	}

	if err := raw.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if !kit.Destroyed() {
		t.Error("Engine destroy slot should have run")
	}

	// A stale engine-side pointer can no longer reach the handler
	kit.Emit(1, "after-destroy")
	if len(events) != 0 {
		t.Errorf("No events expected after destroy, got %v", events)
	}
}

func TestOfficeRaw_EmbeddedNulRejected(t *testing.T) {
	kit := loktest.New()
	defer kit.Close()
	raw := newRaw(t, kit)

	if _, err := raw.DocumentLoad("file:///tmp/bad\x00.odt"); err == nil {
		t.Error("Expected embedded NUL to be rejected")
	}
	if err := raw.SetOption("opt\x00", "v"); err == nil {
		t.Error("Expected embedded NUL to be rejected")
	}
}
