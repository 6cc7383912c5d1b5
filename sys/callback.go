package sys

import (
	"sync"

	"github.com/ebitengine/purego"
	"github.com/jacobtread/libreofficekit/errors"
)

// RawCallback receives engine notifications. ty is the raw callback
// type code and payload is a copy of the engine's payload string, made
// before the engine frame returns. Handlers run on the engine's thread
// and must not call back into the engine, with the single exception of
// SetDocumentPassword while handling a password request.
type RawCallback func(ty int32, payload string)

// The callback registry maps small ids to Go handlers. The id travels
// through the engine as the callback data pointer, so the engine never
// holds a Go pointer.
var (
	cbMu    sync.RWMutex
	cbSeq   uintptr
	cbTable = make(map[uintptr]RawCallback)
)

func storeCallback(cb RawCallback) uintptr {
	cbMu.Lock()
	defer cbMu.Unlock()
	cbSeq++
	if cbSeq == 0 {
		cbSeq = 1
	}
	id := cbSeq
	cbTable[id] = cb
	return id
}

func dropCallback(id uintptr) {
	cbMu.Lock()
	defer cbMu.Unlock()
	delete(cbTable, id)
}

func lookupCallback(id uintptr) (RawCallback, bool) {
	cbMu.RLock()
	defer cbMu.RUnlock()
	cb, ok := cbTable[id]
	return cb, ok
}

func callbackCount() int {
	cbMu.RLock()
	defer cbMu.RUnlock()
	return len(cbTable)
}

// One C trampoline serves every office instance. Created once and never
// released, matching the purego callback lifetime rules.
var (
	trampolineOnce sync.Once
	trampolinePtr  uintptr
)

func trampoline() uintptr {
	trampolineOnce.Do(func() {
		trampolinePtr = purego.NewCallback(func(ty int32, payload uintptr, data uintptr) {
			// A panic here would unwind into native engine frames
			defer func() { _ = recover() }()
			cb, ok := lookupCallback(data)
			if !ok {
				return
			}
			cb(ty, goString(payload))
		})
	})
	return trampolinePtr
}

// RegisterCallback installs cb as the office's notification callback,
// replacing any previous one. The previous registry entry stays alive
// until the engine has confirmed the new registration, so a stale
// pointer inside the engine can never reach a dropped handler. On
// confirmation the previous entry is dropped, exactly once.
func (r *OfficeRaw) RegisterCallback(cb RawCallback) error {
	fn, err := r.require(SlotRegisterCallback, "registerCallback")
	if err != nil {
		return err
	}
	if cb == nil {
		return errors.InvalidInput(errors.PhaseCallback, "nil callback")
	}
	id := storeCallback(cb)
	purego.SyscallN(fn, r.this, trampoline(), id)
	if err := r.poll(errors.PhaseCallback, "registerCallback"); err != nil {
		dropCallback(id)
		return err
	}
	if r.callbackID != 0 {
		dropCallback(r.callbackID)
	}
	r.callbackID = id
	return nil
}

// ClearCallback removes the installed callback by pointing the engine
// at a null callback first, then dropping the registry entry. When the
// engine rejects the clear the entry stays registered.
func (r *OfficeRaw) ClearCallback() error {
	fn, err := r.require(SlotRegisterCallback, "registerCallback")
	if err != nil {
		return err
	}
	purego.SyscallN(fn, r.this, 0, 0)
	if err := r.poll(errors.PhaseCallback, "registerCallback"); err != nil {
		return err
	}
	if r.callbackID != 0 {
		dropCallback(r.callbackID)
		r.callbackID = 0
	}
	return nil
}
