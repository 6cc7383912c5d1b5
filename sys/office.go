package sys

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/jacobtread/libreofficekit/errors"
)

// OfficeRaw is the unsafe wrapper around one native office instance.
// Methods invoke class table slots directly and follow each call with
// an error slot drain where the ABI requires it. OfficeRaw performs no
// locking of its own. Callers serialize access and keep the single
// instance rule.
type OfficeRaw struct {
	this  uintptr // LibreOfficeKit*
	class uintptr // LibreOfficeKitClass*

	// callbackID is the registry entry for the installed callback, zero
	// when none. Mutated only by RegisterCallback, ClearCallback and
	// Destroy, which callers already serialize.
	callbackID uintptr
}

// FromKit wraps an already initialized kit pointer, for embedders that
// obtained one through another channel. It reads the class pointer from
// the kit but performs no further validation and does not drain the
// error slot.
func FromKit(kit uintptr) (*OfficeRaw, error) {
	if kit == 0 {
		return nil, errors.InvalidInput(errors.PhaseInit, "nil kit pointer")
	}
	class := *(*uintptr)(unsafe.Pointer(kit))
	if class == 0 {
		return nil, errors.InvalidInput(errors.PhaseInit, "kit has no class table")
	}
	return &OfficeRaw{this: kit, class: class}, nil
}

// classSize returns the byte size of the office class table in the
// running build.
func (r *OfficeRaw) classSize() uintptr {
	return *(*uintptr)(unsafe.Pointer(r.class))
}

// fn returns the pointer stored in the office table at s, zero when the
// slot lies outside the running build's table or is null inside it.
func (r *OfficeRaw) fn(s Slot) uintptr {
	if uintptr(s) >= r.classSize() {
		return 0
	}
	return *(*uintptr)(unsafe.Pointer(r.class + uintptr(s)))
}

// Has reports whether the running build provides the office table slot.
func (r *OfficeRaw) Has(s Slot) bool {
	return r.fn(s) != 0
}

// require resolves a slot or reports it missing, with the introducing
// release attached when known.
func (r *OfficeRaw) require(s Slot, name string) (uintptr, error) {
	p := r.fn(s)
	if p == 0 {
		return 0, errors.MissingFunction(name, Since(name))
	}
	return p, nil
}

// LastError drains the engine error slot. The boolean reports whether a
// non-empty error was pending. The returned string is always valid
// UTF-8, with undecodable bytes replaced.
func (r *OfficeRaw) LastError() (string, bool) {
	fn := r.fn(SlotGetError)
	if fn == 0 {
		return "", false
	}
	raw, _, _ := purego.SyscallN(fn, r.this)
	if raw == 0 {
		return "", false
	}
	msg := goString(raw)
	r.freeError(raw)
	if msg == "" {
		return "", false
	}
	return lossyUTF8(msg), true
}

// freeError releases a string the engine allocated for us. The slot is
// a plain free on the engine side, so it serves every engine allocated
// string, not only error messages. Builds before 5.2 lack the slot, in
// which case the string is left to the engine.
func (r *OfficeRaw) freeError(ptr uintptr) {
	if ptr == 0 {
		return
	}
	if fn := r.fn(SlotFreeError); fn != 0 {
		purego.SyscallN(fn, ptr)
	}
}

// poll converts a pending engine error into a structured error for the
// given call, nil when the slot is clean.
func (r *OfficeRaw) poll(phase errors.Phase, function string) error {
	msg, ok := r.LastError()
	if !ok {
		return nil
	}
	return errors.New(phase, errors.KindEngine).
		Function(function).
		Detail(msg).
		Build()
}

// DocumentLoad loads the document behind url with default options.
func (r *OfficeRaw) DocumentLoad(url string) (*DocumentRaw, error) {
	fn, err := r.require(SlotDocumentLoad, "documentLoad")
	if err != nil {
		return nil, err
	}
	urlPtr, urlBuf, err := cString("url", url)
	if err != nil {
		return nil, err
	}
	doc, _, _ := purego.SyscallN(fn, r.this, urlPtr)
	runtime.KeepAlive(urlBuf)
	if err := r.poll(errors.PhaseCall, "documentLoad"); err != nil {
		return nil, err
	}
	if doc == 0 {
		return nil, errors.Engine(errors.PhaseCall, "document load returned no document")
	}
	return &DocumentRaw{this: doc}, nil
}

// DocumentLoadWithOptions loads the document behind url passing a
// filter options string, which the engine also consults for password
// delivery behavior.
func (r *OfficeRaw) DocumentLoadWithOptions(url, options string) (*DocumentRaw, error) {
	fn, err := r.require(SlotDocumentLoadWithOptions, "documentLoadWithOptions")
	if err != nil {
		return nil, err
	}
	urlPtr, urlBuf, err := cString("url", url)
	if err != nil {
		return nil, err
	}
	optPtr, optBuf, err := cString("options", options)
	if err != nil {
		return nil, err
	}
	doc, _, _ := purego.SyscallN(fn, r.this, urlPtr, optPtr)
	runtime.KeepAlive(urlBuf)
	runtime.KeepAlive(optBuf)
	if err := r.poll(errors.PhaseCall, "documentLoadWithOptions"); err != nil {
		return nil, err
	}
	if doc == 0 {
		return nil, errors.Engine(errors.PhaseCall, "document load returned no document")
	}
	return &DocumentRaw{this: doc}, nil
}

// SetDocumentPassword answers a password request for url. A nil
// password rejects the request, which makes the engine abandon the load
// that asked for it. Only legal while the engine is asking, from inside
// the callback that delivered the request.
func (r *OfficeRaw) SetDocumentPassword(url string, password *string) error {
	fn, err := r.require(SlotSetDocumentPassword, "setDocumentPassword")
	if err != nil {
		return err
	}
	urlPtr, urlBuf, err := cString("url", url)
	if err != nil {
		return err
	}
	var passPtr uintptr
	var passBuf []byte
	if password != nil {
		passPtr, passBuf, err = cString("password", *password)
		if err != nil {
			return err
		}
	}
	purego.SyscallN(fn, r.this, urlPtr, passPtr)
	runtime.KeepAlive(urlBuf)
	runtime.KeepAlive(passBuf)
	return r.poll(errors.PhaseCall, "setDocumentPassword")
}

// SetOptionalFeatures hands the engine the feature bits that gate
// blocking callbacks such as password requests.
func (r *OfficeRaw) SetOptionalFeatures(features uint64) error {
	fn, err := r.require(SlotSetOptionalFeatures, "setOptionalFeatures")
	if err != nil {
		return err
	}
	purego.SyscallN(fn, r.this, uintptr(features))
	return r.poll(errors.PhaseCall, "setOptionalFeatures")
}

// GetFilterTypes returns the engine's filter description JSON.
func (r *OfficeRaw) GetFilterTypes() (string, error) {
	fn, err := r.require(SlotGetFilterTypes, "getFilterTypes")
	if err != nil {
		return "", err
	}
	raw, _, _ := purego.SyscallN(fn, r.this)
	if err := r.poll(errors.PhaseCall, "getFilterTypes"); err != nil {
		r.freeError(raw)
		return "", err
	}
	value := goString(raw)
	r.freeError(raw)
	return value, nil
}

// GetVersionInfo returns the engine's version description JSON.
func (r *OfficeRaw) GetVersionInfo() (string, error) {
	fn, err := r.require(SlotGetVersionInfo, "getVersionInfo")
	if err != nil {
		return "", err
	}
	raw, _, _ := purego.SyscallN(fn, r.this)
	if err := r.poll(errors.PhaseCall, "getVersionInfo"); err != nil {
		r.freeError(raw)
		return "", err
	}
	value := goString(raw)
	r.freeError(raw)
	return value, nil
}

// DumpState returns the engine's internal state dump.
func (r *OfficeRaw) DumpState() (string, error) {
	fn, err := r.require(SlotDumpState, "dumpState")
	if err != nil {
		return "", err
	}
	var state uintptr
	purego.SyscallN(fn, r.this, 0, uintptr(unsafe.Pointer(&state)))
	if err := r.poll(errors.PhaseCall, "dumpState"); err != nil {
		r.freeError(state)
		return "", err
	}
	value := goString(state)
	r.freeError(state)
	return value, nil
}

// RunMacro executes a macro by URI. The error slot is consulted only
// when the engine reports failure through the return value, matching
// the kit contract for this entry.
func (r *OfficeRaw) RunMacro(url string) (bool, error) {
	fn, err := r.require(SlotRunMacro, "runMacro")
	if err != nil {
		return false, err
	}
	urlPtr, urlBuf, err := cString("macro url", url)
	if err != nil {
		return false, err
	}
	ret, _, _ := purego.SyscallN(fn, r.this, urlPtr)
	runtime.KeepAlive(urlBuf)
	if int32(ret) == 0 {
		if err := r.poll(errors.PhaseCall, "runMacro"); err != nil {
			return false, err
		}
	}
	return int32(ret) != 0, nil
}

// SignDocument signs the document at url with the given certificate and
// private key, in whichever encodings the engine build accepts. The
// outcome arrives through the return value alone, the engine does not
// set its error slot for this entry.
func (r *OfficeRaw) SignDocument(url string, certificate, privateKey []byte) (bool, error) {
	fn, err := r.require(SlotSignDocument, "signDocument")
	if err != nil {
		return false, err
	}
	urlPtr, urlBuf, err := cString("url", url)
	if err != nil {
		return false, err
	}
	var certPtr, keyPtr uintptr
	if len(certificate) > 0 {
		certPtr = uintptr(unsafe.Pointer(&certificate[0]))
	}
	if len(privateKey) > 0 {
		keyPtr = uintptr(unsafe.Pointer(&privateKey[0]))
	}
	ret, _, _ := purego.SyscallN(fn, r.this,
		urlPtr, certPtr, uintptr(len(certificate)), keyPtr, uintptr(len(privateKey)))
	runtime.KeepAlive(urlBuf)
	runtime.KeepAlive(certificate)
	runtime.KeepAlive(privateKey)
	return byte(ret) != 0, nil
}

// SendDialogEvent posts a dialog event to the window identified by
// windowID. arguments is the engine's event argument string.
func (r *OfficeRaw) SendDialogEvent(windowID uint64, arguments string) error {
	fn, err := r.require(SlotSendDialogEvent, "sendDialogEvent")
	if err != nil {
		return err
	}
	argsPtr, argsBuf, err := cString("arguments", arguments)
	if err != nil {
		return err
	}
	purego.SyscallN(fn, r.this, uintptr(windowID), argsPtr)
	runtime.KeepAlive(argsBuf)
	return r.poll(errors.PhaseCall, "sendDialogEvent")
}

// SetOption sets a runtime engine option.
func (r *OfficeRaw) SetOption(option, value string) error {
	fn, err := r.require(SlotSetOption, "setOption")
	if err != nil {
		return err
	}
	optPtr, optBuf, err := cString("option", option)
	if err != nil {
		return err
	}
	valPtr, valBuf, err := cString("value", value)
	if err != nil {
		return err
	}
	purego.SyscallN(fn, r.this, optPtr, valPtr)
	runtime.KeepAlive(optBuf)
	runtime.KeepAlive(valBuf)
	return r.poll(errors.PhaseCall, "setOption")
}

// TrimMemory asks the engine to release memory down to the given
// pressure target.
func (r *OfficeRaw) TrimMemory(target int) error {
	fn, err := r.require(SlotTrimMemory, "trimMemory")
	if err != nil {
		return err
	}
	purego.SyscallN(fn, r.this, uintptr(target))
	return r.poll(errors.PhaseCall, "trimMemory")
}

// Destroy tears down the native instance and drops any callback
// registry entry it still owns. The instance must not be used
// afterwards.
func (r *OfficeRaw) Destroy() error {
	fn := r.fn(SlotDestroy)
	if fn == 0 {
		return errors.MissingFunction("destroy", "")
	}
	purego.SyscallN(fn, r.this)
	if r.callbackID != 0 {
		dropCallback(r.callbackID)
		r.callbackID = 0
	}
	return nil
}
