package loktest

import (
	"sync"
	"unsafe"
)

// PasswordAnswer records one setDocumentPassword call. A nil Password
// means the caller rejected the request.
type PasswordAnswer struct {
	URL      string
	Password *string
}

// SaveCall records one document saveAs call.
type SaveCall struct {
	URL    string
	Format string
	Filter string
	OK     bool
}

// DialogEvent records one sendDialogEvent call.
type DialogEvent struct {
	WindowID  uint64
	Arguments string
}

// Kit is an in-process fake office instance. See the package
// documentation for the overall model.
type Kit struct {
	mu sync.Mutex

	table     []uintptr // office class table, size field first
	docTable  []uintptr // document class table shared by this kit's documents
	kitStruct []uintptr // kit struct, class pointer only

	// scripted behavior
	versionInfo  string
	filterTypes  string
	stateDump    string
	passwords    map[string]string
	loadErrors   map[string]string
	callErrors   map[string]string
	docTypes     map[string]int
	saveFailures map[string]string
	macroResults map[string]bool
	signResult   bool
	nullNames    []string
	endBefore    string

	// error slot
	lastError string

	// recorded traffic
	features      uint64
	cbPtr, cbData uintptr
	registrations int
	clears        int
	promptCounts  map[string]int
	answers       []PasswordAnswer
	saves         []SaveCall
	macros        []string
	dialogEvents  []DialogEvent
	optionCalls   [][2]string
	trims         []int
	frees         int
	destroyed     bool
	docsLive      int

	// password handshake scratch, valid between a prompt callback and
	// the load loop inspecting its outcome
	answered bool
	answer   *string
}

// Option adjusts a fake before its table is published.
type Option func(*Kit)

// WithVersionInfo scripts the getVersionInfo JSON.
func WithVersionInfo(body string) Option {
	return func(k *Kit) { k.versionInfo = body }
}

// WithFilterTypes scripts the getFilterTypes JSON.
func WithFilterTypes(body string) Option {
	return func(k *Kit) { k.filterTypes = body }
}

// WithStateDump scripts the dumpState payload.
func WithStateDump(state string) Option {
	return func(k *Kit) { k.stateDump = state }
}

// WithNullSlot nulls the named office table entry while keeping it
// inside the table size, the shape of a build compiled without the
// capability.
func WithNullSlot(name string) Option {
	return func(k *Kit) { k.nullNames = append(k.nullNames, name) }
}

// WithTableEndingBefore truncates the office table size so the named
// entry and everything after it lie outside it, the shape of an older
// build.
func WithTableEndingBefore(name string) Option {
	return func(k *Kit) { k.endBefore = name }
}

// WithProtectedDocument marks url as password protected. Loading it
// prompts through the registered callback until the handler supplies
// password or rejects the request.
func WithProtectedDocument(url, password string) Option {
	return func(k *Kit) { k.passwords[url] = password }
}

// WithLoadError makes loading url fail with the given engine message.
func WithLoadError(url, message string) Option {
	return func(k *Kit) { k.loadErrors[url] = message }
}

// WithInitError leaves message pending in the error slot from the
// start, the way a failed initialization does.
func WithInitError(message string) Option {
	return func(k *Kit) { k.lastError = message }
}

// WithCallError makes the named office call fail with the given engine
// message.
func WithCallError(fn, message string) Option {
	return func(k *Kit) { k.callErrors[fn] = message }
}

// WithDocumentType scripts the type code reported for documents loaded
// from url.
func WithDocumentType(url string, code int) Option {
	return func(k *Kit) { k.docTypes[url] = code }
}

// WithSaveFailure makes saveAs fail for the given format, leaving the
// message in the office error slot the way the engine does.
func WithSaveFailure(format, message string) Option {
	return func(k *Kit) { k.saveFailures[format] = message }
}

// WithMacroResult scripts the runMacro outcome for a macro URI.
func WithMacroResult(url string, ok bool) Option {
	return func(k *Kit) { k.macroResults[url] = ok }
}

// WithSignResult scripts the signDocument outcome.
func WithSignResult(ok bool) Option {
	return func(k *Kit) { k.signResult = ok }
}

// New builds a fake office instance. Close it when done so its registry
// entries are released.
func New(opts ...Option) *Kit {
	k := &Kit{
		versionInfo:  `{"ProductName": "LibreOffice", "ProductVersion": "7.6", "ProductExtension": ".7.6.2.1", "BuildId": "60(Build:1)"}`,
		filterTypes:  `{"writer8": {"MediaType": "application/vnd.oasis.opendocument.text"}}`,
		stateDump:    "fake engine state",
		signResult:   true,
		passwords:    map[string]string{},
		loadErrors:   map[string]string{},
		callErrors:   map[string]string{},
		docTypes:     map[string]int{},
		saveFailures: map[string]string{},
		macroResults: map[string]bool{},
		promptCounts: map[string]int{},
	}
	for _, opt := range opts {
		opt(k)
	}
	k.buildTables()
	registerKit(k)
	return k
}

func (k *Kit) buildTables() {
	office, doc := fns()

	k.table = make([]uintptr, officeSlotCount+1)
	for i, fn := range office {
		k.table[i+1] = fn
	}
	for _, name := range k.nullNames {
		if idx, ok := officeSlotIndex[name]; ok {
			k.table[idx+1] = 0
		}
	}
	end := officeSlotCount
	if k.endBefore != "" {
		if idx, ok := officeSlotIndex[k.endBefore]; ok {
			end = idx
		}
	}
	k.table[0] = uintptr(end+1) * unsafe.Sizeof(uintptr(0))

	k.docTable = make([]uintptr, docSlotCount+1)
	k.docTable[0] = uintptr(docSlotCount+1) * unsafe.Sizeof(uintptr(0))
	for i, fn := range doc {
		k.docTable[i+1] = fn
	}

	k.kitStruct = []uintptr{uintptr(unsafe.Pointer(&k.table[0]))}
}

// Pointer returns the LibreOfficeKit pointer for this fake.
func (k *Kit) Pointer() uintptr {
	return uintptr(unsafe.Pointer(&k.kitStruct[0]))
}

// Close releases the fake's registry entries.
func (k *Kit) Close() {
	ptr := k.Pointer()
	regMu.Lock()
	delete(kits, ptr)
	for p, d := range docs {
		if d.kit == k {
			delete(docs, p)
		}
	}
	regMu.Unlock()

	allocsMu.Lock()
	for p, a := range allocs {
		if a.kit == k {
			delete(allocs, p)
		}
	}
	allocsMu.Unlock()
}

// ScriptCallError makes the named office call start failing with the
// given engine message. It applies to calls made after it returns.
func (k *Kit) ScriptCallError(fn, message string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.callErrors[fn] = message
}

// ClearCallError removes a scripted failure for the named office call.
func (k *Kit) ClearCallError(fn string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.callErrors, fn)
}

// Emit pushes a notification through the registered callback the way
// the engine would. It is a no-op when no callback is installed.
func (k *Kit) Emit(ty int32, payload string) {
	k.mu.Lock()
	cb, data := k.cbPtr, k.cbData
	k.mu.Unlock()
	emitTo(cb, data, ty, payload)
}

// Slot behavior. Callers of setError and clearError hold k.mu.

func (k *Kit) setError(msg string) { k.lastError = msg }
func (k *Kit) clearError()         { k.lastError = "" }

// errorPtr serves getError. Reading drains the slot. The engine always
// returns an allocated string, empty when no error is pending.
func (k *Kit) errorPtr() uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return 0
	}
	msg := k.lastError
	k.lastError = ""
	return k.alloc(msg)
}

// stringCall serves the office calls that return an allocated string.
func (k *Kit) stringCall(fn, value string) uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.callErrors[fn]; ok {
		k.setError(msg)
		return 0
	}
	k.clearError()
	return k.alloc(value)
}

// load serves documentLoad and documentLoadWithOptions. For protected
// documents it drives the password handshake, prompting through the
// callback until the handler answers correctly or rejects.
func (k *Kit) load(url, options string) uintptr {
	k.mu.Lock()
	if k.destroyed {
		k.mu.Unlock()
		return 0
	}
	if msg, ok := k.loadErrors[url]; ok {
		k.setError(msg)
		k.mu.Unlock()
		return 0
	}

	want, protected := k.passwords[url]
	if protected {
		if k.features&featureDocumentPassword == 0 || k.cbPtr == 0 {
			k.setError("password required to open " + url)
			k.mu.Unlock()
			return 0
		}
		// Guard against handlers that answer the same wrong password
		// forever, which a native engine would also spin on.
		const promptLimit = 64
		for attempt := 0; ; attempt++ {
			if attempt >= promptLimit {
				k.setError("too many password attempts for " + url)
				k.mu.Unlock()
				return 0
			}
			k.promptCounts[url]++
			k.answered = false
			k.answer = nil
			cb, data := k.cbPtr, k.cbData
			// The handler calls back into setDocumentPassword, so the
			// lock cannot be held across the prompt.
			k.mu.Unlock()
			emitTo(cb, data, cbDocumentPassword, url)
			k.mu.Lock()
			if !k.answered {
				k.setError("password required to open " + url)
				k.mu.Unlock()
				return 0
			}
			if k.answer == nil {
				k.setError("password request rejected for " + url)
				k.mu.Unlock()
				return 0
			}
			if *k.answer == want {
				break
			}
		}
	}

	k.clearError()
	k.docsLive++
	doc := newDocument(k, url)
	k.mu.Unlock()
	return doc.ptr()
}

// answerPassword serves setDocumentPassword.
func (k *Kit) answerPassword(url string, password *string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.callErrors["setDocumentPassword"]; ok {
		k.setError(msg)
		return
	}
	k.answered = true
	k.answer = password
	k.answers = append(k.answers, PasswordAnswer{URL: url, Password: password})
	k.clearError()
}

// setCallback serves registerCallback. A scripted error rejects the
// registration, leaving any previous callback installed.
func (k *Kit) setCallback(cb, data uintptr) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.callErrors["registerCallback"]; ok {
		k.setError(msg)
		return
	}
	k.cbPtr, k.cbData = cb, data
	if cb == 0 {
		k.clears++
	} else {
		k.registrations++
	}
	k.clearError()
}

func (k *Kit) setFeatures(f uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.callErrors["setOptionalFeatures"]; ok {
		k.setError(msg)
		return
	}
	k.features = f
	k.clearError()
}

func (k *Kit) runMacro(url string) uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.macros = append(k.macros, url)
	ok, scripted := k.macroResults[url]
	if !scripted {
		ok = true
	}
	if !ok {
		if msg, has := k.callErrors["runMacro"]; has {
			k.setError(msg)
		}
		return 0
	}
	k.clearError()
	return 1
}

func (k *Kit) signDocument(url string, certLen, keyLen int) uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.signResult && certLen > 0 && keyLen > 0 {
		return 1
	}
	return 0
}

func (k *Kit) dialogEvent(windowID uint64, arguments string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.callErrors["sendDialogEvent"]; ok {
		k.setError(msg)
		return
	}
	k.dialogEvents = append(k.dialogEvents, DialogEvent{WindowID: windowID, Arguments: arguments})
	k.clearError()
}

func (k *Kit) setOption(option, value string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.callErrors["setOption"]; ok {
		k.setError(msg)
		return
	}
	k.optionCalls = append(k.optionCalls, [2]string{option, value})
	k.clearError()
}

func (k *Kit) trimMemory(target int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.callErrors["trimMemory"]; ok {
		k.setError(msg)
		return
	}
	k.trims = append(k.trims, target)
	k.clearError()
}

func (k *Kit) destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.destroyed = true
	k.clearError()
}

// Recording getters.

// Registrations returns how many non-null registerCallback calls the
// fake received.
func (k *Kit) Registrations() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.registrations
}

// Clears returns how many null registerCallback calls the fake
// received.
func (k *Kit) Clears() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.clears
}

// CallbackInstalled reports whether a callback is currently registered.
func (k *Kit) CallbackInstalled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cbPtr != 0
}

// Features returns the last setOptionalFeatures bits.
func (k *Kit) Features() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.features
}

// PromptCount returns how many password prompts were issued for url.
func (k *Kit) PromptCount(url string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.promptCounts[url]
}

// Answers returns the recorded setDocumentPassword calls.
func (k *Kit) Answers() []PasswordAnswer {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]PasswordAnswer, len(k.answers))
	copy(out, k.answers)
	return out
}

// Saves returns the recorded document saveAs calls.
func (k *Kit) Saves() []SaveCall {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]SaveCall, len(k.saves))
	copy(out, k.saves)
	return out
}

// Macros returns the recorded runMacro URIs.
func (k *Kit) Macros() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.macros))
	copy(out, k.macros)
	return out
}

// DialogEvents returns the recorded sendDialogEvent calls.
func (k *Kit) DialogEvents() []DialogEvent {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]DialogEvent, len(k.dialogEvents))
	copy(out, k.dialogEvents)
	return out
}

// OptionCalls returns the recorded setOption pairs.
func (k *Kit) OptionCalls() [][2]string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([][2]string, len(k.optionCalls))
	copy(out, k.optionCalls)
	return out
}

// Trims returns the recorded trimMemory targets.
func (k *Kit) Trims() []int {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]int, len(k.trims))
	copy(out, k.trims)
	return out
}

// Frees returns how many freeError calls released a tracked string.
func (k *Kit) Frees() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.frees
}

// Destroyed reports whether the office destroy slot ran.
func (k *Kit) Destroyed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.destroyed
}

// DocsLive returns how many loaded documents have not been destroyed.
func (k *Kit) DocsLive() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.docsLive
}
