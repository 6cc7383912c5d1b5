package lok

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jacobtread/libreofficekit/errors"
	"github.com/jacobtread/libreofficekit/sys"
	"github.com/jacobtread/libreofficekit/urls"
)

// PromptState tracks where a password negotiation stands. The engine
// raises the prompt synchronously from inside a load call, so the
// state only ever changes while that load is on the stack.
type PromptState int32

const (
	// PromptIdle means no password request is pending.
	PromptIdle PromptState = iota
	// PromptAwaitingPassword means the engine asked for a password and
	// is blocked inside load until the handler answers.
	PromptAwaitingPassword
	// PromptPasswordSupplied means the handler answered with a
	// password and the engine is retrying decryption. The engine may
	// prompt again if the password was wrong.
	PromptPasswordSupplied
	// PromptAborted means the handler declined, which fails the load
	// once the engine unwinds.
	PromptAborted
)

func (s PromptState) String() string {
	switch s {
	case PromptIdle:
		return "idle"
	case PromptAwaitingPassword:
		return "awaiting-password"
	case PromptPasswordSupplied:
		return "password-supplied"
	case PromptAborted:
		return "aborted"
	default:
		return "invalid"
	}
}

// officeState is the shared state behind every strong and weak handle
// to one engine instance. Strong owners are counted; the count hitting
// zero tears the engine down exactly once.
type officeState struct {
	raw *sys.OfficeRaw

	// owns marks states that claimed the process office gate at
	// construction and therefore release it at teardown.
	owns bool

	owners atomic.Int64
	torn   atomic.Bool

	prompt    atomic.Int32
	promptURL atomic.Pointer[string]

	// version is filled on first successful Version call. Guarded by
	// the single-thread usage model, not by a lock.
	version      Version
	versionKnown bool
}

// acquire adds a strong owner, failing once the count has reached
// zero. A zero count never comes back: teardown has already begun.
func (s *officeState) acquire() bool {
	for {
		n := s.owners.Load()
		if n <= 0 {
			return false
		}
		if s.owners.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops a strong owner and tears the engine down when the last
// one goes.
func (s *officeState) release() error {
	if s.owners.Add(-1) > 0 {
		return nil
	}
	return s.teardown()
}

func (s *officeState) teardown() error {
	if !s.torn.CompareAndSwap(false, true) {
		return nil
	}
	err := s.raw.Destroy()
	if s.owns {
		sys.ReleaseOfficeGate()
	}
	if err != nil {
		Logger().Warn("office teardown reported an error", zap.Error(err))
	}
	return err
}

// pushPrompt saves the pending prompt and starts a fresh idle one, so
// a load issued from inside a handler does not clobber the outer
// negotiation. popPrompt restores the saved prompt.
func (s *officeState) pushPrompt() (PromptState, *string) {
	prev := PromptState(s.prompt.Swap(int32(PromptIdle)))
	prevURL := s.promptURL.Swap(nil)
	return prev, prevURL
}

func (s *officeState) popPrompt(prev PromptState, prevURL *string) {
	s.prompt.Store(int32(prev))
	s.promptURL.Store(prevURL)
}

// Office is a strong handle on the process's one engine instance.
// Handles may be cloned within the owning thread; the instance is
// destroyed when the last strong handle is closed. Office is not safe
// for concurrent use from multiple goroutines: the engine itself
// tolerates only one calling thread.
type Office struct {
	state  *officeState
	closed atomic.Bool
}

// New initializes the engine installed under installPath, which must
// be the program directory holding the kit library. At most one
// instance may be live in a process at a time; New fails with an
// instance-lock error while another one is.
func New(installPath string) (*Office, error) {
	return NewWithProfile(installPath, "")
}

// NewWithProfile is New with a dedicated user profile location, in
// file URL or vnd.sun.star.pathname form. Profile redirection needs an
// engine new enough to export the two-argument kit hook.
func NewWithProfile(installPath, profileURL string) (*Office, error) {
	if !sys.ClaimOfficeGate() {
		return nil, errors.InstanceLock()
	}
	raw, err := sys.InitOffice(installPath, profileURL)
	if err != nil {
		sys.ReleaseOfficeGate()
		return nil, err
	}
	return wrapInitialized(raw)
}

// NewFromKit wraps an engine instance that was initialized elsewhere,
// for example through a preloaded kit handle. The instance still
// counts against the process gate and is destroyed through the
// returned handle like any other.
func NewFromKit(kit uintptr) (*Office, error) {
	if !sys.ClaimOfficeGate() {
		return nil, errors.InstanceLock()
	}
	raw, err := sys.FromKit(kit)
	if err != nil {
		sys.ReleaseOfficeGate()
		return nil, err
	}
	return wrapInitialized(raw)
}

// wrapInitialized checks the freshly initialized engine for a pending
// init error and builds the first strong handle. The gate is already
// claimed and is released on failure.
func wrapInitialized(raw *sys.OfficeRaw) (*Office, error) {
	if msg, ok := raw.LastError(); ok {
		sys.ReleaseOfficeGate()
		return nil, errors.Engine(errors.PhaseInit, msg)
	}
	st := &officeState{raw: raw, owns: true}
	st.owners.Store(1)
	debugf("office instance initialized")
	return &Office{state: st}, nil
}

// engine returns the raw engine for a live handle.
func (o *Office) engine() (*sys.OfficeRaw, error) {
	if o.closed.Load() {
		return nil, errors.StaleHandle("office handle")
	}
	if o.state.torn.Load() {
		return nil, errors.StaleHandle("office instance")
	}
	return o.state.raw, nil
}

// Clone returns a new strong handle on the same instance. Cloning does
// not touch the process gate; the instance stays alive until every
// clone is closed.
func (o *Office) Clone() (*Office, error) {
	if _, err := o.engine(); err != nil {
		return nil, err
	}
	if !o.state.acquire() {
		return nil, errors.StaleHandle("office instance")
	}
	return &Office{state: o.state}, nil
}

// Weak returns a non-owning handle suitable for storing inside
// callbacks. It does not keep the instance alive.
func (o *Office) Weak() CallbackOffice {
	return CallbackOffice{state: o.state}
}

// Close releases this handle. The last close destroys the engine
// instance and releases the process gate. Closing an already closed
// handle is a no-op.
func (o *Office) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}
	return o.state.release()
}

// PromptState reports where the current password negotiation stands.
func (o *Office) PromptState() PromptState {
	return PromptState(o.state.prompt.Load())
}

// RegisterEventHandler installs handler as the engine's notification
// callback, replacing any previous handler. The previous handler is
// released only after the engine confirms the replacement, so the
// engine can never invoke a freed handler. The handler runs on the
// engine's calling thread; a panic inside it is logged and contained.
// Requires LibreOffice 6.0 or newer.
func (o *Office) RegisterEventHandler(handler EventHandler) error {
	raw, err := o.engine()
	if err != nil {
		return err
	}
	if handler == nil {
		return errors.InvalidInput(errors.PhaseCallback, "notification handler must not be nil")
	}
	st := o.state
	weak := CallbackOffice{state: st}
	return raw.RegisterCallback(func(ty int32, payload string) {
		st.dispatch(weak, handler, ty, payload)
	})
}

// ClearEventHandler uninstalls the notification callback and releases
// the handler after the engine confirms it is gone.
func (o *Office) ClearEventHandler() error {
	raw, err := o.engine()
	if err != nil {
		return err
	}
	return raw.ClearCallback()
}

// dispatch runs one notification through the registered handler,
// maintaining the password prompt state and containing panics at the
// native boundary.
func (s *officeState) dispatch(weak CallbackOffice, handler EventHandler, ty int32, payload string) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("notification handler panicked",
				zap.Any("panic", r),
				zap.Stringer("callbackType", CallbackType(ty)))
		}
	}()
	t := CallbackType(ty)
	if t == CallbackDocumentPassword || t == CallbackDocumentPasswordModify {
		url := payload
		s.prompt.Store(int32(PromptAwaitingPassword))
		s.promptURL.Store(&url)
		debugf("password requested for %s", url)
	}
	handler(weak, t, payload)
}

// LoadDocument loads the document behind url. When the engine needs a
// password and the feature is enabled, the registered handler is
// invoked synchronously before this call returns.
func (o *Office) LoadDocument(url urls.DocURL) (*Document, error) {
	return o.loadDocument("documentLoad", url, "", false)
}

// LoadDocumentWithOptions is LoadDocument with an engine options
// string, for example import filter options. Requires LibreOffice 4.3
// or newer.
func (o *Office) LoadDocumentWithOptions(url urls.DocURL, options string) (*Document, error) {
	return o.loadDocument("documentLoadWithOptions", url, options, true)
}

func (o *Office) loadDocument(fn string, url urls.DocURL, options string, withOptions bool) (*Document, error) {
	raw, err := o.engine()
	if err != nil {
		return nil, err
	}
	st := o.state
	prev, prevURL := st.pushPrompt()
	defer st.popPrompt(prev, prevURL)

	var doc *sys.DocumentRaw
	if withOptions {
		doc, err = raw.DocumentLoadWithOptions(url.String(), options)
	} else {
		doc, err = raw.DocumentLoad(url.String())
	}
	if err != nil {
		return nil, err
	}
	owner, err := o.Clone()
	if err != nil {
		_ = doc.Destroy()
		return nil, err
	}
	debugf("loaded %s via %s", url, fn)
	return &Document{raw: doc, office: owner}, nil
}

// SetDocumentPassword answers a pending password prompt for url. It is
// only legal while the engine is awaiting a password, which means it
// is called from inside the notification handler that received the
// prompt. Requires LibreOffice 6.0 or newer and the document-password
// optional features.
func (o *Office) SetDocumentPassword(url urls.DocURL, password string) error {
	return o.answerPrompt(url, &password, PromptPasswordSupplied)
}

// DeclineDocumentPassword answers a pending prompt with "no password",
// failing the load that raised it once the engine unwinds.
func (o *Office) DeclineDocumentPassword(url urls.DocURL) error {
	return o.answerPrompt(url, nil, PromptAborted)
}

func (o *Office) answerPrompt(url urls.DocURL, password *string, next PromptState) error {
	raw, err := o.engine()
	if err != nil {
		return err
	}
	st := o.state
	if PromptState(st.prompt.Load()) != PromptAwaitingPassword {
		return errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Function("setDocumentPassword").
			Detail("no password request is pending").
			Build()
	}
	if pending := st.promptURL.Load(); pending != nil && *pending != url.String() {
		return errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Function("setDocumentPassword").
			Detail("password request pending for %s, not %s", *pending, url).
			Build()
	}
	if err := raw.SetDocumentPassword(url.String(), password); err != nil {
		return err
	}
	st.prompt.Store(int32(next))
	return nil
}

// SetOptionalFeatures enables the given engine features and returns
// the combined flag value that was sent. Requires LibreOffice 6.0 or
// newer.
func (o *Office) SetOptionalFeatures(features ...OptionalFeature) (uint64, error) {
	raw, err := o.engine()
	if err != nil {
		return 0, err
	}
	flags := combineFeatures(features)
	if err := raw.SetOptionalFeatures(flags); err != nil {
		return 0, err
	}
	return flags, nil
}

// RunMacro runs the macro behind url, which is usually a
// vnd.sun.star.script URI. The boolean is the engine's own verdict; a
// false verdict comes with an error when the engine left a message.
// Requires LibreOffice 6.0 or newer.
func (o *Office) RunMacro(url urls.DocURL) (bool, error) {
	raw, err := o.engine()
	if err != nil {
		return false, err
	}
	return raw.RunMacro(url.String())
}

// SignDocument signs the document behind url with a certificate and
// private key, both binary DER. Requires LibreOffice 6.2 or newer.
func (o *Office) SignDocument(url urls.DocURL, certificate, privateKey []byte) (bool, error) {
	raw, err := o.engine()
	if err != nil {
		return false, err
	}
	return raw.SignDocument(url.String(), certificate, privateKey)
}

// SendDialogEvent posts a dialog event to the engine window with the
// given id. Requires LibreOffice 6.4 or newer.
func (o *Office) SendDialogEvent(windowID uint64, arguments string) error {
	raw, err := o.engine()
	if err != nil {
		return err
	}
	return raw.SendDialogEvent(windowID, arguments)
}

// SetOption sets a runtime engine option such as "traceeventrecording"
// or "sallogoverride". Requires LibreOffice 7.1 or newer.
func (o *Office) SetOption(option, value string) error {
	raw, err := o.engine()
	if err != nil {
		return err
	}
	return raw.SetOption(option, value)
}

// DumpState returns the engine's internal state dump for diagnostics.
// Requires LibreOffice 7.5 or newer.
func (o *Office) DumpState() (string, error) {
	raw, err := o.engine()
	if err != nil {
		return "", err
	}
	return raw.DumpState()
}

// TrimMemory asks the engine to release caches. target follows the
// engine's own convention where higher values trim more aggressively.
// Requires LibreOffice 7.6 or newer.
func (o *Office) TrimMemory(target int) error {
	raw, err := o.engine()
	if err != nil {
		return err
	}
	return raw.TrimMemory(target)
}

// CallbackOffice is a weak, non-owning handle given to notification
// handlers. Handlers run while the triggering call is still on the
// stack and are stored inside the office's own state, so handing them
// a strong handle would keep the instance alive through itself.
type CallbackOffice struct {
	state *officeState
}

// Acquire upgrades to a strong handle, failing with a stale-handle
// error when the last strong owner is already gone. The caller closes
// the returned handle when done.
func (c CallbackOffice) Acquire() (*Office, error) {
	if c.state == nil || !c.state.acquire() {
		return nil, errors.StaleHandle("office instance")
	}
	return &Office{state: c.state}, nil
}

// PromptState reports the prompt state without upgrading. A nil or
// torn-down handle reports idle.
func (c CallbackOffice) PromptState() PromptState {
	if c.state == nil || c.state.torn.Load() {
		return PromptIdle
	}
	return PromptState(c.state.prompt.Load())
}

// SetDocumentPassword answers a pending prompt through a temporary
// strong handle, so a handler can reply without managing one itself.
func (c CallbackOffice) SetDocumentPassword(url urls.DocURL, password string) error {
	o, err := c.Acquire()
	if err != nil {
		return err
	}
	defer o.Close()
	return o.SetDocumentPassword(url, password)
}

// DeclineDocumentPassword answers a pending prompt with "no password"
// through a temporary strong handle.
func (c CallbackOffice) DeclineDocumentPassword(url urls.DocURL) error {
	o, err := c.Acquire()
	if err != nil {
		return err
	}
	defer o.Close()
	return o.DeclineDocumentPassword(url)
}
