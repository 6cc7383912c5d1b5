package loktest

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Codes from the kit ABI, duplicated here so the fake stays independent
// of the packages under test.
const (
	cbDocumentPassword      = 20
	featureDocumentPassword = 1 << 0
)

// Office table entries in ABI declaration order.
const (
	idxDestroy = iota
	idxDocumentLoad
	idxGetError
	idxDocumentLoadWithOptions
	idxFreeError
	idxRegisterCallback
	idxGetFilterTypes
	idxSetOptionalFeatures
	idxSetDocumentPassword
	idxGetVersionInfo
	idxRunMacro
	idxSignDocument
	idxRunLoop
	idxSendDialogEvent
	idxSetOption
	idxDumpState
	idxExtractRequest
	idxTrimMemory
	officeSlotCount
)

// Document table entries in ABI declaration order.
const (
	docIdxDestroy = iota
	docIdxSaveAs
	docIdxGetDocumentType
	docSlotCount
)

// officeSlotIndex resolves ABI entry names for options that null or
// truncate the office table.
var officeSlotIndex = map[string]int{
	"destroy":                 idxDestroy,
	"documentLoad":            idxDocumentLoad,
	"getError":                idxGetError,
	"documentLoadWithOptions": idxDocumentLoadWithOptions,
	"freeError":               idxFreeError,
	"registerCallback":        idxRegisterCallback,
	"getFilterTypes":          idxGetFilterTypes,
	"setOptionalFeatures":     idxSetOptionalFeatures,
	"setDocumentPassword":     idxSetDocumentPassword,
	"getVersionInfo":          idxGetVersionInfo,
	"runMacro":                idxRunMacro,
	"signDocument":            idxSignDocument,
	"runLoop":                 idxRunLoop,
	"sendDialogEvent":         idxSendDialogEvent,
	"setOption":               idxSetOption,
	"dumpState":               idxDumpState,
	"extractRequest":          idxExtractRequest,
	"trimMemory":              idxTrimMemory,
}

// Live fakes, keyed by the this pointer their slots receive.
var (
	regMu sync.Mutex
	kits  = map[uintptr]*Kit{}
	docs  = map[uintptr]*Document{}
)

func registerKit(k *Kit) {
	regMu.Lock()
	kits[k.Pointer()] = k
	regMu.Unlock()
}

func kitFor(this uintptr) *Kit {
	regMu.Lock()
	defer regMu.Unlock()
	return kits[this]
}

func registerDoc(d *Document) {
	regMu.Lock()
	docs[d.ptr()] = d
	regMu.Unlock()
}

func docFor(this uintptr) *Document {
	regMu.Lock()
	defer regMu.Unlock()
	return docs[this]
}

// Strings handed to the caller, tracked until freeError releases them.
type allocation struct {
	kit *Kit
	buf []byte
}

var (
	allocsMu sync.Mutex
	allocs   = map[uintptr]allocation{}
)

func (k *Kit) alloc(s string) uintptr {
	buf := append([]byte(s), 0)
	ptr := uintptr(unsafe.Pointer(&buf[0]))
	allocsMu.Lock()
	allocs[ptr] = allocation{kit: k, buf: buf}
	allocsMu.Unlock()
	return ptr
}

func freeAlloc(ptr uintptr) {
	if ptr == 0 {
		return
	}
	allocsMu.Lock()
	a, ok := allocs[ptr]
	if ok {
		delete(allocs, ptr)
	}
	allocsMu.Unlock()
	if !ok {
		return
	}
	a.kit.mu.Lock()
	a.kit.frees++
	a.kit.mu.Unlock()
}

// LiveAllocs returns the number of strings this fake handed out that
// have not been released through freeError yet.
func (k *Kit) LiveAllocs() int {
	allocsMu.Lock()
	defer allocsMu.Unlock()
	n := 0
	for _, a := range allocs {
		if a.kit == k {
			n++
		}
	}
	return n
}

// readCString copies the NUL terminated string at ptr.
func readCString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	length := 0
	for *(*byte)(unsafe.Pointer(ptr + uintptr(length))) != 0 {
		length++
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), length))
}

// emitTo pushes one notification through a registered callback the way
// the engine does, with a payload pointer valid only for the call.
func emitTo(cb, data uintptr, ty int32, payload string) {
	if cb == 0 {
		return
	}
	buf := append([]byte(payload), 0)
	purego.SyscallN(cb, uintptr(ty), uintptr(unsafe.Pointer(&buf[0])), data)
	runtime.KeepAlive(buf)
}

// The slot functions are created once per process and shared by every
// Kit, which keeps the process callback budget flat.
var (
	slotOnce  sync.Once
	officeFns [officeSlotCount]uintptr
	docFns    [docSlotCount]uintptr
)

func fns() ([officeSlotCount]uintptr, [docSlotCount]uintptr) {
	slotOnce.Do(func() {
		noop := purego.NewCallback(func(this uintptr) uintptr { return 0 })

		officeFns[idxDestroy] = purego.NewCallback(func(this uintptr) {
			if k := kitFor(this); k != nil {
				k.destroy()
			}
		})
		officeFns[idxDocumentLoad] = purego.NewCallback(func(this, url uintptr) uintptr {
			if k := kitFor(this); k != nil {
				return k.load(readCString(url), "")
			}
			return 0
		})
		officeFns[idxGetError] = purego.NewCallback(func(this uintptr) uintptr {
			if k := kitFor(this); k != nil {
				return k.errorPtr()
			}
			return 0
		})
		officeFns[idxDocumentLoadWithOptions] = purego.NewCallback(func(this, url, options uintptr) uintptr {
			if k := kitFor(this); k != nil {
				return k.load(readCString(url), readCString(options))
			}
			return 0
		})
		officeFns[idxFreeError] = purego.NewCallback(func(ptr uintptr) {
			freeAlloc(ptr)
		})
		officeFns[idxRegisterCallback] = purego.NewCallback(func(this, cb, data uintptr) {
			if k := kitFor(this); k != nil {
				k.setCallback(cb, data)
			}
		})
		officeFns[idxGetFilterTypes] = purego.NewCallback(func(this uintptr) uintptr {
			if k := kitFor(this); k != nil {
				return k.stringCall("getFilterTypes", k.filterTypes)
			}
			return 0
		})
		officeFns[idxSetOptionalFeatures] = purego.NewCallback(func(this, features uintptr) {
			if k := kitFor(this); k != nil {
				k.setFeatures(uint64(features))
			}
		})
		officeFns[idxSetDocumentPassword] = purego.NewCallback(func(this, url, password uintptr) {
			if k := kitFor(this); k != nil {
				var pw *string
				if password != 0 {
					s := readCString(password)
					pw = &s
				}
				k.answerPassword(readCString(url), pw)
			}
		})
		officeFns[idxGetVersionInfo] = purego.NewCallback(func(this uintptr) uintptr {
			if k := kitFor(this); k != nil {
				return k.stringCall("getVersionInfo", k.versionInfo)
			}
			return 0
		})
		officeFns[idxRunMacro] = purego.NewCallback(func(this, url uintptr) uintptr {
			if k := kitFor(this); k != nil {
				return k.runMacro(readCString(url))
			}
			return 0
		})
		officeFns[idxSignDocument] = purego.NewCallback(func(this, url, cert, certLen, key, keyLen uintptr) uintptr {
			if k := kitFor(this); k != nil {
				return k.signDocument(readCString(url), int(certLen), int(keyLen))
			}
			return 0
		})
		officeFns[idxRunLoop] = noop
		officeFns[idxSendDialogEvent] = purego.NewCallback(func(this, windowID, args uintptr) {
			if k := kitFor(this); k != nil {
				k.dialogEvent(uint64(windowID), readCString(args))
			}
		})
		officeFns[idxSetOption] = purego.NewCallback(func(this, option, value uintptr) {
			if k := kitFor(this); k != nil {
				k.setOption(readCString(option), readCString(value))
			}
		})
		officeFns[idxDumpState] = purego.NewCallback(func(this, options, out uintptr) {
			k := kitFor(this)
			if k == nil || out == 0 {
				return
			}
			*(*uintptr)(unsafe.Pointer(out)) = k.stringCall("dumpState", k.stateDump)
		})
		officeFns[idxExtractRequest] = noop
		officeFns[idxTrimMemory] = purego.NewCallback(func(this, target uintptr) {
			if k := kitFor(this); k != nil {
				k.trimMemory(int(int32(target)))
			}
		})

		docFns[docIdxDestroy] = purego.NewCallback(func(this uintptr) {
			if d := docFor(this); d != nil {
				d.destroy()
			}
		})
		docFns[docIdxSaveAs] = purego.NewCallback(func(this, url, format, filter uintptr) uintptr {
			if d := docFor(this); d != nil {
				return d.saveAs(readCString(url), readCString(format), readCString(filter))
			}
			return 0
		})
		docFns[docIdxGetDocumentType] = purego.NewCallback(func(this uintptr) uintptr {
			if d := docFor(this); d != nil {
				return d.docType()
			}
			return 0
		})
	})
	return officeFns, docFns
}
