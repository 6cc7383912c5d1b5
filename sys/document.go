package sys

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/jacobtread/libreofficekit/errors"
)

// DocumentRaw is the unsafe wrapper around one loaded document. Like
// OfficeRaw it performs no locking, and its calls count against the
// same serialization rule as the office that produced it.
type DocumentRaw struct {
	this uintptr // LibreOfficeKitDocument*
}

// class resolves the document class table, read per call since the
// document struct only stores the pointer to it.
func (d *DocumentRaw) class() uintptr {
	return *(*uintptr)(unsafe.Pointer(d.this))
}

func (d *DocumentRaw) classSize() uintptr {
	return *(*uintptr)(unsafe.Pointer(d.class()))
}

// fn returns the pointer stored in the document table at s, zero when
// the slot lies outside the running build's table or is null inside it.
func (d *DocumentRaw) fn(s Slot) uintptr {
	if uintptr(s) >= d.classSize() {
		return 0
	}
	return *(*uintptr)(unsafe.Pointer(d.class() + uintptr(s)))
}

// Has reports whether the running build provides the document table
// slot.
func (d *DocumentRaw) Has(s Slot) bool {
	return d.fn(s) != 0
}

// SaveAs exports the document to url in the given format. filter holds
// comma separated filter options and may be empty, which passes no
// options at all. The outcome arrives through the return value alone.
// The engine leaves failure detail in the office error slot, so callers
// that want a message drain it from there.
func (d *DocumentRaw) SaveAs(url, format, filter string) (bool, error) {
	fn := d.fn(DocSlotSaveAs)
	if fn == 0 {
		return false, errors.MissingFunction("saveAs", "")
	}
	urlPtr, urlBuf, err := cString("url", url)
	if err != nil {
		return false, err
	}
	fmtPtr, fmtBuf, err := cString("format", format)
	if err != nil {
		return false, err
	}
	var filterPtr uintptr
	var filterBuf []byte
	if filter != "" {
		filterPtr, filterBuf, err = cString("filter options", filter)
		if err != nil {
			return false, err
		}
	}
	ret, _, _ := purego.SyscallN(fn, d.this, urlPtr, fmtPtr, filterPtr)
	runtime.KeepAlive(urlBuf)
	runtime.KeepAlive(fmtBuf)
	runtime.KeepAlive(filterBuf)
	return int32(ret) != 0, nil
}

// Type returns the raw document type code reported by the engine.
func (d *DocumentRaw) Type() (int, error) {
	fn := d.fn(DocSlotGetDocumentType)
	if fn == 0 {
		return 0, errors.MissingFunction("getDocumentType", Since("getDocumentType"))
	}
	ret, _, _ := purego.SyscallN(fn, d.this)
	return int(int32(ret)), nil
}

// Destroy frees the native document. The document must not be used
// afterwards.
func (d *DocumentRaw) Destroy() error {
	fn := d.fn(DocSlotDestroy)
	if fn == 0 {
		return errors.MissingFunction("destroy", "")
	}
	purego.SyscallN(fn, d.this)
	return nil
}
