package lok

import (
	"fmt"
	"sync/atomic"

	"github.com/jacobtread/libreofficekit/errors"
	"github.com/jacobtread/libreofficekit/sys"
	"github.com/jacobtread/libreofficekit/urls"
)

// DocumentType classifies a loaded document. Values mirror the
// engine's LibreOfficeKitDocumentType enumeration; codes outside it
// pass through unchanged.
type DocumentType int32

const (
	DocumentText DocumentType = iota
	DocumentSpreadsheet
	DocumentPresentation
	DocumentDrawing
	DocumentOther
)

func (t DocumentType) String() string {
	switch t {
	case DocumentText:
		return "text"
	case DocumentSpreadsheet:
		return "spreadsheet"
	case DocumentPresentation:
		return "presentation"
	case DocumentDrawing:
		return "drawing"
	case DocumentOther:
		return "other"
	default:
		return fmt.Sprintf("other(%d)", int32(t))
	}
}

// Document is a loaded document. It holds its own strong handle on the
// office instance, so the engine outlives every document loaded from
// it no matter the order handles are closed in.
type Document struct {
	raw    *sys.DocumentRaw
	office *Office
	closed atomic.Bool
}

// SaveAs exports the document to url in the given format, for example
// "pdf" or "docx". filter carries format-specific options and is
// usually empty. The engine reports this outcome through its return
// value rather than the error slot; when it reports failure, the slot
// is drained for the reason.
func (d *Document) SaveAs(url urls.DocURL, format, filter string) error {
	raw, err := d.engine()
	if err != nil {
		return err
	}
	ok, err := d.raw.SaveAs(url.String(), format, filter)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	msg, _ := raw.LastError()
	if msg == "" {
		msg = "save failed without an engine message"
	}
	return errors.New(errors.PhaseCall, errors.KindEngine).
		Function("saveAs").
		Detail(msg).
		Build()
}

// Type returns the document's classification. Requires LibreOffice
// 6.0 or newer.
func (d *Document) Type() (DocumentType, error) {
	if _, err := d.engine(); err != nil {
		return DocumentOther, err
	}
	code, err := d.raw.Type()
	if err != nil {
		return DocumentOther, err
	}
	return DocumentType(code), nil
}

// engine returns the owning office's raw engine for a live document.
func (d *Document) engine() (*sys.OfficeRaw, error) {
	if d.closed.Load() {
		return nil, errors.StaleHandle("document handle")
	}
	return d.office.engine()
}

// Close destroys the native document and releases the document's hold
// on the office instance. Closing twice is a no-op.
func (d *Document) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := d.raw.Destroy()
	cerr := d.office.Close()
	if err != nil {
		return err
	}
	return cerr
}
