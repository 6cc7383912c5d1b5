package loktest

import "unsafe"

// Document is one fake loaded document. Its this pointer is valid until
// the owning Kit is closed.
type Document struct {
	kit       *Kit
	url       string
	this      []uintptr // document struct, class pointer only
	destroyed bool
}

// newDocument runs with k.mu held.
func newDocument(k *Kit, url string) *Document {
	d := &Document{kit: k, url: url}
	d.this = []uintptr{uintptr(unsafe.Pointer(&k.docTable[0]))}
	registerDoc(d)
	return d
}

func (d *Document) ptr() uintptr {
	return uintptr(unsafe.Pointer(&d.this[0]))
}

// saveAs serves the document saveAs slot. Failures leave their message
// in the office error slot the way the engine does.
func (d *Document) saveAs(url, format, filter string) uintptr {
	k := d.kit
	k.mu.Lock()
	defer k.mu.Unlock()
	if msg, ok := k.saveFailures[format]; ok {
		k.setError(msg)
		k.saves = append(k.saves, SaveCall{URL: url, Format: format, Filter: filter, OK: false})
		return 0
	}
	k.clearError()
	k.saves = append(k.saves, SaveCall{URL: url, Format: format, Filter: filter, OK: true})
	return 1
}

// docType serves getDocumentType, text unless scripted otherwise.
func (d *Document) docType() uintptr {
	k := d.kit
	k.mu.Lock()
	defer k.mu.Unlock()
	if code, ok := k.docTypes[d.url]; ok {
		return uintptr(code)
	}
	return 0
}

func (d *Document) destroy() {
	k := d.kit
	k.mu.Lock()
	defer k.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true
	k.docsLive--
}
