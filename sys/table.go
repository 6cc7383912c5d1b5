package sys

import "unsafe"

// ptrSize is the size of one function table slot.
const ptrSize = unsafe.Sizeof(uintptr(0))

// Slot is a byte offset into a kit class table. The first class field
// is the table size, so function slots start one pointer in.
type Slot uintptr

// slotSize spaces consecutive table entries.
const slotSize = Slot(ptrSize)

// Office class table entries in declaration order.
const (
	SlotDestroy Slot = slotSize * (iota + 1)
	SlotDocumentLoad
	SlotGetError
	SlotDocumentLoadWithOptions
	SlotFreeError
	SlotRegisterCallback
	SlotGetFilterTypes
	SlotSetOptionalFeatures
	SlotSetDocumentPassword
	SlotGetVersionInfo
	SlotRunMacro
	SlotSignDocument
	SlotRunLoop
	SlotSendDialogEvent
	SlotSetOption
	SlotDumpState
	SlotExtractRequest
	SlotTrimMemory
)

// Document class table entries in declaration order.
const (
	DocSlotDestroy Slot = slotSize * (iota + 1)
	DocSlotSaveAs
	DocSlotGetDocumentType
)

// fnSince maps table entry names to the LibreOffice release that
// introduced them. Entries absent here date back to the first kit ABI.
var fnSince = map[string]string{
	"documentLoadWithOptions": "4.3",
	"freeError":               "5.2",
	"registerCallback":        "6.0",
	"getFilterTypes":          "6.0",
	"setOptionalFeatures":     "6.0",
	"setDocumentPassword":     "6.0",
	"getVersionInfo":          "6.0",
	"runMacro":                "6.0",
	"getDocumentType":         "6.0",
	"signDocument":            "6.2",
	"runLoop":                 "6.3",
	"sendDialogEvent":         "6.4",
	"setOption":               "7.1",
	"dumpState":               "7.5",
	"extractRequest":          "7.6",
	"trimMemory":              "7.6",
}

// Since returns the first LibreOffice release that provides the named
// table entry, or the empty string when the entry predates the kit ABI.
func Since(name string) string {
	return fnSince[name]
}
