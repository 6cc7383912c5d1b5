package lok

import "fmt"

// CallbackType classifies a notification event emitted by the engine.
// The numeric values mirror the engine's LibreOfficeKitCallbackType
// enumeration. Codes the library does not know about pass through
// unchanged, so handlers written against an older enumeration keep
// working when a newer engine emits new codes.
type CallbackType int32

const (
	CallbackInvalidateTiles CallbackType = iota
	CallbackInvalidateVisibleCursor
	CallbackTextSelection
	CallbackTextSelectionStart
	CallbackTextSelectionEnd
	CallbackCursorVisible
	CallbackGraphicSelection
	CallbackHyperlinkClicked
	CallbackStateChanged
	CallbackStatusIndicatorStart
	CallbackStatusIndicatorSetValue
	CallbackStatusIndicatorFinish
	CallbackSearchNotFound
	CallbackDocumentSizeChanged
	CallbackSetPart
	CallbackSearchResultSelection
	CallbackUnoCommandResult
	CallbackCellCursor
	CallbackMousePointer
	CallbackCellFormula
	CallbackDocumentPassword
	CallbackDocumentPasswordModify
	CallbackError
	CallbackContextMenu
	CallbackInvalidateViewCursor
	CallbackTextViewSelection
	CallbackCellViewCursor
	CallbackGraphicViewSelection
	CallbackViewCursorVisible
	CallbackViewLock
	CallbackRedlineTableSizeChanged
	CallbackRedlineTableEntryModified
	CallbackComment
	CallbackInvalidateHeader
	CallbackCellAddress
	CallbackRulerUpdate
	CallbackWindow
	CallbackValidityListButton
	CallbackClipboardChanged
	CallbackContextChanged
	CallbackSignatureStatus
	CallbackProfileFrame
	CallbackCellSelectionArea
	CallbackCellAutoFillArea
	CallbackTableSelected
	CallbackReferenceMarks
	CallbackJSDialog
	CallbackCalcFunctionList
	CallbackTabStopList
	CallbackFormFieldButton
	CallbackInvalidateSheetGeometry
	CallbackValidityInputHelp
	CallbackDocumentBackgroundColor
	CallbackCommandBlocked
	CallbackCellCursorFollowJump
	CallbackContentControl
	CallbackPrintRanges
	CallbackFontsMissing
	CallbackMediaShape
	CallbackExportFile
	CallbackViewRenderState
	CallbackApplicationBackgroundColor
	CallbackA11YFocusChanged
	CallbackA11YCaretChanged
	CallbackA11YTextSelectionChanged
	CallbackColorPalettes
	CallbackDocumentPasswordReset
	CallbackA11YFocusedCellChanged
	CallbackA11YEditingInSelectionState
	CallbackA11YSelectionChanged
	CallbackCoreLog
)

var callbackNames = [...]string{
	"InvalidateTiles",
	"InvalidateVisibleCursor",
	"TextSelection",
	"TextSelectionStart",
	"TextSelectionEnd",
	"CursorVisible",
	"GraphicSelection",
	"HyperlinkClicked",
	"StateChanged",
	"StatusIndicatorStart",
	"StatusIndicatorSetValue",
	"StatusIndicatorFinish",
	"SearchNotFound",
	"DocumentSizeChanged",
	"SetPart",
	"SearchResultSelection",
	"UnoCommandResult",
	"CellCursor",
	"MousePointer",
	"CellFormula",
	"DocumentPassword",
	"DocumentPasswordModify",
	"Error",
	"ContextMenu",
	"InvalidateViewCursor",
	"TextViewSelection",
	"CellViewCursor",
	"GraphicViewSelection",
	"ViewCursorVisible",
	"ViewLock",
	"RedlineTableSizeChanged",
	"RedlineTableEntryModified",
	"Comment",
	"InvalidateHeader",
	"CellAddress",
	"RulerUpdate",
	"Window",
	"ValidityListButton",
	"ClipboardChanged",
	"ContextChanged",
	"SignatureStatus",
	"ProfileFrame",
	"CellSelectionArea",
	"CellAutoFillArea",
	"TableSelected",
	"ReferenceMarks",
	"JSDialog",
	"CalcFunctionList",
	"TabStopList",
	"FormFieldButton",
	"InvalidateSheetGeometry",
	"ValidityInputHelp",
	"DocumentBackgroundColor",
	"CommandBlocked",
	"CellCursorFollowJump",
	"ContentControl",
	"PrintRanges",
	"FontsMissing",
	"MediaShape",
	"ExportFile",
	"ViewRenderState",
	"ApplicationBackgroundColor",
	"A11YFocusChanged",
	"A11YCaretChanged",
	"A11YTextSelectionChanged",
	"ColorPalettes",
	"DocumentPasswordReset",
	"A11YFocusedCellChanged",
	"A11YEditingInSelectionState",
	"A11YSelectionChanged",
	"CoreLog",
}

// Known reports whether the code is part of the enumeration this
// library was built against.
func (t CallbackType) Known() bool {
	return t >= 0 && int(t) < len(callbackNames)
}

func (t CallbackType) String() string {
	if t.Known() {
		return callbackNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", int32(t))
}

// EventHandler receives notification events from the engine. It runs
// synchronously on the engine's calling thread, usually while another
// call on the same office is still on the stack, so it must not block
// and must reach the office only through the weak handle it is given.
type EventHandler func(office CallbackOffice, ty CallbackType, payload string)
