package lok

import (
	"encoding/json"

	"github.com/jacobtread/libreofficekit/errors"
)

// JSDialog is the decoded payload of a CallbackJSDialog event. The
// engine describes the dialog as a free-form JSON document whose shape
// varies by dialog kind, so the value is kept as decoded JSON rather
// than a fixed schema.
type JSDialog struct {
	Value any
}

// ParseJSDialog decodes a CallbackJSDialog payload.
func ParseJSDialog(payload string) (JSDialog, error) {
	var value any
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return JSDialog{}, errors.MalformedMetadata("jsdialog payload", err)
	}
	return JSDialog{Value: value}, nil
}

// ID returns the dialog's window id when the payload is a JSON object
// with a numeric "id" field.
func (d JSDialog) ID() (uint64, bool) {
	obj, ok := d.Value.(map[string]any)
	if !ok {
		return 0, false
	}
	id, ok := obj["id"].(float64)
	if !ok || id < 0 || id != float64(uint64(id)) {
		return 0, false
	}
	return uint64(id), true
}

// JSDialogResponse is a caller-supplied answer to a dialog, in the
// form dialog automation scripts use.
type JSDialogResponse struct {
	ID       string `json:"id"`
	Response uint64 `json:"response"`
}
