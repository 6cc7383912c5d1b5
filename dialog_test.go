package lok_test

import (
	"encoding/json"
	"testing"

	lok "github.com/jacobtread/libreofficekit"
	lokerrors "github.com/jacobtread/libreofficekit/errors"
)

func TestParseJSDialog(t *testing.T) {
	t.Run("with id", func(t *testing.T) {
		d, err := lok.ParseJSDialog(`{"id": 42, "jsontype": "dialog", "action": "created"}`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		id, ok := d.ID()
		if !ok || id != 42 {
			t.Fatalf("ID = (%d, %v), want (42, true)", id, ok)
		}
	})

	t.Run("without id", func(t *testing.T) {
		d, err := lok.ParseJSDialog(`{"jsontype": "dialog"}`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if _, ok := d.ID(); ok {
			t.Fatal("ID reported ok without an id field")
		}
	})

	t.Run("id not numeric", func(t *testing.T) {
		d, err := lok.ParseJSDialog(`{"id": "42"}`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if _, ok := d.ID(); ok {
			t.Fatal("ID reported ok for a string id")
		}
	})

	t.Run("not an object", func(t *testing.T) {
		d, err := lok.ParseJSDialog(`[1, 2, 3]`)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if _, ok := d.ID(); ok {
			t.Fatal("ID reported ok for an array payload")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := lok.ParseJSDialog(`{"id":`)
		wantKind(t, err, lokerrors.KindMalformedMetadata)
	})
}

func TestJSDialogResponse_Decode(t *testing.T) {
	var resp lok.JSDialogResponse
	if err := json.Unmarshal([]byte(`{"id": "17", "response": 1}`), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.ID != "17" || resp.Response != 1 {
		t.Fatalf("decoded = %+v", resp)
	}
}
