package lok

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/jacobtread/libreofficekit/errors"
)

// FilterType describes one export filter the engine knows about.
// Unknown fields in the engine's description are ignored.
type FilterType struct {
	MediaType string `json:"MediaType"`
}

// FilterTypes maps filter names, as accepted by Document.SaveAs
// format arguments, to their descriptions.
type FilterTypes map[string]FilterType

// FilterTypes retrieves the engine's export filter table. Requires
// LibreOffice 6.0 or newer.
func (o *Office) FilterTypes() (FilterTypes, error) {
	raw, err := o.engine()
	if err != nil {
		return nil, err
	}
	body, err := raw.GetFilterTypes()
	if err != nil {
		return nil, err
	}
	// json.Unmarshal coerces bad UTF-8 instead of rejecting it, so the
	// encoding check has to happen first.
	if !utf8.ValidString(body) {
		return nil, errors.InvalidUTF8("filter types", []byte(body))
	}
	var filters FilterTypes
	if err := json.Unmarshal([]byte(body), &filters); err != nil {
		return nil, errors.MalformedMetadata("filter types", err)
	}
	return filters, nil
}
