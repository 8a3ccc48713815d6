package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field from an explicit null,
// which a plain *string cannot. The update endpoints need all three shapes
// for parent_id: absent leaves the parent alone, null moves the object to
// root level, a string moves it under that folder.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only invoked when the field appears in the document, so
// reaching it at all means Present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
