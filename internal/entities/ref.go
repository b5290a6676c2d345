package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NoRefPlaceholder is shown for a reference the server did not send.
const NoRefPlaceholder = "Sin ID"

// RefKind tells which shape a Ref arrived in.
type RefKind int

const (
	RefAbsent RefKind = iota
	RefID
	RefEmbedded
)

// Ref is a foreign key that the API returns either as a bare id string or as
// the full referenced document.
type Ref struct {
	Kind   RefKind
	ID     string
	Object json.RawMessage
}

// RefFromID builds a bare-id reference. An empty id is an absent reference.
func RefFromID(id string) Ref {
	if id == "" {
		return Ref{}
	}
	return Ref{Kind: RefID, ID: id}
}

// Resolve returns the referenced id and whether one is known.
func (r Ref) Resolve() (string, bool) {
	switch r.Kind {
	case RefID, RefEmbedded:
		if r.ID != "" {
			return r.ID, true
		}
	}
	return "", false
}

// Display returns the referenced id, or NoRefPlaceholder.
func (r Ref) Display() string {
	if id, ok := r.Resolve(); ok {
		return id
	}
	return NoRefPlaceholder
}

// DecodeEmbedded decodes the embedded document of r into T.
func DecodeEmbedded[T any](r Ref) (T, bool) {
	var v T
	if r.Kind != RefEmbedded || len(r.Object) == 0 {
		return v, false
	}
	if err := json.Unmarshal(r.Object, &v); err != nil {
		return v, false
	}
	return v, true
}

// MarshalJSON always sends the bare id.
func (r Ref) MarshalJSON() ([]byte, error) {
	if id, ok := r.Resolve(); ok {
		return json.Marshal(id)
	}
	return []byte("null"), nil
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = RefFromID(id)
		return nil
	case '{':
		var ident struct {
			MongoID json.RawMessage `json:"_id"`
			ID      json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &ident); err != nil {
			return err
		}
		raw := ident.MongoID
		if len(raw) == 0 {
			raw = ident.ID
		}
		r.Kind = RefEmbedded
		r.ID = scalarString(raw)
		r.Object = append(json.RawMessage(nil), data...)
		return nil
	default:
		if s := scalarString(data); s != "" {
			*r = RefFromID(s)
			return nil
		}
		return fmt.Errorf("entities: unsupported reference %s", data)
	}
}

// scalarString renders a JSON string or number as a plain string.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
