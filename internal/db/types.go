package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ScanJSON decodes a jsonb column value (bytes, string or NULL) into dst.
// A NULL column leaves dst at its zero value.
func ScanJSON(dst any, src any) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("dbtypes: cannot scan type %T as json", src)
	}
}

// JSONValue marshals v so it can be written to a jsonb column.
func JSONValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// NullJSON is a nullable jsonb column. A zero NullJSON reads and writes as
// SQL NULL and marshals to JSON null, so optional columns round-trip through
// both sqlx and the HTTP layer.
type NullJSON struct {
	Raw json.RawMessage
}

// NewNullJSON marshals v into a NullJSON value.
func NewNullJSON(v any) (NullJSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return NullJSON{}, err
	}
	return NullJSON{Raw: b}, nil
}

// Scan implements sql.Scanner.
func (n *NullJSON) Scan(src any) error {
	if n == nil {
		return fmt.Errorf("dbtypes: Scan on nil *NullJSON")
	}
	if src == nil {
		n.Raw = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		n.Raw = append(json.RawMessage(nil), v...)
		return nil
	case string:
		n.Raw = json.RawMessage(v)
		return nil
	default:
		return fmt.Errorf("dbtypes: cannot scan type %T into NullJSON", src)
	}
}

// Value implements driver.Valuer.
func (n NullJSON) Value() (driver.Value, error) {
	if len(n.Raw) == 0 {
		return nil, nil
	}
	return string(n.Raw), nil
}

// MarshalJSON implements json.Marshaler.
func (n NullJSON) MarshalJSON() ([]byte, error) {
	if len(n.Raw) == 0 {
		return []byte("null"), nil
	}
	return n.Raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullJSON) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		n.Raw = nil
		return nil
	}
	n.Raw = append(n.Raw[:0], b...)
	return nil
}

// IsNull reports whether the column holds no document.
func (n NullJSON) IsNull() bool {
	return len(n.Raw) == 0
}
