package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Record is one uploaded source row: an open key-value object. Values keep
// whatever type the upload carried; only the top-level shape is validated.
type Record map[string]interface{}

// RecordList stores the full source snapshot of a job in a JSON column.
type RecordList []Record

func (r RecordList) Value() (driver.Value, error) {
	if r == nil {
		r = RecordList{}
	}
	return json.Marshal(r)
}

func (r *RecordList) Scan(src interface{}) error {
	return scanJSON(src, r)
}

// FieldMap maps destination field name to source field name.
type FieldMap map[string]string

func (m FieldMap) Value() (driver.Value, error) {
	if m == nil {
		m = FieldMap{}
	}
	return json.Marshal(m)
}

func (m *FieldMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// StringList is a JSON array of strings, used for the per-job error log.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// DestinationConfig is the job-level snapshot of where records go.
type DestinationConfig struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

func (d DestinationConfig) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *DestinationConfig) Scan(src interface{}) error {
	return scanJSON(src, d)
}

func scanJSON(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
}
