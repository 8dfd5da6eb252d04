package model

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	timestampLayout      = "2006-01-02 15:04:05"
	timestampMicroLayout = "2006-01-02 15:04:05.000000"
)

// Row is a single result row that keeps the column order reported by the
// engine when serialized.
type Row struct {
	columns []string
	values  map[string]interface{}
}

// NewRow builds a Row from parallel column and value slices.
func NewRow(columns []string, values []interface{}) Row {
	r := Row{
		columns: make([]string, 0, len(columns)),
		values:  make(map[string]interface{}, len(columns)),
	}
	for i, col := range columns {
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		r.Set(col, v)
	}
	return r
}

// Set assigns a value, appending the column if it is new.
func (r *Row) Set(column string, value interface{}) {
	if r.values == nil {
		r.values = make(map[string]interface{})
	}
	if _, exists := r.values[column]; !exists {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Columns returns the column names in engine order.
func (r Row) Columns() []string {
	return r.columns
}

// Get returns the raw value of a column.
func (r Row) Get(column string) (interface{}, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.columns)
}

// First returns the value of the first column, as used by SHOW TABLES.
func (r Row) First() interface{} {
	if len(r.columns) == 0 {
		return nil
	}
	return r.values[r.columns[0]]
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(JSONValue(r.values[col]))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	*r = Row{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected row key %v", tok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return err
		}
		r.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// JSONValue coerces values that JSON cannot represent natively into their
// string form. Temporal values use the engine's "YYYY-MM-DD HH:MM:SS" form,
// binary values that are not valid UTF-8 are base64 encoded. It never fails.
func JSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return base64.StdEncoding.EncodeToString(val)
	case time.Time:
		return FormatTimestamp(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return FormatTimestamp(*val)
	case fmt.Stringer:
		return val.String()
	case map[string]interface{}, []interface{}:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatTimestamp renders t the way engine timestamps are stringified in
// documents: second precision, microseconds only when present.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format(timestampMicroLayout)
	}
	return t.Format(timestampLayout)
}
