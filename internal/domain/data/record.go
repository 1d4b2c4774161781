package data

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is an incoming row mapping that remembers the order its keys arrived in.
// Column order of an inferred table follows the key order of the uploaded records.
type Record struct {
	Keys   []string
	Values []interface{}
}

// Get retrieves a value by key
func (r Record) Get(key string) (interface{}, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Set adds a key or replaces the value of an existing one
func (r *Record) Set(key string, value interface{}) {
	for i, k := range r.Keys {
		if k == key {
			r.Values[i] = value
			return
		}
	}
	r.Keys = append(r.Keys, key)
	r.Values = append(r.Values, value)
}

// Len returns the number of keys
func (r Record) Len() int {
	return len(r.Keys)
}

// Map returns the record as an unordered map
func (r Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Keys))
	for i, k := range r.Keys {
		m[k] = r.Values[i]
	}
	return m
}

// MarshalJSON implements json.Marshaler interface
func (r Record) MarshalJSON() ([]byte, error) {
	return marshalOrdered(r.Keys, r.Values)
}

// UnmarshalJSON implements json.Unmarshaler interface.
// Keys keep their document order; numbers become int64 when integral, float64 otherwise.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	r.Keys = r.Keys[:0]
	r.Values = r.Values[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected record key %v", tok)
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("record key %s: %w", key, err)
		}
		r.Set(key, NormalizeValue(v))
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// NormalizeValue converts decoded JSON numbers into int64 or float64.
// Other values are returned unchanged.
func NormalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []interface{}:
		for i := range n {
			n[i] = NormalizeValue(n[i])
		}
		return n
	case map[string]interface{}:
		for k := range n {
			n[k] = NormalizeValue(n[k])
		}
		return n
	}
	return v
}

// Values is an incoming ordered row tuple
type Values []interface{}

// UnmarshalJSON implements json.Unmarshaler interface with the same number
// handling as Record.
func (v *Values) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	for i := range raw {
		raw[i] = NormalizeValue(raw[i])
	}
	*v = raw
	return nil
}
