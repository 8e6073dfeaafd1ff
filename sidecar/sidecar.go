// Package sidecar reads and rewrites the JSON metadata files that accompany
// converted images. Fields beyond the ones the pipeline touches are carried
// through untouched.
package sidecar

import (
	"encoding/json"
	"os"

	"github.com/carbocation/pfx"
)

// Sidecar is the parsed content of one JSON sidecar file.
type Sidecar map[string]interface{}

// Load parses a sidecar file.
func Load(path string) (Sidecar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	s := Sidecar{}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, pfx.Err(err)
	}
	return s, nil
}

// Save writes the sidecar with four-space indentation, the same layout the
// converter emits.
func (s Sidecar) Save(path string) error {
	raw, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return pfx.Err(err)
	}
	return pfx.Err(os.WriteFile(path, raw, 0644))
}

// Clone returns a shallow copy, enough for per-direction variants of one
// sidecar since the pipeline only replaces top-level fields.
func (s Sidecar) Clone() Sidecar {
	out := make(Sidecar, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// String returns a string-valued field ("" when absent or not a string).
func (s Sidecar) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Float returns a numeric field and whether it was present.
func (s Sidecar) Float(key string) (float64, bool) {
	v, ok := s[key].(float64)
	return v, ok
}

// Set stores a field.
func (s Sidecar) Set(key string, value interface{}) {
	s[key] = value
}

// Delete removes a field if present.
func (s Sidecar) Delete(key string) {
	delete(s, key)
}

// SliceTiming returns the SliceTiming array, nil when absent.
func (s Sidecar) SliceTiming() []interface{} {
	v, _ := s["SliceTiming"].([]interface{})
	return v
}
