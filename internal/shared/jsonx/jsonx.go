// Package jsonx centralizes JSON encode/decode behind json-iterator (the
// faster drop-in the teacher repo pulls in for its own "jsonx" helper)
// and adds a lenient repair pass for the malformed JSON an LLM
// occasionally emits.
package jsonx

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

// RawMessage re-exports encoding/json's delayed-decode type so callers
// never need to import encoding/json directly.
type RawMessage = jsoniter.RawMessage

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent encodes v as indented JSON.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid reports whether data is syntactically valid JSON.
func Valid(data []byte) bool {
	return api.Valid(data)
}

// UnmarshalLenient first attempts a strict decode; on failure it runs
// the text through jsonrepair (fixing trailing commas, unquoted keys,
// truncated fences, and similar LLM output quirks) and retries once.
func UnmarshalLenient(data []byte, v any) error {
	if err := api.Unmarshal(data, v); err == nil {
		return nil
	}
	repaired, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return rerr
	}
	return api.Unmarshal([]byte(repaired), v)
}
