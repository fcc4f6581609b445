package input

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/sethhall/matchy/internal/mmdbdata"
)

type jsonRecord struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// ParseJSON reads a JSON array of {"key": ..., "data": ...} objects
// (spec §6.4). data may be any JSON value; it's decoded recursively
// into the entry's payload.
func ParseJSON(r io.Reader) ([]RawEntry, error) {
	var records []jsonRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("input: decoding JSON array: %w", err)
	}

	entries := make([]RawEntry, 0, len(records))
	for _, rec := range records {
		if rec.Key == "" {
			continue
		}
		var data any
		if len(rec.Data) > 0 {
			if err := json.Unmarshal(rec.Data, &data); err != nil {
				return nil, fmt.Errorf("input: decoding data for key %q: %w", rec.Key, err)
			}
		}
		entries = append(entries, RawEntry{Key: rec.Key, Payload: jsonToValue(data)})
	}
	return entries, nil
}

// jsonToValue converts a decoded JSON value (string, float64, bool,
// nil, []any, map[string]any) into the recursive payload type the
// builder and data section speak.
func jsonToValue(v any) mmdbdata.Value {
	switch x := v.(type) {
	case nil:
		return mmdbdata.String("")
	case string:
		return mmdbdata.String(x)
	case bool:
		return mmdbdata.Bool(x)
	case float64:
		return mmdbdata.Float64(x)
	case []any:
		vals := make([]mmdbdata.Value, len(x))
		for i, e := range x {
			vals[i] = jsonToValue(e)
		}
		return mmdbdata.Array(vals)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]mmdbdata.Entry, len(keys))
		for i, k := range keys {
			entries[i] = mmdbdata.Entry{Key: k, Value: jsonToValue(x[k])}
		}
		return mmdbdata.Map(entries)
	default:
		return mmdbdata.String(fmt.Sprint(x))
	}
}
