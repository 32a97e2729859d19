package resource

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
)

// NormalizeList turns a list response into records. A bare array is used as
// is; an object is probed for keys in order. An object with none of the keys
// is an error so contract drift shows up instead of an empty list.
func NormalizeList(body []byte, keys []string) ([]catalog.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, internal.NewParseError("empty list response", internal.ErrCodeMalformedBody, nil)
	}

	switch trimmed[0] {
	case '[':
		return decodeArray(trimmed)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, internal.NewParseError("malformed response body", internal.ErrCodeMalformedBody, err)
		}
		for _, key := range keys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 || raw[0] != '[' {
				continue
			}
			return decodeArray(raw)
		}
		return nil, internal.NewParseError(
			fmt.Sprintf("unrecognized envelope: expected one of [%s], got keys [%s]", strings.Join(keys, ", "), strings.Join(sortedKeys(obj), ", ")),
			internal.ErrCodeUnexpectedEnvelope, nil)
	default:
		return nil, internal.NewParseError("list response is neither an array nor an object", internal.ErrCodeUnexpectedEnvelope, nil)
	}
}

// NormalizeSingle extracts one record, probing keys in order and falling back
// to the object itself.
func NormalizeSingle(body []byte, keys []string) (catalog.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, internal.NewParseError("malformed response body", internal.ErrCodeMalformedBody, err)
	}
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var rec catalog.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, internal.NewParseError("malformed record", internal.ErrCodeMalformedBody, err)
		}
		return rec, nil
	}

	var rec catalog.Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, internal.NewParseError("malformed record", internal.ErrCodeMalformedBody, err)
	}
	return rec, nil
}

func decodeArray(raw []byte) ([]catalog.Record, error) {
	var items []catalog.Record
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, internal.NewParseError("malformed list", internal.ErrCodeMalformedBody, err)
	}
	out := items[:0]
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

// errorMessage pulls a server-provided message out of an error body.
func errorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	if s, ok := parsed.Error.(string); ok {
		return s
	}
	return ""
}

func sortedKeys(obj map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
