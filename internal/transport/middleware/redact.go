package middleware

import (
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// bodies above this size are not logged
const maxLoggedBody = 4 << 10

const redacted = "[REDACTED]"

// secretMarkers are matched against lower-cased keys, so "refresh_token" and
// "X-Api-Key" are both caught. Bank details come from employee records.
var secretMarkers = []string{
	"password", "token", "authorization", "secret", "api_key", "apikey",
	"cookie", "credential", "accountnumber", "account_number", "ifsc",
}

func isSecret(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range secretMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isSecret(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func redactQuery(q url.Values) string {
	for key := range q {
		if isSecret(key) {
			q.Set(key, redacted)
		}
	}
	return q.Encode()
}

// redactBody masks secret keys at any depth of a JSON document. Anything
// that is not JSON is replaced by a placeholder.
func redactBody(body []byte) string {
	switch {
	case len(body) == 0:
		return ""
	case len(body) > maxLoggedBody:
		return "[too large]"
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "[non-json]"
	}
	masked, err := json.Marshal(redactValue(doc))
	if err != nil {
		return "[unencodable]"
	}
	return string(masked)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for key, inner := range t {
			if isSecret(key) {
				t[key] = redacted
			} else {
				t[key] = redactValue(inner)
			}
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = redactValue(inner)
		}
		return t
	}
	return v
}
