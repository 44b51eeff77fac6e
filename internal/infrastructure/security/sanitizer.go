// Package security redacts credentials and personal data before they
// reach logs. Payment sessions carry cedulas and phone numbers, which are
// PII and must never appear in full in log output.
package security

import (
	"net/http"
	"net/url"
	"strings"
)

// Sensitive header names that should be redacted.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// Query parameters that carry secrets and must not be logged.
var sensitiveParams = []string{"token", "secret", "key"}

const redactedValue = "[REDACTED]"

// SanitizeHeaders removes sensitive headers from an HTTP header map.
// Returns a new map with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string)

	for key, values := range headers {
		lowerKey := strings.ToLower(key)
		if sensitiveHeaders[lowerKey] {
			sanitized[key] = redactedValue
		} else {
			sanitized[key] = strings.Join(values, ", ")
		}
	}

	return sanitized
}

// SanitizeURL redacts secret-bearing query parameters from a URL so it can
// be logged safely. Malformed URLs are returned unchanged.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	changed := false
	for _, param := range sensitiveParams {
		if q.Has(param) {
			q.Set(param, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// MaskCedula keeps the document type prefix and the last two digits,
// masking the rest: "V12345678" becomes "V******78".
func MaskCedula(cedula string) string {
	if len(cedula) <= 3 {
		return strings.Repeat("*", len(cedula))
	}
	return cedula[:1] + strings.Repeat("*", len(cedula)-3) + cedula[len(cedula)-2:]
}

// MaskTelefono keeps only the last four digits of a phone number.
func MaskTelefono(telefono string) string {
	if len(telefono) <= 4 {
		return strings.Repeat("*", len(telefono))
	}
	return strings.Repeat("*", len(telefono)-4) + telefono[len(telefono)-4:]
}
