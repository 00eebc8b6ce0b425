package utils

import (
	"encoding/json"
	"net/http"
	"regexp"
)

var nonDigitRegex = regexp.MustCompile(`[^0-9]`)

// DigitsOnly strips everything but 0-9, e.g. "+91 98765-43210" -> "919876543210".
func DigitsOnly(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

// FirstNonEmpty returns the first non-empty value, or "".
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
