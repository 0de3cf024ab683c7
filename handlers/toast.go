package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// SetToast sets the HX-Trigger response header so an HTMX front end shows a
// toast notification. If an HX-Trigger header already exists, the toast
// payload is merged into the existing JSON object.
func SetToast(w http.ResponseWriter, toastType string, message string) {
	toast := map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    toastType,
		},
	}

	existing := w.Header().Get("HX-Trigger")
	if existing != "" {
		var merged map[string]any
		if err := json.Unmarshal([]byte(existing), &merged); err != nil {
			slog.Warn("toast: existing HX-Trigger is not valid JSON, overwriting", "error", err)
		} else {
			merged["showToast"] = toast["showToast"]
			toast = merged
		}
	}

	data, err := json.Marshal(toast)
	if err != nil {
		slog.Warn("toast: failed to marshal HX-Trigger JSON", "error", err)
		return
	}
	w.Header().Set("HX-Trigger", string(data))
}

// ErrorToast sets an error toast and writes a JSON error body. HX-Reswap:
// none keeps HTMX from swapping the error body into the page.
func ErrorToast(w http.ResponseWriter, statusCode int, message string) {
	SetToast(w, "error", message)
	w.Header().Set("HX-Reswap", "none")
	jsonError(w, message, statusCode)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
