// Package httpjson writes the JSON envelopes shared by every API endpoint.
//
// Failures always use the shape
//
//	{ "success": false, "message": "..." }
//
// so clients can surface a notification without knowing which endpoint failed.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// Envelope is the common failure body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Error writes the failure envelope with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, Envelope{Success: false, Message: msg})
}

// NoCache marks a response as never cacheable.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// maxBody caps request bodies; every API payload is a handful of ids.
const maxBody = 1 << 20

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody)).Decode(dst)
}
