package api

import (
	"encoding/json"
	"net/http"

	"github.com/micromdm/nanointake/workflow"
)

// JSONError encodes err as JSON to w.
// Application errors also include their stable code.
func JSONError(w http.ResponseWriter, err error, statusCode int) {
	jsonErr := &struct {
		Err  string `json:"error"`
		Code string `json:"code,omitempty"`
	}{Err: err.Error(), Code: workflow.CodeOf(err)}
	w.Header().Set("Content-type", "application/json")
	if statusCode < 1 {
		statusCode = http.StatusInternalServerError
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonErr)
}

// JSONResponse encodes v as JSON to w.
func JSONResponse(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-type", "application/json")
	return json.NewEncoder(w).Encode(v)
}
