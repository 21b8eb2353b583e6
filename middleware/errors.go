package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/authcore"
)

// ErrorBody is the JSON shape of every rejection.
type ErrorBody struct {
	Message    string `json:"message"`
	Resolution string `json:"resolution,omitempty"`
	ErrorCode  string `json:"error_code"`
}

// WriteError writes err as a JSON error response. Errors outside the
// authcore taxonomy are reported as authcore.ErrInternal.
func WriteError(w http.ResponseWriter, err error) {
	e := authcore.AsError(err)
	if e == nil {
		e = authcore.ErrInternal
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Message:    e.Message,
		Resolution: e.Resolution,
		ErrorCode:  e.Code,
	})
}
