package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// apiError is an error whose message is safe to return to clients.
type apiError struct {
	code int
	msg  string
	err  error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *apiError) Unwrap() error { return e.err }

func newError(code int, msg string, err error) *apiError {
	return &apiError{code: code, msg: msg, err: err}
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError maps err to a status code. Errors that are not apiErrors are
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var ae *apiError
	if errors.As(err, &ae) && ae.code < http.StatusInternalServerError {
		writeJSON(w, ae.code, map[string]string{"error": ae.msg})
		return
	}

	code := http.StatusInternalServerError
	if ae != nil {
		code = ae.code
	}
	logger.Error("request failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeJSON(w, code, map[string]string{"error": "internal server error"})
}
