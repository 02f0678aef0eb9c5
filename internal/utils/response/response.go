// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Success responses may be any JSON shape. Error responses always look like:
//
//	{ "status": "error", "error": "field Username is required" }
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the envelope returned for error cases.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// InternalErrorMessage is the only detail a client sees for a 500.
const InternalErrorMessage = "Internal server error"

// WriteJSON writes data as JSON with the given status code.
// Header() → WriteHeader() → body, in that order.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Error wraps a plain message into the error envelope.
func Error(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}

// GeneralError wraps any Go error into the error envelope.
func GeneralError(err error) Response {
	return Error(err.Error())
}

// InternalError is the fixed body for 500 responses.
func InternalError() Response {
	return Error(InternalErrorMessage)
}

// ValidationError turns validator field errors into one readable message.
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Error(strings.Join(errMessages, ", "))
}
