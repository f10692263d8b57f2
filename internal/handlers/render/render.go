// Package render owns the response envelope and the single boundary adapter
// that maps typed service errors to HTTP statuses.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/akorchagin/vidstream/internal/apperrors"
)

var validate = newValidator()

// Envelope is the success shape: {statusCode, data, message, success}.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorEnvelope is the failure shape: {statusCode, message, success:false}.
type ErrorEnvelope struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Success    bool              `json:"success"`
	Fields     map[string]string `json:"errors,omitempty"`
}

// JSON renders a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any, message string) {
	if data == nil {
		data = struct{}{}
	}

	jsonWithStatus(w, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}, status)
}

// Error is the boundary adapter: it matches the closed apperrors set and
// renders the matching status. Anything untyped is a server failure and is
// never leaked to the client verbatim.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status = appErr.Status()
		message = appErr.Message
	}

	jsonWithStatus(w, ErrorEnvelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
	}, status)
}

// DecodeError renders a 400 for malformed request bodies.
func DecodeError(w http.ResponseWriter, err error) {
	message := "Failed to parse request body"

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	}

	jsonWithStatus(w, ErrorEnvelope{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Success:    false,
	}, http.StatusBadRequest)
}

// ValidationErrors renders a 400 with a per-field breakdown.
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make(map[string]string, len(errs))

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "email":
			message = "Invalid email address"
		default:
			message = "Invalid value"
		}

		fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, ErrorEnvelope{
		StatusCode: http.StatusBadRequest,
		Message:    "All fields are required",
		Success:    false,
		Fields:     fields,
	}, http.StatusBadRequest)
}

// BindAndValidate decodes the JSON request body into T and validates it by
// struct tags. Error responses are written here, the caller just returns.
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// cast is safe: T is a struct and the validator ran on it
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
