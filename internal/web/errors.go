package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is:
//   - Logged with full technical details and the request ID (server-side)
//   - Returned as JSON with a user-facing message, a suggested action and a
//     support code from core.MapError
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusFor(err))
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. JSON body is written; "detail" mirrors the message for clients that
//     read FastAPI-style errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetinspect/internal/auth"
	"github.com/JonMunkholm/sheetinspect/internal/core"
	"github.com/JonMunkholm/sheetinspect/internal/logging"
)

var errNoFile = errors.New("no file provided")

// paramError reports a missing or malformed query parameter.
type paramError struct {
	name    string
	problem string
}

func (e *paramError) Error() string {
	if e.problem == "" {
		return fmt.Sprintf("missing parameter %q", e.name)
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.name, e.problem)
}

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an error returned by the service,
// the identity layer or request parsing.
func statusFor(err error) int {
	var (
		parseErr  *core.ParseError
		exportErr *core.ExportError
		pErr      *paramError
		maxErr    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &maxErr), strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFileType), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidPage), errors.As(err, &pErr), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &exportErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the JSON error body.
//
// For client errors with a known mapping the detail carries the technical
// message (for example the parse failure reason). Everything else gets the
// generic user message so internals are not exposed.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if token := r.URL.Query().Get("token"); token != "" {
		attrs = append(attrs, "token", logging.Redact(token))
	}
	if statusCode >= 500 {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	detail := userMsg.Message
	if statusCode < 500 && core.IsUserFacing(err) {
		detail = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Detail:  detail,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}); err != nil {
		slog.Warn("error response encode failed", "error", err)
	}
}

// fail responds with the status statusFor derives from err.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("json encode failed", "error", err)
	}
}
