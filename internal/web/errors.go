package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get a coded user message
//  4. Technical error is logged with the request ID for correlation
//  5. User message is rendered as an HTMX fragment, JSON or plain text

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/salesdesk/internal/core"
	"github.com/JonMunkholm/salesdesk/internal/logging"
	"github.com/JonMunkholm/salesdesk/internal/web/templates"
)

var (
	errRateLimited  = errors.New("rate limit exceeded")
	errInvalidParam = errors.New("invalid parameter")
	errInvalidDate  = errors.New("invalid date")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// respondError logs err and writes its user message in the format the
// client asked for.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	respondErrorDetail(w, r, err, statusCode, "")
}

// respondErrorDetail is respondError with a safe, user-facing detail line,
// such as which query parameter failed validation.
func respondErrorDetail(w http.ResponseWriter, r *http.Request, err error, statusCode int, detail string) {
	userMsg := core.MapError(err)

	log := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	// Errors without a specific message are unexpected whatever the status.
	if statusCode >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		log.Error("request error", args...)
	} else {
		log.Warn("request error", args...)
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode, detail)
	default:
		http.Error(w, core.FormatUserError(err), statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Detail:  detail,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
// HTMX does not swap non-2xx responses by default, so the status is sent
// and the client is told to retarget via HX-Reswap.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("HX-Reswap", "innerHTML")
	w.WriteHeader(statusCode)
	_ = templates.ErrorAlert(msg).Render(r.Context(), w)
}

// statusFor picks the HTTP status for a core error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrLoadInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrUnknownEncoding),
		errors.Is(err, core.ErrParseFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNoDataset):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
