// Package handlers provides HTTP handler implementations for the public API
// and the login/index pages.
//
// This file defines the standard response utilities used across all endpoints,
// including the structured error envelope, the success flag every JSON body
// carries, and the mapping from service errors to HTTP statuses.
//
// Conventions:
//   - All error responses return an ErrorResponse with `success:false` and a
//     stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `serviceError()` translates services sentinels with errors.Is.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "error": "egg not found",
//	  "message": "Egg not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "eggs": [] }
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-hatch-backend/internal/http/middleware"
	"github.com/tbourn/go-hatch-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - Success: always false.
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Error: Short description of what went wrong.
//   - Message: A human-readable message, safe for display to users.
type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code  string `json:"code" example:"not_found"`
	Error string `json:"error" example:"egg not found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Egg not found"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// cause fills the `error` field for client and upstream errors. For plain
// 500s the cause is logged but the body only carries the status text.
func fail(c *gin.Context, status int, code, msg string, cause error) {
	detail := strings.ToLower(http.StatusText(status))
	if cause != nil && status != http.StatusInternalServerError {
		detail = cause.Error()
	}
	resp := ErrorResponse{
		Success:   false,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Error:     detail,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		ev := lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() without a cause.
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg, nil) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// serviceError maps an error returned by the hatchery to a response. msg is
// the user-facing message used for failures that are not the caller's fault.
func serviceError(c *gin.Context, err error, msg string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg, err)
	case errors.Is(err, services.ErrEggNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Egg not found", err)
	case errors.Is(err, services.ErrUpstream):
		fail(c, http.StatusBadGateway, ErrCodeUpstream, msg, err)
	case errors.Is(err, services.ErrAssetDownload):
		fail(c, http.StatusBadGateway, ErrCodeAssetDownload, msg, err)
	case errors.As(err, &tooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large", err)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msg, err)
	}
}
