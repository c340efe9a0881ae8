package handlers

import (
	"errors"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/payroll-ledger-api/internal/services"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"
)

// errorCodes maps service errors to a status and a stable machine-readable code
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrValidation, http.StatusBadRequest, "validation_error"},
	{services.ErrUnknownField, http.StatusBadRequest, "unknown_field"},
	{services.ErrInvalidValue, http.StatusBadRequest, "invalid_value"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrLocked, http.StatusConflict, "locked"},
	{services.ErrAlreadyPosted, http.StatusConflict, "already_posted"},
	{services.ErrDuplicateEntry, http.StatusConflict, "duplicate_entry"},
}

// statusForError returns the HTTP status and error code for a service error
func statusForError(err error) (int, string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondError writes a service error. Unexpected errors are logged, reported to
// Sentry and hidden from the client.
func respondError(c *gin.Context, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		c.JSON(status, gin.H{"error": "internal server error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
