package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mickamy/recordtrail"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id"`
	Details   []string `json:"details"`
}

// WriteError writes a uniform error response.
func WriteError(c *gin.Context, statusCode int, code string, message string, details ...string) {
	requestID, _ := c.Get(requestIDKey)
	reqID, _ := requestID.(string)
	if details == nil {
		details = []string{}
	}

	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: reqID,
			Details:   details,
		},
	})
}

// writeTrailError maps recordtrail errors to HTTP responses.
func writeTrailError(c *gin.Context, logger *zap.Logger, err error) {
	var serr *recordtrail.StorageError
	switch {
	case errors.Is(err, recordtrail.ErrEmptyChange):
		WriteError(c, http.StatusUnprocessableEntity, "RECORDTRAIL_EMPTY_CHANGE", "no attribute changed")
	case errors.Is(err, recordtrail.ErrValidation):
		WriteError(c, http.StatusBadRequest, "RECORDTRAIL_VALIDATION_FAILED", err.Error())
	case errors.As(err, &serr) && serr.Temporary():
		logger.Warn("transient storage failure", zap.Error(err), zap.String("sqlstate", serr.SQLState()))
		WriteError(c, http.StatusServiceUnavailable, "RECORDTRAIL_STORAGE_BUSY", "the change conflicted with a concurrent transaction, retry later")
	default:
		logger.Error("storage failure", zap.Error(err))
		WriteError(c, http.StatusInternalServerError, "RECORDTRAIL_INTERNAL_ERROR", "failed to access the change log")
	}
}
