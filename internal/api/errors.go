package api

import (
	"errors"
	"net/http"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/observability"
	"github.com/danmuck/nexus/internal/scan"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	codeInvalidRequest = "invalid_request"
	codeInternal       = "internal_error"
)

var errInvalidID = errors.New("api: id must be a positive integer")

func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	observability.TagError(c, code)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error", "code": code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, codes.ErrFormat):
		return http.StatusBadRequest, codes.CodeMalformed
	case errors.Is(err, codes.ErrMismatch):
		return http.StatusConflict, codes.CodeMismatch
	case errors.Is(err, codes.ErrNotFound):
		return http.StatusNotFound, codes.CodeNotFound
	case errors.Is(err, scan.ErrInvalidAction), errors.Is(err, errInvalidID):
		return http.StatusBadRequest, codeInvalidRequest
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func invalidRequest(c *gin.Context, msg string) {
	observability.TagError(c, codeInvalidRequest)
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": codeInvalidRequest})
}
