package observability

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// OperatorHeader names the scanning operator on scan requests.
const OperatorHeader = "X-Nexus-User"

const (
	scanFamilyKey = "nexus.scan_family"
	errorCodeKey  = "nexus.error_code"
)

// TagScan records the code family a request scanned, for the request log.
func TagScan(c *gin.Context, family string) {
	if family != "" {
		c.Set(scanFamilyKey, family)
	}
}

// TagError records the machine code of a failed request, for the request log.
func TagError(c *gin.Context, code string) {
	if code != "" {
		c.Set(errorCodeKey, code)
	}
}

// RequestLogger writes one line per request. Scan requests carry the
// operator and code family; failures carry the error code, so a malformed
// scan, a stale label and a deleted record read differently in the log.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size())
		if operator := strings.TrimSpace(c.GetHeader(OperatorHeader)); operator != "" {
			event.Str("operator", operator)
		}
		if family := c.GetString(scanFamilyKey); family != "" {
			event.Str("scan_family", family)
		}
		if code := c.GetString(errorCodeKey); code != "" {
			event.Str("error_code", code)
		}
		event.Msg("http_request")
	}
}

func RequestMetricsMiddleware(node string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		RecordHTTPRequest(node, c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
