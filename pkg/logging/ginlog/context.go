package ginlog

import (
	"strings"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
)

// GetOrCreateRequestID returns the request ID of the supplied gin context.
// The trace id part of X-Cloud-Trace-Context ("TRACE_ID/SPAN_ID;o=1") is
// used when present, otherwise a random id is generated. The id is stored on
// the context so later calls return the same value.
func GetOrCreateRequestID(ctx *gin.Context) string {
	if id, ok := ctx.Get(RequestIDKey); ok {
		return id.(string)
	}

	requestID := traceID(ctx.GetHeader(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewV4().String()
	}
	ctx.Set(RequestIDKey, requestID)
	return requestID
}

func traceID(header string) string {
	if i := strings.IndexAny(header, "/;"); i >= 0 {
		header = header[:i]
	}
	return strings.TrimSpace(header)
}
