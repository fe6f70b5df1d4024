package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps request IDs copied onto spans
const MaxRequestIDLength = 128

// Tracing returns the OpenTelemetry server middleware followed by a handler
// that tags the request span with the request and user IDs. Spans are named
// after the route pattern, e.g. "POST /api/v1/sales-orders/:id/allocate".
func Tracing(serviceName string, opts ...otelgin.Option) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName, opts...),
		traceAttributes,
	}
}

func traceAttributes(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if requestID := GetRequestID(c); requestID != "" {
		if len(requestID) > MaxRequestIDLength {
			requestID = requestID[:MaxRequestIDLength]
		}
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	// only well-formed user IDs reach the span
	if userID, err := uuid.Parse(c.GetHeader("X-User-ID")); err == nil {
		span.SetAttributes(attribute.String("user_id", userID.String()))
	}
	c.Next()
}
