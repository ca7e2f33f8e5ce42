package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"oip/autopurchase/pkg/ginx"
	"oip/autopurchase/pkg/logger"
)

// HeaderRequestID carries the trace id in and out
const HeaderRequestID = "X-Request-ID"

// RequestID puts the caller's request id, or a new one, on the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Logger logs one line per request
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infof(c.Request.Context(), "[HTTP] %s %s %d %v",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Recovery turns a handler panic into a 500 reply
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(c.Request.Context(), "[HTTP] panic in %s: %v", c.Request.URL.Path, r)
				c.Abort()
				ginx.InternalError(c, fmt.Sprintf("internal error: %v", r))
			}
		}()
		c.Next()
	}
}

// ErrorHandler replies with the last error attached to the context when nothing was written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			ginx.Error(c, http.StatusInternalServerError, c.Errors.Last().Error())
		}
	}
}
