// Package middleware contains any custom middleware used in the app
package middleware

import (
	"bitwise74/user-api/pkg/util"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-ID"

// NewRequestIDMiddleware returns a new middleware function that sets a request ID for
// each incoming request as requestID. An ID sent by a proxy in front of us is kept,
// otherwise a new one is generated. The ID is echoed back in the response headers.
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = util.RandStr(10)
		}

		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
