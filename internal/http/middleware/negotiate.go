// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements content negotiation on the Accept header.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-response/response"
)

// Negotiate fails with response.ErrNotAcceptable when the request's Accept
// header admits none of offers. A missing Accept header accepts anything.
func Negotiate(offers ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Accept") == "" || c.NegotiateFormat(offers...) != "" {
			c.Next()
			return
		}
		Fail(c, response.ErrNotAcceptable)
	}
}
