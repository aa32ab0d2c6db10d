// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. The API trusts an upstream
// gateway to authenticate users and forward the result in X-User-ID.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-response/response"
)

const (
	// HeaderUserID carries the authenticated user id.
	HeaderUserID = "X-User-ID"
	// ctxKeyUserID is the Gin context key holding the user id.
	ctxKeyUserID = "userID"
	// anonymousUser is used when identity is optional and absent.
	anonymousUser = "demo-user"
)

// Identity copies a non-blank X-User-ID header into the Gin context under
// "userID". It never rejects a request.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
			c.Set(ctxKeyUserID, uid)
		}
		c.Next()
	}
}

// RequireUser fails requests without an identity with
// response.ErrUnauthenticated when required is true. Otherwise anonymous
// requests proceed as "demo-user".
func RequireUser(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := userIDFromCtx(c); ok {
			c.Next()
			return
		}
		if required {
			Fail(c, response.ErrUnauthenticated)
			return
		}
		c.Set(ctxKeyUserID, anonymousUser)
		c.Next()
	}
}

// UserID returns the caller's id, or "demo-user" when none was resolved.
func UserID(c *gin.Context) string {
	if uid, ok := userIDFromCtx(c); ok {
		return uid
	}
	return anonymousUser
}

func userIDFromCtx(c *gin.Context) (string, bool) {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
