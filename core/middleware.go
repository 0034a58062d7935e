package core

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

const bearerPrefix = "Bearer "

// RequireUser extracts a bearer token from the Authorization header,
// verifies it, and resolves the embedded identifier to a stored user.
// Requests without a usable principal are rejected before the handler
// runs; the message distinguishes a missing token from an invalid one.
func RequireUser(tokens *TokenService, users UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token missing")
			c.Abort()
			return
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token invalid")
			c.Abort()
			return
		}

		// A valid token may still point at a deleted account.
		record, err := users.FindByID(c.Request.Context(), userID)
		if err != nil || record == nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token invalid")
			c.Abort()
			return
		}

		c.Set(currentUserKey, record.Principal())
		c.Next()
	}
}

// currentUser returns the principal attached by RequireUser.
func currentUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}

// OriginMiddleware validates Origin/Referer against the allowed list and
// sets CORS headers. With no configured origins, cross-origin requests
// are rejected and same-origin traffic passes through.
func OriginMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			// Same-origin navigation (no Origin header) is allowed.
			return true
		}
		if len(allowed) == 0 {
			return false
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		// Preflight handling
		if c.Request.Method == http.MethodOptions && origin != "" {
			if !isAllowed(origin) {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
				c.Abort()
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if !isAllowed(origin) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
}
