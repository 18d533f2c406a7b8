package middleware

import (
	"hungrypanda/hub-api/pkg/security"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// NewAuthMiddleware returns a middleware that only lets through requests
// carrying a valid "Authorization: Bearer <token>" header. The identity of
// the token is stored as identity (and its ID as userID) on the gin
// context and on the request context.
//
// The user directory isn't consulted, claims stay as they were minted
// until the token expires.
func NewAuthMiddleware(codec *security.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, requestID, "Missing or malformed authorization header")
			return
		}

		id, err := codec.Validate(token)
		if err != nil {
			abortUnauthorized(c, requestID, "Could not validate credentials")
			return
		}

		c.Set(identityKey, id)
		c.Set("userID", id.ID)
		c.Request = c.Request.WithContext(security.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// CurrentIdentity returns the identity set by the auth middleware
func CurrentIdentity(c *gin.Context) *security.Identity {
	return c.MustGet(identityKey).(*security.Identity)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}

func abortUnauthorized(c *gin.Context, requestID, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":     msg,
		"requestID": requestID,
	})
}
