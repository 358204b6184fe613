package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/h1bee-match/internal/auth"
	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	httperrors "github.com/oggyb/h1bee-match/internal/transport/http/errors"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// Auth validates the Authorization bearer token and stores the caller's id
// on both the gin context and the request context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httperrors.Write(c, svcErr.Unauthorized("missing authorization"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			httperrors.Write(c, svcErr.Unauthorized("invalid authorization header"))
			return
		}

		userID, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			httperrors.Write(c, svcErr.Unauthorized("invalid token"))
			return
		}

		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), userID))
		c.Next()
	}
}

// UserID returns the id stored by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
