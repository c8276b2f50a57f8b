package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"roster/internal/model"
)

const (
	actorKey = "actor"
	userKey  = "user"
)

// Optional attaches the actor for a valid bearer token. Requests without one
// continue anonymously; the policy decides what they may do. A failure to look
// up the token's user is handed to fail and ends the request.
func Optional(accounts *Accounts, fail func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.Next()
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		u, err := accounts.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		if u != nil {
			c.Set(actorKey, u.Actor())
			c.Set(userKey, u)
		}
		c.Next()
	}
}

// ActorFrom returns the request actor, or nil for anonymous requests.
func ActorFrom(c *gin.Context) *model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(*model.Actor); ok {
			return a
		}
	}
	return nil
}

// UserFrom returns the authenticated user, or nil.
func UserFrom(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
