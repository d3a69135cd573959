package middleware

import (
	"github.com/gin-gonic/gin"

	"book-review-service/internal/domain/user"
)

// identityKey is the gin context key holding the authenticated *user.Identity
const identityKey = "identity"

// SetIdentity attaches the caller identity to c.
func SetIdentity(c *gin.Context, identity *user.Identity) {
	c.Set(identityKey, identity)
}

// CurrentIdentity returns the identity attached by Auth, if any.
func CurrentIdentity(c *gin.Context) (*user.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*user.Identity)
	return identity, ok && identity != nil
}
