package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	accountIDKey = contextKey("accountID")
	rolesKey     = contextKey("role")
	tierKey      = contextKey("tier")
)

// RoleAdmin grants access to the privileged ledger operations.
const RoleAdmin = "admin"

// GetAccountIDFromContext retrieves the authenticated account ID from the request context.
// It returns the account ID and a boolean indicating if it was found.
func GetAccountIDFromContext(c *gin.Context) (string, bool) {
	accountID, ok := c.Request.Context().Value(accountIDKey).(string)
	if !ok || accountID == "" {
		return "", false
	}
	return accountID, true
}

// GetRoleFromContext returns the caller's role claim, empty when absent.
func GetRoleFromContext(c *gin.Context) string {
	role, _ := c.Request.Context().Value(rolesKey).(string)
	return role
}

// GetTierFromContext returns the caller's tier claim, empty when absent.
func GetTierFromContext(ctx context.Context) string {
	tier, _ := ctx.Value(tierKey).(string)
	return tier
}
