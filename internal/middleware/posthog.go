package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/credit_ledger/internal/utils"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1/"

// PosthogMiddleware records one "ledger_<route>" event per successful
// authenticated API call, e.g. "ledger_charge" or "ledger_admin_accounts_:accountID_adjust".
// Route templates are used so account and transaction ids never end up in event names.
func PosthogMiddleware(analytics *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if !analytics.IsInitialized() || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		route := c.FullPath()
		if !strings.HasPrefix(route, apiPrefix) {
			return
		}

		props := map[string]any{
			"method": c.Request.Method,
			"route":  route,
			"status": c.Writer.Status(),
		}
		PosthogEvent(c, analytics, "ledger_"+strings.ReplaceAll(strings.TrimPrefix(route, apiPrefix), "/", "_"), props)
	}
}

// PosthogEvent sends eventName for the calling account, tagged with its tier
// and the request id. Calls without an authenticated account are dropped.
func PosthogEvent(c *gin.Context, analytics *utils.PosthogClientWrapper, eventName string, properties map[string]any) {
	if !analytics.IsInitialized() {
		return
	}
	accountID, ok := GetAccountIDFromContext(c)
	if !ok {
		return
	}

	if properties == nil {
		properties = make(map[string]any, 2)
	}
	if tier := GetTierFromContext(c.Request.Context()); tier != "" {
		properties["tier"] = tier
	}
	if requestID := c.Writer.Header().Get(requestIDHeader); requestID != "" {
		properties["request_id"] = requestID
	}
	analytics.Enqueue(accountID, eventName, properties)
}
