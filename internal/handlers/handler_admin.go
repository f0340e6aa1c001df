package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/dto"
	"github.com/SscSPs/credit_ledger/internal/middleware"
	"github.com/SscSPs/credit_ledger/internal/utils"
	"github.com/SscSPs/credit_ledger/internal/utils/statement"
	"github.com/gin-gonic/gin"
)

// adminHandler serves the privileged operations. Every route requires the
// admin role.
type adminHandler struct {
	accountService portssvc.AccountSvcFacade
	ledgerService  portssvc.LedgerSvcFacade
	pricingService portssvc.PricingSvcFacade
	refreshService portssvc.RefreshSvc
	analytics      *utils.PosthogClientWrapper
}

func newAdminHandler(services *portssvc.ServiceContainer, analytics *utils.PosthogClientWrapper) *adminHandler {
	return &adminHandler{
		accountService: services.Account,
		ledgerService:  services.Ledger,
		pricingService: services.Pricing,
		refreshService: services.Refresh,
		analytics:      analytics,
	}
}

// registerAdminRoutes registers the /admin group behind the admin role.
func registerAdminRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, analytics *utils.PosthogClientWrapper) {
	h := newAdminHandler(services, analytics)

	admin := rg.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.POST("/accounts", h.openAccount)
		admin.POST("/refresh", h.runRefresh)
		admin.POST("/transactions/:transactionID/refund", h.refund)
		admin.PUT("/pricing/:actionType", h.upsertPricing)
	}

	account := admin.Group("/accounts/:accountID")
	{
		account.GET("/balance", h.getBalance)
		account.POST("/adjust", h.adjust)
		account.POST("/bonus", h.grantBonus)
		account.PUT("/tier", h.changeTier)
		account.POST("/purchases", h.recordPurchase)
		account.GET("/reconcile", h.reconcile)
		account.GET("/statement", h.exportStatement)
	}
}

// openAccount godoc
// @Summary Open a ledger account
// @Description Creates an account on a tier and grants the tier's signup bonus
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   account body dto.OpenAccountRequest true "Account details"
// @Success 201 {object} dto.BalanceResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Account already exists"
// @Failure 500 {object} dto.ErrorResponse "Failed to open account"
// @Security BearerAuth
// @Router /admin/accounts [post]
func (h *adminHandler) openAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	balance, err := h.accountService.OpenAccount(c.Request.Context(), req.AccountID, domain.Tier(req.Tier))
	if err != nil {
		respondError(c, logger, err, "Failed to open account")
		return
	}

	logger.Info("Account opened", slog.String("target_account_id", balance.AccountID), slog.String("tier", string(balance.Tier)))
	c.JSON(http.StatusCreated, dto.ToBalanceResponse(balance))
}

// getBalance godoc
// @Summary Get an account's balance
// @Tags admin
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve balance"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/balance [get]
func (h *adminHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	balance, err := h.accountService.GetBalance(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

// adjust godoc
// @Summary Adjust an account's main balance
// @Description Credits (positive amount) or debits (negative amount) the main balance with an audit reason
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   adjustment body dto.AdjustBalanceRequest true "Adjustment"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 402 {object} dto.ErrorResponse "Debit exceeds main balance"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to adjust balance"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/adjust [post]
func (h *adminHandler) adjust(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, _ := middleware.GetAccountIDFromContext(c)

	txn, err := h.ledgerService.AdminAdjust(c.Request.Context(), req.ToDomain(c.Param("accountID"), actorID))
	if err != nil {
		respondError(c, logger, err, "Failed to adjust balance")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// grantBonus godoc
// @Summary Grant bonus credits
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   bonus body dto.GrantBonusRequest true "Bonus grant"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to grant bonus"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/bonus [post]
func (h *adminHandler) grantBonus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.GrantBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	txn, err := h.ledgerService.GrantBonus(c.Request.Context(), req.ToDomain(c.Param("accountID")))
	if err != nil {
		respondError(c, logger, err, "Failed to grant bonus")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// changeTier godoc
// @Summary Change an account's tier
// @Description Records a PLAN_CHANGE; upgrades also grant the signup bonus difference
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   tier body dto.ChangeTierRequest true "New tier"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid or unchanged tier"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to change tier"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/tier [put]
func (h *adminHandler) changeTier(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ChangeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	txn, err := h.accountService.ChangeTier(c.Request.Context(), c.Param("accountID"), domain.Tier(req.Tier), req.Reason)
	if err != nil {
		respondError(c, logger, err, "Failed to change tier")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// recordPurchase godoc
// @Summary Record a credit purchase
// @Description Books a payment already settled by the payment provider. Failed payments are recorded with no balance effect.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   purchase body dto.RecordPurchaseRequest true "Payment receipt"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 409 {object} dto.ErrorResponse "Idempotency conflict"
// @Failure 500 {object} dto.ErrorResponse "Failed to record purchase"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/purchases [post]
func (h *adminHandler) recordPurchase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	accountID := c.Param("accountID")

	txn, err := h.ledgerService.RecordPurchase(c.Request.Context(), accountID, req.ToReceipt(), req.IdempotencyKey)
	if err != nil {
		respondError(c, logger, err, "Failed to record purchase")
		return
	}

	if txn.Status == domain.StatusCompleted {
		h.analytics.Enqueue(accountID, "credits_purchased", map[string]any{
			"provider": req.Provider,
			"currency": req.Currency,
			"amount":   req.Amount,
			"credits":  txn.Amount,
		})
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// reconcile godoc
// @Summary Reconcile an account with its ledger
// @Description Compares the stored spendable balance with the sum of the account's transactions
// @Tags admin
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to reconcile"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/reconcile [get]
func (h *adminHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rec, err := h.accountService.Reconcile(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile")
		return
	}
	if !rec.Consistent() {
		logger.Error("Ledger drift detected", slog.String("target_account_id", rec.AccountID), slog.Int64("drift", rec.Drift))
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(rec))
}

// exportStatement godoc
// @Summary Export an account statement
// @Description Renders the balance and the transactions of a period as XLSX or PDF
// @Tags admin
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce  application/pdf
// @Param   accountID path string true "Account ID"
// @Param   format query string false "xlsx or pdf" default(xlsx)
// @Param   from query string true "Period start (RFC 3339)"
// @Param   to query string true "Period end (RFC 3339)"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse "Invalid period or format"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to export statement"
// @Security BearerAuth
// @Router /admin/accounts/{accountID}/statement [get]
func (h *adminHandler) exportStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.StatementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}
	format, err := statement.ParseFormat(params.Format)
	if err != nil {
		respondError(c, logger, err, "Failed to export statement")
		return
	}
	from, ok := parseTimeParam(c, logger, "from", params.From)
	if !ok {
		return
	}
	to, ok := parseTimeParam(c, logger, "to", params.To)
	if !ok {
		return
	}

	accountID := c.Param("accountID")
	stmt, err := statement.Collect(c.Request.Context(), h.accountService, h.ledgerService, accountID, *from, *to)
	if err != nil {
		respondError(c, logger, err, "Failed to export statement")
		return
	}
	body, err := statement.Render(stmt, format)
	if err != nil {
		respondError(c, logger, err, "Failed to export statement")
		return
	}

	logger.Info("Statement exported", slog.String("target_account_id", accountID), slog.Int("transactions", len(stmt.Transactions)))
	filename := fmt.Sprintf("statement_%s_%s.%s", accountID, stmt.From.Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), body)
}

// refund godoc
// @Summary Refund a transaction
// @Description Reverses a CHARGE or PURCHASE exactly once
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   refund body dto.RefundRequest true "Refund reason"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 402 {object} dto.ErrorResponse "Purchased credits already spent"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Transaction not found"
// @Failure 409 {object} dto.ErrorResponse "Already refunded or not refundable"
// @Failure 500 {object} dto.ErrorResponse "Failed to refund"
// @Security BearerAuth
// @Router /admin/transactions/{transactionID}/refund [post]
func (h *adminHandler) refund(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	txn, err := h.ledgerService.Refund(c.Request.Context(), c.Param("transactionID"), req.Reason)
	if err != nil {
		respondError(c, logger, err, "Failed to refund")
		return
	}
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// upsertPricing godoc
// @Summary Create or replace an action's pricing
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   actionType path string true "Action type"
// @Param   pricing body dto.UpsertPricingRequest true "Pricing"
// @Success 200 {object} dto.PricingResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Failed to save pricing"
// @Security BearerAuth
// @Router /admin/pricing/{actionType} [put]
func (h *adminHandler) upsertPricing(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpsertPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	entry, err := h.pricingService.UpsertPricing(c.Request.Context(), req.ToDomain(c.Param("actionType")))
	if err != nil {
		respondError(c, logger, err, "Failed to save pricing")
		return
	}
	logger.Info("Pricing saved", slog.String("action_type", entry.ActionType))
	c.JSON(http.StatusOK, dto.ToPricingResponse(entry))
}

// runRefresh godoc
// @Summary Run the monthly refresh now
// @Description Refreshes every account whose cycle has elapsed
// @Tags admin
// @Produce  json
// @Success 200 {object} dto.RefreshSummaryResponse
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Refresh pass failed"
// @Security BearerAuth
// @Router /admin/refresh [post]
func (h *adminHandler) runRefresh(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	summary, err := h.refreshService.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Refresh pass failed")
		return
	}
	c.JSON(http.StatusOK, dto.RefreshSummaryResponse{
		Scanned:   summary.Scanned,
		Refreshed: summary.Refreshed,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	})
}
