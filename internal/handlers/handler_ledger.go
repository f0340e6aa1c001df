package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/credit_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/credit_ledger/internal/core/ports/services"
	"github.com/SscSPs/credit_ledger/internal/dto"
	"github.com/SscSPs/credit_ledger/internal/middleware"
	"github.com/SscSPs/credit_ledger/internal/utils"
	"github.com/gin-gonic/gin"
)

// idempotencyKeyHeader takes precedence over the body field when both are set.
const idempotencyKeyHeader = "Idempotency-Key"

// ledgerHandler serves the caller's own balance, charges and history.
type ledgerHandler struct {
	ledgerService  portssvc.LedgerSvcFacade
	accountService portssvc.AccountReaderSvc
	pricingService portssvc.PricingSvcFacade
	analytics      *utils.PosthogClientWrapper
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade, as portssvc.AccountReaderSvc, ps portssvc.PricingSvcFacade, analytics *utils.PosthogClientWrapper) *ledgerHandler {
	return &ledgerHandler{
		ledgerService:  ls,
		accountService: as,
		pricingService: ps,
		analytics:      analytics,
	}
}

// registerLedgerRoutes registers the account-scoped ledger routes.
func registerLedgerRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, analytics *utils.PosthogClientWrapper) {
	h := newLedgerHandler(services.Ledger, services.Account, services.Pricing, analytics)

	rg.GET("/balance", h.getBalance)
	rg.POST("/estimate", h.estimateCost)
	rg.POST("/charge", h.charge)
	rg.GET("/pricing", h.listPricing)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transactionID", h.getTransaction)
	}
}

// callerAccountID reads the authenticated account or writes a 401.
func callerAccountID(c *gin.Context, logger *slog.Logger) (string, bool) {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		logger.Error("Account ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "UNAUTHORIZED", Message: "Unauthorized"})
		return "", false
	}
	return accountID, true
}

// getBalance godoc
// @Summary Get the caller's balance
// @Description Returns main and bonus balances, the monthly allowance and the last refresh time
// @Tags ledger
// @Produce  json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve balance"
// @Security BearerAuth
// @Router /balance [get]
func (h *ledgerHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := callerAccountID(c, logger)
	if !ok {
		return
	}

	balance, err := h.accountService.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

// estimateCost godoc
// @Summary Estimate the cost of an action
// @Description Prices an action for the caller's tier without charging
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   estimate body dto.EstimateRequest true "Action and quantity"
// @Success 200 {object} dto.CostEstimateResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid quantity or unknown action type"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Failed to estimate cost"
// @Security BearerAuth
// @Router /estimate [post]
func (h *ledgerHandler) estimateCost(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := callerAccountID(c, logger)
	if !ok {
		return
	}

	var req dto.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	breakdown, err := h.ledgerService.EstimateCost(c.Request.Context(), accountID, req.ActionType, req.Quantity)
	if err != nil {
		respondError(c, logger, err, "Failed to estimate cost")
		return
	}
	c.JSON(http.StatusOK, dto.ToCostEstimateResponse(breakdown))
}

// charge godoc
// @Summary Charge the caller for an action
// @Description Debits the priced cost of an action, bonus balance first. Retrying with the same idempotency key returns the original transaction.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency key (overrides the body field)"
// @Param   charge body dto.ChargeRequest true "Charge details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 402 {object} dto.ErrorResponse "Insufficient balance"
// @Failure 409 {object} dto.ErrorResponse "Duplicate reference or idempotency conflict"
// @Failure 429 {object} dto.ErrorResponse "Daily usage limit reached"
// @Failure 503 {object} dto.ErrorResponse "Account busy, retry"
// @Failure 500 {object} dto.ErrorResponse "Failed to charge"
// @Security BearerAuth
// @Router /charge [post]
func (h *ledgerHandler) charge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := callerAccountID(c, logger)
	if !ok {
		return
	}

	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	idempotencyKey := req.IdempotencyKey
	if header := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader)); header != "" {
		if !dto.IsValidIdempotencyKey(header) {
			respondValidation(c, logger, "idempotencyKey", "Idempotency-Key header must be 1-128 printable characters without spaces")
			return
		}
		idempotencyKey = header
	}

	txn, err := h.ledgerService.Charge(c.Request.Context(), req.ToDomain(accountID, idempotencyKey))
	if err != nil {
		respondError(c, logger, err, "Failed to charge")
		return
	}

	middleware.PosthogEvent(c, h.analytics, "credits_charged", map[string]any{
		"action_type": req.ActionType,
		"quantity":    req.Quantity,
		"amount":      -txn.Amount,
	})
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List the caller's transactions
// @Description Lists transactions newest first using token pagination
// @Tags ledger
// @Produce  json
// @Param   limit query int false "Page size (max 100)" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Param   kind query string false "Transaction kind"
// @Param   status query string false "Transaction status"
// @Param   actionType query string false "Action type"
// @Param   from query string false "Created at or after (RFC 3339)"
// @Param   to query string false "Created before (RFC 3339)"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Failed to list transactions"
// @Security BearerAuth
// @Router /transactions [get]
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := callerAccountID(c, logger)
	if !ok {
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	filter := domain.TransactionFilter{ActionType: domain.StringPtr(params.ActionType)}
	if params.Kind != "" {
		kind := domain.TransactionKind(strings.ToUpper(params.Kind))
		filter.Kind = &kind
	}
	if params.Status != "" {
		status := domain.TransactionStatus(strings.ToUpper(params.Status))
		filter.Status = &status
	}
	var valid bool
	if filter.CreatedFrom, valid = parseTimeParam(c, logger, "from", params.From); !valid {
		return
	}
	if filter.CreatedTo, valid = parseTimeParam(c, logger, "to", params.To); !valid {
		return
	}

	txns, nextToken, err := h.ledgerService.ListTransactions(c.Request.Context(), accountID, filter, params.Limit, params.NextToken)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}

	logger.Debug("Transactions listed", slog.Int("count", len(txns)))
	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.ToListTransactionResponse(txns),
		NextToken:    nextToken,
	})
}

// getTransaction godoc
// @Summary Get one of the caller's transactions
// @Tags ledger
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Transaction not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := callerAccountID(c, logger)
	if !ok {
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), accountID, c.Param("transactionID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listPricing godoc
// @Summary List action pricing
// @Tags pricing
// @Produce  json
// @Success 200 {array} dto.PricingResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Failed to list pricing"
// @Security BearerAuth
// @Router /pricing [get]
func (h *ledgerHandler) listPricing(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	entries, err := h.pricingService.ListPricing(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list pricing")
		return
	}
	c.JSON(http.StatusOK, dto.ToListPricingResponse(entries))
}

// parseTimeParam parses an optional RFC 3339 query value, writing a 400 on
// failure.
func parseTimeParam(c *gin.Context, logger *slog.Logger, field, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		respondValidation(c, logger, field, field+" must be an RFC 3339 timestamp")
		return nil, false
	}
	t = t.UTC()
	return &t, true
}
