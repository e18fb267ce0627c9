package api

import (
	"encoding/json" // json.Number for amounts
	"net/http"      // HTTP status codes
	"time"          // Reconciliation timestamps

	"wallet_ledger/internal/domain" // Domain models and errors
	"wallet_ledger/internal/wallet" // Wallet ledger service

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateAccountRequest represents a create account request. Field rules are
// enforced by the service so missing values come back as coded 422s.
type CreateAccountRequest struct {
	DisplayName string         `json:"displayName"`
	OwnerType   string         `json:"ownerType"`
	OwnerID     string         `json:"ownerId"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	Metadata    map[string]any `json:"metadata"`
}

// CreateAccountHandler opens a wallet account; the caller is recorded as the actor of the audit marker
func CreateAccountHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		account, err := svc.CreateAccount(c.Request.Context(), wallet.CreateAccountInput{
			DisplayName: req.DisplayName,
			OwnerType:   req.OwnerType,
			OwnerID:     req.OwnerID,
			Currency:    req.Currency,
			Status:      req.Status,
			Metadata:    req.Metadata,
			ActorID:     actorID(c),
		})
		if err != nil {
			respondError(c, err, "Create wallet account")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"account": account})
	}
}

// UpdateAccountRequest represents a partial account update
type UpdateAccountRequest struct {
	DisplayName      *string        `json:"displayName"`
	Status           *string        `json:"status"`
	Metadata         map[string]any `json:"metadata"`
	LastReconciledAt *time.Time     `json:"lastReconciledAt"`
}

// UpdateAccountHandler updates labels, status and metadata of an account
func UpdateAccountHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		account, err := svc.UpdateAccount(c.Request.Context(), c.Param("id"), wallet.UpdateAccountInput{
			DisplayName:      req.DisplayName,
			Status:           req.Status,
			Metadata:         req.Metadata,
			LastReconciledAt: req.LastReconciledAt,
		})
		if err != nil {
			respondError(c, err, "Update wallet account")
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": account})
	}
}

// GetAccountHandler returns a single account
func GetAccountHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := svc.GetAccount(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Get wallet account")
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": account})
	}
}

// ListAccountsHandler returns one page of accounts
func ListAccountsHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.ListAccounts(c.Request.Context(), wallet.ListAccountsInput{
			Search:        c.Query("search"),
			Status:        c.Query("status"),
			Page:          queryInt(c, "page", 1),
			PageSize:      queryInt(c, "page_size", 0),
			IncludeRecent: c.Query("include_recent") == "true",
		})
		if err != nil {
			respondError(c, err, "List wallet accounts")
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// RecordTransactionRequest represents a posting request
type RecordTransactionRequest struct {
	Type           string         `json:"type"`
	Amount         json.Number    `json:"amount"`
	Currency       string         `json:"currency"`
	ReferenceType  string         `json:"referenceType"`
	ReferenceID    string         `json:"referenceId"`
	Description    string         `json:"description"`
	Metadata       map[string]any `json:"metadata"`
	AllowNegative  bool           `json:"allowNegative"`
	IdempotencyKey string         `json:"idempotencyKey"`
}

// RecordTransactionHandler posts a transaction against an account
func RecordTransactionHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RecordTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		amount, err := domain.ParseAmount(req.Amount.String())
		if err != nil {
			respondError(c, err, "Record transaction")
			return
		}
		result, err := svc.RecordTransaction(c.Request.Context(), wallet.PostingInput{
			AccountID:      c.Param("id"),
			Type:           req.Type,
			Amount:         amount,
			Currency:       req.Currency,
			ReferenceType:  req.ReferenceType,
			ReferenceID:    req.ReferenceID,
			Description:    req.Description,
			ActorID:        actorID(c),
			Metadata:       req.Metadata,
			AllowNegative:  req.AllowNegative,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err != nil {
			respondError(c, err, "Record transaction")
			return
		}
		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		c.JSON(status, result)
	}
}

// ListTransactionsHandler returns the newest postings of an account
func ListTransactionsHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := svc.ListTransactions(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 0))
		if err != nil {
			respondError(c, err, "List transactions")
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txs})
	}
}

// ReconcileAccountHandler verifies the ledger of an account and stamps it reconciled
func ReconcileAccountHandler(svc *wallet.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := svc.ReconcileAccount(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Reconcile wallet account")
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": account})
	}
}
