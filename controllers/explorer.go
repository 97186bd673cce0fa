package controllers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"github.com/stellar/go/strkey"

	"github.com/daccred/lumenview.attest.so/handlers"
	"github.com/daccred/lumenview.attest.so/models"
)

// ExplorerService is the query surface consumed by the HTTP layer.
type ExplorerService interface {
	GetAccount(ctx context.Context, publicKey string) (*models.AccountSnapshot, error)
	ListTransactions(ctx context.Context, publicKey string) ([]models.Transaction, error)
	GetTransactionDetail(ctx context.Context, id string) (*models.Transaction, error)
	DecodePayloads(tx *models.Transaction) *models.TransactionPayloads
	Stats() models.Stats
}

type ExplorerController struct {
	db  *sql.DB
	svc ExplorerService
}

func NewExplorerController(db *sql.DB, svc ExplorerService) *ExplorerController {
	return &ExplorerController{db: db, svc: svc}
}

func (ec *ExplorerController) RegisterRoutes(r *gin.Engine) {
	store := persistence.NewInMemoryStore(time.Minute)

	r.GET("/health", ec.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/accounts/:publicKey", ec.GetAccount)
		v1.GET("/accounts/:publicKey/transactions", ec.GetTransactions)
		v1.GET("/transactions/:id", ec.GetTransaction)
		v1.GET("/stats", cache.CachePage(store, time.Minute, ec.GetStats))
	}
}

func (ec *ExplorerController) HealthCheck(c *gin.Context) {
	if err := ec.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "Database connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (ec *ExplorerController) GetAccount(c *gin.Context) {
	publicKey := c.Param("publicKey")
	if !strkey.IsValidEd25519PublicKey(publicKey) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid account public key"})
		return
	}

	snapshot, err := ec.svc.GetAccount(c.Request.Context(), publicKey)
	if err != nil {
		respondError(c, err, "Failed to fetch account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

func (ec *ExplorerController) GetTransactions(c *gin.Context) {
	publicKey := c.Param("publicKey")
	if !strkey.IsValidEd25519PublicKey(publicKey) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid account public key"})
		return
	}

	txs, err := ec.svc.ListTransactions(c.Request.Context(), publicKey)
	if err != nil {
		respondError(c, err, "Failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"transactions": txs}})
}

func (ec *ExplorerController) GetTransaction(c *gin.Context) {
	id := c.Param("id")

	tx, err := ec.svc.GetTransactionDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch transaction")
		return
	}

	ops := tx.Operations
	if ops == nil {
		ops = []models.Operation{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"transaction": tx,
		"operations":  ops,
		"payloads":    ec.svc.DecodePayloads(tx),
	}})
}

func (ec *ExplorerController) GetStats(c *gin.Context) {
	stats := ec.svc.Stats()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func respondError(c *gin.Context, err error, message string) {
	var upstream *handlers.UpstreamError
	switch {
	case errors.Is(err, handlers.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": message})
	}
}
