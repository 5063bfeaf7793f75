package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
	"github.com/vaultchat/vaultchat-backend/internal/services"
)

type UsageHandler struct {
	log    *logger.Logger
	ledger services.LedgerService
}

func NewUsageHandler(log *logger.Logger, ledger services.LedgerService) *UsageHandler {
	return &UsageHandler{log: log.With("handler", "UsageHandler"), ledger: ledger}
}

// GetUsage reads cumulative counters for a namespaced entity id, for
// example "chat:42" or "user:7". Unknown entities come back as zeros.
func (uh *UsageHandler) GetUsage(c *gin.Context) {
	entityID := c.Param("entity_id")
	metric, err := uh.ledger.Get(c.Request.Context(), entityID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "usage_load_failed", err)
		return
	}
	RespondOK(c, gin.H{"usage": metric})
}

func (uh *UsageHandler) ResetUsage(c *gin.Context) {
	entityID := c.Param("entity_id")
	if err := uh.ledger.Reset(c.Request.Context(), entityID); err != nil {
		RespondError(c, http.StatusInternalServerError, "usage_reset_failed", err)
		return
	}
	RespondOK(c, gin.H{"reset": true})
}
