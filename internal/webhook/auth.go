package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/port"
	"github.com/garyjia/merchant-webhook/pkg/utils"
)

// AuthHandler records merchant access tokens posted as {"<merchantId>":"<token>"}
type AuthHandler struct {
	store  port.TokenStore
	logger *zap.Logger
}

// NewAuthHandler creates a handler that writes tokens to store
func NewAuthHandler(store port.TokenStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: store, logger: logger}
}

// Handle stores every merchant token in the body and echoes the payload
func (h *AuthHandler) Handle(c *gin.Context) {
	payload, err := readPayload(c)
	if err != nil {
		h.logger.Error("Failed to read request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	var tokens map[string]string
	if err := json.Unmarshal([]byte(payload), &tokens); err != nil {
		h.logger.Warn("Failed to parse token payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a JSON object of merchant id to access token"})
		return
	}

	for merchantID, token := range tokens {
		if err := utils.ValidateMerchantID(merchantID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := utils.ValidateAccessToken(token); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "merchant_id": merchantID})
			return
		}
	}

	for merchantID, token := range tokens {
		if err := h.store.PutAccessToken(c.Request.Context(), merchantID, token); err != nil {
			h.logger.Error("Failed to store access token",
				zap.String("merchant_id", merchantID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store access token"})
			return
		}
	}

	h.logger.Info("Access tokens saved", zap.Int("merchants", len(tokens)))
	c.String(http.StatusOK, payload)
}
