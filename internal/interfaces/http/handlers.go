package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-webhook/internal/application/dispatcher"
	"github.com/garyjia/merchant-webhook/internal/application/port"
)

// Handlers contains the operator HTTP handlers
type Handlers struct {
	dispatcher dispatcher.Dispatcher
	tokens     port.TokenStore
	logger     Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(d dispatcher.Dispatcher, tokens port.TokenStore, logger Logger) *Handlers {
	return &Handlers{
		dispatcher: d,
		tokens:     tokens,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HandlerResponse describes a registered event handler
type HandlerResponse struct {
	Registration uint64 `json:"registration"`
	Name         string `json:"name"`
}

// MerchantResponse describes a merchant with a stored token
type MerchantResponse struct {
	MerchantID  string `json:"merchant_id"`
	AccessToken string `json:"access_token"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
		},
	})
}

// ListHandlers handles GET /api/handlers
func (h *Handlers) ListHandlers(c *gin.Context) {
	infos := h.dispatcher.List()
	out := make([]HandlerResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, HandlerResponse{
			Registration: uint64(info.Registration),
			Name:         info.Name,
		})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// ListMerchants handles GET /api/merchants; tokens are masked
func (h *Handlers) ListMerchants(c *gin.Context) {
	tokens, err := h.tokens.AccessTokens(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list access tokens", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve merchants",
		})
		return
	}

	out := make([]MerchantResponse, 0, len(tokens))
	for merchantID, token := range tokens {
		out = append(out, MerchantResponse{
			MerchantID:  merchantID,
			AccessToken: maskToken(token),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MerchantID < out[j].MerchantID })

	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// maskToken keeps the last four characters of a token
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
