package handler

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/domain/event"
)

// EchoHandler logs the contents of every event
type EchoHandler struct {
	logger *zap.Logger
}

// NewEchoHandler creates an echo handler
func NewEchoHandler(logger *zap.Logger) *EchoHandler {
	return &EchoHandler{logger: logger}
}

// Handle implements dispatcher.Handler
func (h *EchoHandler) Handle(ctx context.Context, evt *event.Event) error {
	h.logger.Info("Received webhook event",
		zap.String("delivery_id", evt.DeliveryID),
		zap.String("app_id", evt.AppID),
		zap.Int("merchants", len(evt.Merchants)),
		zap.Int("updates", evt.UpdateCount()))

	merchantIDs := make([]string, 0, len(evt.Merchants))
	for id := range evt.Merchants {
		merchantIDs = append(merchantIDs, id)
	}
	sort.Strings(merchantIDs)

	for _, merchantID := range merchantIDs {
		for i, update := range evt.Merchants[merchantID] {
			h.logger.Info("Merchant update",
				zap.String("delivery_id", evt.DeliveryID),
				zap.String("merchant_id", merchantID),
				zap.Int("index", i),
				zap.String("object_id", update.ObjectRef),
				zap.String("type", update.Type.String()),
				zap.String("ts", update.Timestamp))
		}
	}

	return nil
}
