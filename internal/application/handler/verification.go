package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/domain/event"
)

// VerificationHandler reports verification codes sent when a webhook URL is registered
type VerificationHandler struct {
	logger *zap.Logger
	onCode func(ctx context.Context, appID, code string)
}

// NewVerificationHandler creates a verification handler.
// onCode may be nil; the code is always logged.
func NewVerificationHandler(logger *zap.Logger, onCode func(ctx context.Context, appID, code string)) *VerificationHandler {
	return &VerificationHandler{logger: logger, onCode: onCode}
}

// Handle implements dispatcher.Handler
func (h *VerificationHandler) Handle(ctx context.Context, evt *event.Event) error {
	if !evt.HasVerificationCode() {
		return nil
	}

	h.logger.Info("Got verification code, enter it in the merchant dashboard to verify the webhook",
		zap.String("delivery_id", evt.DeliveryID),
		zap.String("app_id", evt.AppID),
		zap.String("verification_code", evt.VerificationCode))

	if h.onCode != nil {
		h.onCode(ctx, evt.AppID, evt.VerificationCode)
	}
	return nil
}
