package handler

import (
	"context"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/port"
)

// LogConsumer writes detail payloads to the log
type LogConsumer struct {
	logger *zap.Logger
}

// NewLogConsumer creates a consumer that logs every payload it receives
func NewLogConsumer(logger *zap.Logger) *LogConsumer {
	return &LogConsumer{logger: logger}
}

// Consume implements port.DetailConsumer
func (c *LogConsumer) Consume(ctx context.Context, req port.DetailRequest, body []byte) error {
	fields := []zap.Field{
		zap.String("delivery_id", req.DeliveryID),
		zap.String("merchant_id", req.MerchantID),
		zap.String("object_ref", req.ObjectRef),
		zap.String("update_type", req.UpdateType),
	}
	if id := gjson.GetBytes(body, "id"); id.Exists() {
		fields = append(fields, zap.String("object_id", id.String()))
	}
	fields = append(fields, zap.ByteString("detail", body))

	c.logger.Info("Detailed data for the object", fields...)
	return nil
}

var _ port.DetailConsumer = (*LogConsumer)(nil)
