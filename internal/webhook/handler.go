package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/dispatcher"
	"github.com/garyjia/merchant-webhook/internal/domain/event"
	"github.com/garyjia/merchant-webhook/pkg/utils"
)

// MaxBodySize caps inbound webhook bodies
const MaxBodySize = 1 << 20

// Handler receives webhook notifications and dispatches them to the registered handlers.
// The sender is not authenticated.
type Handler struct {
	dispatcher  dispatcher.Dispatcher
	echoPayload bool
	async       bool
	logger      *zap.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithAsyncDispatch acknowledges the request before handlers run
func WithAsyncDispatch(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.async = enabled
	}
}

// NewHandler creates a new webhook handler.
// When echoPayload is set the raw payload is written back in the response.
func NewHandler(d dispatcher.Dispatcher, echoPayload bool, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher:  d,
		echoPayload: echoPayload,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes incoming webhook requests; GET and POST are treated alike
func (h *Handler) Handle(c *gin.Context) {
	payload, err := readPayload(c)
	if err != nil {
		h.logger.Error("Failed to read request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	h.logger.Debug("Webhook payload received", zap.String("payload", utils.SanitizeString(payload)))

	evt, err := event.Parse([]byte(payload))
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if code, ok := event.PeekVerificationCode([]byte(payload)); ok {
			fields = append(fields, zap.String("verification_code", code))
		}
		h.logger.Warn("Failed to parse webhook payload", fields...)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A dispatch runs to completion even if the sender hangs up;
	// outbound calls are bounded by the merchant API client timeout.
	ctx := context.WithoutCancel(c.Request.Context())

	if h.async {
		if err := h.dispatcher.DispatchAsync(ctx, evt); err != nil {
			h.dispatchFailed(c, evt, err)
			return
		}
		h.acknowledge(c, evt, payload)
		return
	}

	report, err := h.dispatcher.Dispatch(ctx, evt)
	if err != nil {
		h.dispatchFailed(c, evt, err)
		return
	}

	if report.Failed() {
		names := make([]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			names = append(names, f.Name)
		}
		h.logger.Warn("Some handlers failed",
			zap.String("delivery_id", evt.DeliveryID),
			zap.Strings("handlers", names))
	}

	h.acknowledge(c, evt, payload)
}

// dispatchFailed answers 503 when the dispatcher is closed and 500 otherwise
func (h *Handler) dispatchFailed(c *gin.Context, evt *event.Event, err error) {
	h.logger.Error("Failed to dispatch event",
		zap.String("delivery_id", evt.DeliveryID),
		zap.Error(err))
	status := http.StatusInternalServerError
	if errors.Is(err, dispatcher.ErrClosed) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": "Event not processed"})
}

func (h *Handler) acknowledge(c *gin.Context, evt *event.Event, payload string) {
	c.Header("X-Delivery-ID", evt.DeliveryID)
	if h.echoPayload {
		c.String(http.StatusOK, fmt.Sprintf("The payload was: '%s'", payload))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event received"})
}

// readPayload reads the request body, bounded by MaxBodySize, and trims surrounding whitespace
func readPayload(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodySize))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
