// Package handler contains the built-in webhook event handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/port"
	"github.com/garyjia/merchant-webhook/internal/domain/endpoint"
	"github.com/garyjia/merchant-webhook/internal/domain/event"
)

// DetailHandler resolves every update in an event into the object's detail
// payload by calling the merchant REST API with that merchant's access token.
type DetailHandler struct {
	vars     endpoint.Vars
	tokens   port.TokenLookup
	fetcher  port.DetailFetcher
	consumer port.DetailConsumer
	logger   *zap.Logger
}

// DetailOption configures a DetailHandler
type DetailOption func(*DetailHandler)

// WithDetailConsumer replaces the default logging consumer
func WithDetailConsumer(consumer port.DetailConsumer) DetailOption {
	return func(h *DetailHandler) {
		h.consumer = consumer
	}
}

// NewDetailHandler creates a handler for the given API server,
// e.g. https://apidev1.dev.clover.com:443
func NewDetailHandler(server string, tokens port.TokenLookup, fetcher port.DetailFetcher, logger *zap.Logger, opts ...DetailOption) *DetailHandler {
	h := &DetailHandler{
		vars:    endpoint.NewVars(server),
		tokens:  tokens,
		fetcher: fetcher,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.consumer == nil {
		h.consumer = NewLogConsumer(logger)
	}
	return h
}

// DetailResult counts what happened while resolving an event
type DetailResult struct {
	Fetched          int
	Failed           int
	SkippedMerchants int
	SkippedUpdates   int
}

// Handle implements dispatcher.Handler.
// Merchant and update failures are logged and skipped, never returned.
func (h *DetailHandler) Handle(ctx context.Context, evt *event.Event) error {
	result := h.Resolve(ctx, evt)
	if evt.HasMerchants() {
		h.logger.Info("Detail resolution finished",
			zap.String("delivery_id", evt.DeliveryID),
			zap.Int("fetched", result.Fetched),
			zap.Int("failed", result.Failed),
			zap.Int("skipped_merchants", result.SkippedMerchants),
			zap.Int("skipped_updates", result.SkippedUpdates))
	}
	return nil
}

// Resolve fetches the detail payload for every resolvable update in evt
func (h *DetailHandler) Resolve(ctx context.Context, evt *event.Event) DetailResult {
	var result DetailResult
	if !evt.HasMerchants() {
		return result
	}

	merchantIDs := make([]string, 0, len(evt.Merchants))
	for id := range evt.Merchants {
		merchantIDs = append(merchantIDs, id)
	}
	sort.Strings(merchantIDs)

	for _, merchantID := range merchantIDs {
		h.resolveMerchant(ctx, evt, merchantID, evt.Merchants[merchantID], &result)
	}

	return result
}

func (h *DetailHandler) resolveMerchant(ctx context.Context, evt *event.Event, merchantID string, updates []event.Update, result *DetailResult) {
	if merchantID == "" {
		h.logger.Warn("Skipping updates with empty merchant id",
			zap.String("delivery_id", evt.DeliveryID),
			zap.Int("updates", len(updates)))
		result.SkippedMerchants++
		return
	}

	accessToken, ok := h.tokens.GetAccessToken(ctx, merchantID)
	if !ok || accessToken == "" {
		h.logger.Warn("No access token found for merchant",
			zap.String("delivery_id", evt.DeliveryID),
			zap.String("merchant_id", merchantID),
			zap.Error(event.ErrMissingToken))
		result.SkippedMerchants++
		return
	}

	vars := h.vars.With(
		endpoint.AccessTokenKey, accessToken,
		endpoint.MerchantKey, merchantID,
	)

	for i, update := range updates {
		if err := h.resolveUpdate(ctx, evt, merchantID, update, vars, accessToken); err != nil {
			fields := []zap.Field{
				zap.String("delivery_id", evt.DeliveryID),
				zap.String("merchant_id", merchantID),
				zap.Int("update_index", i),
				zap.String("object_ref", update.ObjectRef),
				zap.Error(err),
			}
			if errors.Is(err, event.ErrDetailFetch) {
				h.logger.Error("Failed to fetch object detail", fields...)
				result.Failed++
			} else {
				h.logger.Warn("Skipping unresolvable update", fields...)
				result.SkippedUpdates++
			}
			continue
		}
		result.Fetched++
	}
}

func (h *DetailHandler) resolveUpdate(ctx context.Context, evt *event.Event, merchantID string, update event.Update, vars endpoint.Vars, accessToken string) error {
	ref, err := event.ParseObjectRef(update.ObjectRef)
	if err != nil {
		return err
	}

	target, err := endpoint.Resolve(ref, vars)
	if err != nil {
		return err
	}
	logged := redact(target, accessToken)

	h.logger.Debug("Fetching object detail",
		zap.String("merchant_id", merchantID),
		zap.String("object_ref", update.ObjectRef),
		zap.String("url", logged))

	body, err := h.fetch(ctx, target)
	if err != nil {
		return fetchFailure(logged, accessToken, err)
	}

	req := port.DetailRequest{
		DeliveryID: evt.DeliveryID,
		MerchantID: merchantID,
		ObjectRef:  update.ObjectRef,
		UpdateType: update.Type.String(),
	}
	if err := h.consume(ctx, req, body); err != nil {
		h.logger.Error("Detail consumer failed",
			zap.String("merchant_id", merchantID),
			zap.String("object_ref", update.ObjectRef),
			zap.Error(err))
	}

	return nil
}

// fetch calls the fetcher and turns a panic into an error for this update only
func (h *DetailHandler) fetch(ctx context.Context, target string) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panic: %v", r)
		}
	}()
	return h.fetcher.Fetch(ctx, target)
}

// consume calls the consumer and turns a panic into an error for this update only
func (h *DetailHandler) consume(ctx context.Context, req port.DetailRequest, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()
	return h.consumer.Consume(ctx, req, body)
}

// fetchFailure builds the error that gets logged for a failed fetch.
// The URL is the redacted one and the cause is scrubbed of the access token.
func fetchFailure(loggedURL, accessToken string, err error) *event.DetailFetchError {
	out := &event.DetailFetchError{URL: loggedURL, Err: err}

	var fetchErr *event.DetailFetchError
	if errors.As(err, &fetchErr) {
		out.StatusCode = fetchErr.StatusCode
		out.Err = fetchErr.Err
	}
	if out.Err == nil {
		return out
	}

	var urlErr *url.Error
	if errors.As(out.Err, &urlErr) {
		out.Err = urlErr.Err
	}
	if msg := out.Err.Error(); redact(msg, accessToken) != msg {
		out.Err = errors.New(redact(msg, accessToken))
	}
	return out
}

// redact hides the access_token query value in text written to logs
func redact(text, accessToken string) string {
	if accessToken == "" {
		return text
	}
	return strings.ReplaceAll(text,
		endpoint.AccessTokenKey+"="+accessToken,
		endpoint.AccessTokenKey+"=REDACTED")
}
