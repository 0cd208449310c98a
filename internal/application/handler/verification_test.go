package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestVerificationHandler(t *testing.T) {
	t.Run("logs and reports the code", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		var gotApp, gotCode string
		h := NewVerificationHandler(zap.New(core), func(ctx context.Context, appID, code string) {
			gotApp, gotCode = appID, code
		})

		require.NoError(t, h.Handle(context.Background(), parse(t, `{"appId":"A1","verificationCode":"123456"}`)))

		assert.Equal(t, "A1", gotApp)
		assert.Equal(t, "123456", gotCode)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "123456", logs.All()[0].ContextMap()["verification_code"])
	})

	t.Run("ignores events without a code", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		called := false
		h := NewVerificationHandler(zap.New(core), func(ctx context.Context, appID, code string) {
			called = true
		})

		require.NoError(t, h.Handle(context.Background(), parse(t, `{"appId":"A1","merchants":{"M1":[{"objectId":"O:1"}]}}`)))

		assert.False(t, called)
		assert.Zero(t, logs.Len())
	})

	t.Run("nil callback", func(t *testing.T) {
		h := NewVerificationHandler(zap.NewNop(), nil)
		assert.NoError(t, h.Handle(context.Background(), parse(t, `{"verificationCode":"999"}`)))
	})
}
