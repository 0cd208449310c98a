package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/config"
	"github.com/garyjia/merchant-webhook/internal/infrastructure/token"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Webhook:     config.WebhookConfig{Path: "/webhook", AuthPath: "/auth", EchoPayload: true},
		MerchantAPI: config.MerchantAPIConfig{Timeout: time.Second},
		Tokens: config.TokensConfig{
			Backend:  config.TokenBackendFile,
			FileName: filepath.Join(t.TempDir(), "access_tokens.json"),
		},
	}
}

func handlerNames(c *Container) []string {
	var names []string
	for _, info := range c.Dispatcher().List() {
		names = append(names, info.Name)
	}
	return names
}

func TestNewContainer(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	bad := testConfig(t)
	bad.Tokens.Backend = "redis"
	_, err = NewContainer(bad, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_StartWithoutMerchantAPI(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	assert.True(t, c.IsReady())
	assert.Equal(t, []string{"echo", "verification"}, handlerNames(c))
	assert.NotNil(t, c.Server())

	// seeded file store
	tok, ok := c.TokenStore().GetAccessToken(context.Background(), token.ExampleMerchantID)
	assert.True(t, ok)
	assert.Equal(t, token.ExampleAccessToken, tok)

	assert.Error(t, c.Start(context.Background()), "second start")
}

func TestContainer_ResolvesDetailsEndToEnd(t *testing.T) {
	paths := make(chan string, 1)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.RequestURI()
		w.Write([]byte(`{"id":"ORD123"}`))
	}))
	defer api.Close()

	cfg := testConfig(t)
	cfg.MerchantAPI.Server = api.URL
	cfg.Tokens.Backend = config.TokenBackendSQLite
	cfg.Tokens.DBPath = filepath.Join(t.TempDir(), "tokens.db")

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	assert.Equal(t, []string{"echo", "verification", "detail"}, handlerNames(c))

	router := c.Server().Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"M1":"tok"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	body := `{"appId":"A1","merchants":{"M1":[{"objectId":"O:ORD123","type":"CREATE","ts":"1000"}]}}`
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case got := <-paths:
		assert.Equal(t, "/v3/merchants/M1/orders/ORD123?access_token=tok", got)
	case <-time.After(2 * time.Second):
		t.Fatal("merchant API was not called")
	}
}

func TestContainer_Close(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Close())
	assert.False(t, c.IsReady())
	assert.NoError(t, c.Close(), "second close is a no-op")
	assert.Error(t, c.Start(context.Background()))
}
