package port

import (
	"context"
)

// TokenLookup supplies access tokens for REST calls on behalf of a merchant.
// A false result means no usable token is available.
type TokenLookup interface {
	GetAccessToken(ctx context.Context, merchantID string) (string, bool)
}

// TokenStore is a TokenLookup that can also record tokens
type TokenStore interface {
	TokenLookup

	// PutAccessToken stores or replaces the token for a merchant
	PutAccessToken(ctx context.Context, merchantID, token string) error

	// AccessTokens returns every stored merchant token
	AccessTokens(ctx context.Context) (map[string]string, error)
}

// TokenLookupFunc adapts a function to TokenLookup
type TokenLookupFunc func(ctx context.Context, merchantID string) (string, bool)

// GetAccessToken implements TokenLookup
func (f TokenLookupFunc) GetAccessToken(ctx context.Context, merchantID string) (string, bool) {
	return f(ctx, merchantID)
}
