package lark

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// TenantAccessTokenRequest obtains a tenant access token for a self-built app
type TenantAccessTokenRequest struct {
	Endpoint[TenantAccessToken] `request:"POST, '/open-apis/auth/v3/tenant_access_token/internal', TenantAccessToken, flatten"`

	AppID     string `json:"app_id" validate:"required"`
	AppSecret string `json:"app_secret" validate:"required"`
}

// TenantAccessToken is the flattened payload of TenantAccessTokenRequest
type TenantAccessToken struct {
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"` // seconds
}

// tokenRefreshMargin renews tokens before Lark expires them
const tokenRefreshMargin = 5 * time.Minute

type tenantTokenSource struct {
	client    *Client
	appID     string
	appSecret string
}

// NewTenantTokenSource returns a cached token source fetching tenant access
// tokens through c. The source calls Lark with a copy of c that carries no
// token source of its own.
func NewTenantTokenSource(c *Client, appID, appSecret string) oauth2.TokenSource {
	src := &tenantTokenSource{
		client:    c.With(WithTokenSource(nil)),
		appID:     appID,
		appSecret: appSecret,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, tokenRefreshMargin)
}

// Token fetches a fresh token bounded by the client timeout. oauth2 token
// sources take no context; callers stop waiting through Client.token.
func (s *tenantTokenSource) Token() (*oauth2.Token, error) {
	timeout := s.client.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tok, err := Call[TenantAccessToken](ctx, s.client, &TenantAccessTokenRequest{
		AppID:     s.appID,
		AppSecret: s.appSecret,
	})
	if err != nil {
		return nil, err
	}
	if tok.TenantAccessToken == "" {
		return nil, errMissingData()
	}

	return &oauth2.Token{
		AccessToken: tok.TenantAccessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Duration(tok.Expire) * time.Second),
	}, nil
}
