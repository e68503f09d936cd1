package xapi

import (
	"net/http"
	"net/url"

	"github.com/mudler/x-mcp/internal/oauth"
)

// Authorizer attaches credentials to an outbound request. params are the
// request parameters that take part in signing.
type Authorizer interface {
	Authorize(req *http.Request, params url.Values) error
	// UserContext reports whether requests act on behalf of a user.
	UserContext() bool
	Mode() string
}

// OAuth1Authorizer signs every request with OAuth 1.0a.
type OAuth1Authorizer struct {
	signer *oauth.Signer
}

func NewOAuth1Authorizer(signer *oauth.Signer) *OAuth1Authorizer {
	return &OAuth1Authorizer{signer: signer}
}

func (a *OAuth1Authorizer) Authorize(req *http.Request, params url.Values) error {
	baseURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.EscapedPath()
	signed, err := a.signer.Sign(req.Method, baseURL, params)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", signed.AuthorizationHeader())
	return nil
}

func (a *OAuth1Authorizer) UserContext() bool { return true }

func (a *OAuth1Authorizer) Mode() string { return "oauth1" }

// BearerAuthorizer adds an app-only bearer token. It can only read.
type BearerAuthorizer struct {
	token string
}

func NewBearerAuthorizer(token string) *BearerAuthorizer {
	return &BearerAuthorizer{token: token}
}

func (b *BearerAuthorizer) Authorize(req *http.Request, _ url.Values) error {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return nil
}

func (b *BearerAuthorizer) UserContext() bool { return false }

func (b *BearerAuthorizer) Mode() string { return "bearer" }
