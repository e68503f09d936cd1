// Package oauth signs outbound X API requests with OAuth 1.0a (HMAC-SHA1).
//
// The signing routine is a pure function of its inputs: Sign takes the nonce
// and timestamp explicitly, and Signer only adds an injected clock and nonce
// generator on top of it.
package oauth

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"

	paramConsumerKey     = "oauth_consumer_key"
	paramNonce           = "oauth_nonce"
	paramSignature       = "oauth_signature"
	paramSignatureMethod = "oauth_signature_method"
	paramTimestamp       = "oauth_timestamp"
	paramToken           = "oauth_token"
	paramVersion         = "oauth_version"
)

// Credentials holds the four OAuth 1.0a secrets. It is built once at startup
// and never mutated.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Missing returns the names of the empty credential fields.
func (c Credentials) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"consumer_key", c.ConsumerKey},
		{"consumer_secret", c.ConsumerSecret},
		{"access_token", c.AccessToken},
		{"access_token_secret", c.AccessTokenSecret},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Complete reports whether every credential is set.
func (c Credentials) Complete() bool {
	return len(c.Missing()) == 0
}

// SigningError is returned when a request cannot be signed because a
// credential is empty.
type SigningError struct {
	Missing []string
}

func (e *SigningError) Error() string {
	return "oauth1: cannot sign request, empty credentials: " + strings.Join(e.Missing, ", ")
}

// SignedRequest is the result of signing a single outbound call. It is built
// fresh for every request and must not be reused.
type SignedRequest struct {
	Method      string
	BaseURL     string
	QueryParams url.Values
	OAuthParams map[string]string
	Signature   string
}

// AuthorizationHeader renders the value of the Authorization header: every
// oauth_* parameter, percent-encoded, double-quoted and sorted by key.
func (r *SignedRequest) AuthorizationHeader() string {
	keys := make([]string, 0, len(r.OAuthParams))
	for k := range r.OAuthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf(`%s="%s"`, PercentEncode(k), PercentEncode(r.OAuthParams[k])))
	}
	return "OAuth " + strings.Join(pairs, ", ")
}

// Signer signs requests with a fixed set of credentials.
type Signer struct {
	creds  Credentials
	noncer oauth1.Noncer
	now    func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithNoncer replaces the nonce generator.
func WithNoncer(n oauth1.Noncer) Option {
	return func(s *Signer) {
		s.noncer = n
	}
}

// WithClock replaces the clock used for oauth_timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner returns a Signer for creds. Empty credentials are rejected here so
// the error surfaces at startup rather than on the first call.
func NewSigner(creds Credentials, opts ...Option) (*Signer, error) {
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, &SigningError{Missing: missing}
	}
	s := &Signer{
		creds:  creds,
		noncer: AlphanumericNoncer{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign signs a request with a fresh nonce and the current time.
func (s *Signer) Sign(method, rawURL string, params url.Values) (*SignedRequest, error) {
	return Sign(s.creds, method, rawURL, params, s.noncer.Nonce(), strconv.FormatInt(s.now().Unix(), 10))
}

// Sign computes the OAuth 1.0a signature of a request. params holds the query
// parameters of a GET or the form parameters of a POST; any query string on
// rawURL is merged into them. The result is deterministic for fixed inputs.
func Sign(creds Credentials, method, rawURL string, params url.Values, nonce, timestamp string) (*SignedRequest, error) {
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, &SigningError{Missing: missing}
	}
	baseURL, urlQuery, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, vs := range urlQuery {
		query[k] = append(query[k], vs...)
	}
	for k, vs := range params {
		query[k] = append(query[k], vs...)
	}

	oauthParams := map[string]string{
		paramConsumerKey:     creds.ConsumerKey,
		paramNonce:           nonce,
		paramSignatureMethod: SignatureMethod,
		paramTimestamp:       timestamp,
		paramToken:           creds.AccessToken,
		paramVersion:         Version,
	}

	all := url.Values{}
	for k, vs := range query {
		all[k] = append(all[k], vs...)
	}
	for k, v := range oauthParams {
		all.Add(k, v)
	}

	signer := &oauth1.HMACSigner{ConsumerSecret: creds.ConsumerSecret}
	signature, err := signer.Sign(creds.AccessTokenSecret, SignatureBase(method, baseURL, all))
	if err != nil {
		return nil, fmt.Errorf("oauth1: sign: %w", err)
	}
	oauthParams[paramSignature] = signature

	return &SignedRequest{
		Method:      strings.ToUpper(method),
		BaseURL:     baseURL,
		QueryParams: query,
		OAuthParams: oauthParams,
		Signature:   signature,
	}, nil
}

// SignatureBase builds METHOD&encode(baseURL)&encode(parameter string).
func SignatureBase(method, baseURL string, params url.Values) string {
	return strings.Join([]string{
		strings.ToUpper(method),
		PercentEncode(baseURL),
		PercentEncode(ParameterString(params)),
	}, "&")
}

// ParameterString encodes every key and value, sorts the pairs by encoded key
// and then encoded value, and joins them with '&'.
func ParameterString(params url.Values) string {
	type pair struct{ key, value string }
	pairs := make([]pair, 0, len(params))
	for k, vs := range params {
		ek := PercentEncode(k)
		for _, v := range vs {
			pairs = append(pairs, pair{ek, PercentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p.key + "=" + p.value
	}
	return strings.Join(encoded, "&")
}

// PercentEncode escapes everything outside the RFC 3986 unreserved set.
// Space becomes %20, never '+'.
func PercentEncode(s string) string {
	return oauth1.PercentEncode(s)
}

// normalizeURL lower-cases scheme and host, drops default ports and splits off
// the query string and fragment.
func normalizeURL(rawURL string) (string, url.Values, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("oauth1: parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", nil, fmt.Errorf("oauth1: url %q must be absolute", rawURL)
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if h, port, err := net.SplitHostPort(host); err == nil {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			host = h
			if strings.Contains(h, ":") {
				host = "[" + h + "]"
			}
		}
	}
	return scheme + "://" + host + u.EscapedPath(), u.Query(), nil
}
