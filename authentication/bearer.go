package authentication

import (
	"context"
	"net/url"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/errors"
)

// AccessTokenProvider obtains a token for a request URL.
type AccessTokenProvider interface {
	GetAuthorizationToken(ctx context.Context, uri *url.URL, additionalAuthenticationContext map[string]any) (string, error)
	GetAllowedHostsValidator() *AllowedHostsValidator
}

// BaseBearerTokenAuthenticationProvider sets "Authorization: Bearer <token>"
// using an AccessTokenProvider.
type BaseBearerTokenAuthenticationProvider struct {
	accessTokenProvider AccessTokenProvider
}

// NewBaseBearerTokenAuthenticationProvider wraps accessTokenProvider.
func NewBaseBearerTokenAuthenticationProvider(accessTokenProvider AccessTokenProvider) *BaseBearerTokenAuthenticationProvider {
	return &BaseBearerTokenAuthenticationProvider{accessTokenProvider: accessTokenProvider}
}

// AuthenticateRequest keeps an existing Authorization header unless a claims
// challenge is present, in which case a new token is requested.
func (p *BaseBearerTokenAuthenticationProvider) AuthenticateRequest(ctx context.Context, request *abs.RequestInformation, additionalAuthenticationContext map[string]any) error {
	if request == nil {
		return errors.MissingField("request")
	}
	if p.accessTokenProvider == nil {
		return errors.MissingField("accessTokenProvider")
	}
	if request.Headers == nil {
		request.Headers = abs.NewRequestHeaders()
	}
	if _, ok := additionalAuthenticationContext[ClaimsKey]; ok {
		request.Headers.Remove(authorizationHeader)
	}
	if request.Headers.ContainsKey(authorizationHeader) {
		return nil
	}

	uri, err := request.GetUri()
	if err != nil {
		return err
	}
	token, err := p.accessTokenProvider.GetAuthorizationToken(ctx, uri, additionalAuthenticationContext)
	if err != nil {
		return err
	}
	if token != "" {
		request.Headers.Add(authorizationHeader, "Bearer "+token)
	}
	return nil
}

// GetAuthorizationTokenProvider returns the wrapped token provider.
func (p *BaseBearerTokenAuthenticationProvider) GetAuthorizationTokenProvider() AccessTokenProvider {
	return p.accessTokenProvider
}

// StaticAccessTokenProvider returns a fixed token for allowed hosts.
type StaticAccessTokenProvider struct {
	token     string
	validator *AllowedHostsValidator
}

// NewStaticAccessTokenProvider creates a provider for token restricted to
// allowedHosts.
func NewStaticAccessTokenProvider(token string, allowedHosts []string) (*StaticAccessTokenProvider, error) {
	if token == "" {
		return nil, errors.MissingField("token")
	}
	v, err := NewAllowedHostsValidator(allowedHosts)
	if err != nil {
		return nil, err
	}
	return &StaticAccessTokenProvider{token: token, validator: v}, nil
}

// GetAuthorizationToken returns the token, or "" for hosts that are not allowed.
func (p *StaticAccessTokenProvider) GetAuthorizationToken(_ context.Context, uri *url.URL, _ map[string]any) (string, error) {
	if !p.validator.IsUrlHostValid(uri) {
		return "", nil
	}
	return p.token, nil
}

func (p *StaticAccessTokenProvider) GetAllowedHostsValidator() *AllowedHostsValidator {
	return p.validator
}
