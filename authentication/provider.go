// Package authentication decorates outgoing requests with credentials.
//
// Providers operate on the protocol-agnostic RequestInformation before it is
// converted to a native request, so they work with any request adapter.
// Every provider except the anonymous one consults an AllowedHostsValidator
// so credentials are never sent to a host the caller did not list.
package authentication

import (
	"context"

	abs "github.com/kbukum/kiotahttp/abstractions"
)

// ClaimsKey is the additional context key carrying a claims challenge
// returned by the service. Providers must obtain a fresh credential when it
// is present.
const ClaimsKey = "claims"

const authorizationHeader = "Authorization"

// AuthenticationProvider adds credentials to a request. Implementations may
// perform I/O and must honor ctx.
type AuthenticationProvider interface {
	AuthenticateRequest(ctx context.Context, request *abs.RequestInformation, additionalAuthenticationContext map[string]any) error
}

// AnonymousAuthenticationProvider leaves requests untouched.
type AnonymousAuthenticationProvider struct{}

// AuthenticateRequest does nothing.
func (p *AnonymousAuthenticationProvider) AuthenticateRequest(context.Context, *abs.RequestInformation, map[string]any) error {
	return nil
}
