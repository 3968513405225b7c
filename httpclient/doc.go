// Package httpclient sends protocol-agnostic requests over HTTP.
//
// RequestAdapter turns an abstractions.RequestInformation into an
// *http.Request, authenticates it, sends it through the middleware pipeline
// and deserializes the response with the parse node factory registered for
// its content type. Failure statuses are mapped to error models through the
// per-call ErrorMappings.
//
// # Basic Usage
//
//	jsonserialization.Register()
//	adapter, err := httpclient.NewRequestAdapter(
//	    &authentication.AnonymousAuthenticationProvider{},
//	    httpclient.WithBaseURL("https://api.example.com"),
//	)
//
//	info := abstractions.NewRequestInformationWithMethodAndUrlTemplateAndPathParameters(
//	    abstractions.GET, "{+baseurl}/users/{id}", map[string]string{"id": "42"})
//	user, err := adapter.Send(ctx, info, NewUserFromParseNode, abstractions.ErrorMappings{
//	    "4XX": NewODataErrorFromParseNode,
//	})
//
// # Managed Client
//
// NewClient builds the *http.Client from Config, including TLS, retry,
// rate limiting and URL replacement; Component wraps the adapter for
// lifecycle managed applications.
package httpclient
