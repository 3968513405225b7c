package authentication

import (
	"context"
	"encoding/base64"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/errors"
)

// KeyLocation says where an API key is placed.
type KeyLocation int

const (
	// HeaderParameter sends the key as a request header.
	HeaderParameter KeyLocation = iota
	// QueryParameter sends the key as a query string parameter.
	QueryParameter
)

// ApiKeyAuthenticationProvider sends a static API key to allowed hosts.
type ApiKeyAuthenticationProvider struct {
	key       string
	name      string
	location  KeyLocation
	validator *AllowedHostsValidator
}

// NewApiKeyAuthenticationProvider creates a provider that sends key under
// name in the given location.
func NewApiKeyAuthenticationProvider(key, name string, location KeyLocation, allowedHosts []string) (*ApiKeyAuthenticationProvider, error) {
	if key == "" {
		return nil, errors.MissingField("apiKey")
	}
	if name == "" {
		return nil, errors.MissingField("parameterName")
	}
	if location != HeaderParameter && location != QueryParameter {
		return nil, errors.InvalidInput("keyLocation", "unknown key location")
	}
	v, err := NewAllowedHostsValidator(allowedHosts)
	if err != nil {
		return nil, err
	}
	return &ApiKeyAuthenticationProvider{key: key, name: name, location: location, validator: v}, nil
}

// AuthenticateRequest adds the key when the request URL is allowed.
func (p *ApiKeyAuthenticationProvider) AuthenticateRequest(_ context.Context, request *abs.RequestInformation, _ map[string]any) error {
	if request == nil {
		return errors.MissingField("request")
	}
	uri, err := request.GetUri()
	if err != nil {
		return err
	}
	if !p.validator.IsUrlHostValid(uri) {
		return nil
	}
	switch p.location {
	case QueryParameter:
		q := uri.Query()
		q.Set(p.name, p.key)
		uri.RawQuery = q.Encode()
		request.SetUri(*uri)
	default:
		if request.Headers == nil {
			request.Headers = abs.NewRequestHeaders()
		}
		request.Headers.Remove(p.name)
		request.Headers.Add(p.name, p.key)
	}
	return nil
}

// BasicAuthenticationProvider sends HTTP basic credentials to allowed hosts.
type BasicAuthenticationProvider struct {
	username  string
	password  string
	validator *AllowedHostsValidator
}

// NewBasicAuthenticationProvider creates a basic auth provider.
func NewBasicAuthenticationProvider(username, password string, allowedHosts []string) (*BasicAuthenticationProvider, error) {
	if username == "" {
		return nil, errors.MissingField("username")
	}
	v, err := NewAllowedHostsValidator(allowedHosts)
	if err != nil {
		return nil, err
	}
	return &BasicAuthenticationProvider{username: username, password: password, validator: v}, nil
}

// AuthenticateRequest sets the Authorization header unless one is present.
func (p *BasicAuthenticationProvider) AuthenticateRequest(_ context.Context, request *abs.RequestInformation, _ map[string]any) error {
	if request == nil {
		return errors.MissingField("request")
	}
	if request.Headers == nil {
		request.Headers = abs.NewRequestHeaders()
	}
	if request.Headers.ContainsKey(authorizationHeader) {
		return nil
	}
	uri, err := request.GetUri()
	if err != nil {
		return err
	}
	if !p.validator.IsUrlHostValid(uri) {
		return nil
	}
	creds := base64.StdEncoding.EncodeToString([]byte(p.username + ":" + p.password))
	request.Headers.Add(authorizationHeader, "Basic "+creds)
	return nil
}
