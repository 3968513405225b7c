package middleware

import (
	"net/http"
	"strings"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/version"
)

// UserAgentHandlerOptionKey is the request option key for
// UserAgentHandlerOptions.
var UserAgentHandlerOptionKey = abs.RequestOptionKey{Key: "UserAgentHandlerOptionKey"}

const (
	userAgentHeader    = "User-Agent"
	defaultProductName = "kiota-go"
)

// UserAgentHandlerOptions configures the product token appended to the
// User-Agent header.
type UserAgentHandlerOptions struct {
	Enabled        bool   `mapstructure:"enabled" json:"enabled"`
	ProductName    string `mapstructure:"product_name" json:"product_name"`
	ProductVersion string `mapstructure:"product_version" json:"product_version"`
}

// NewUserAgentHandlerOptions returns enabled options advertising this
// module's version.
func NewUserAgentHandlerOptions() *UserAgentHandlerOptions {
	return &UserAgentHandlerOptions{
		Enabled:        true,
		ProductName:    defaultProductName,
		ProductVersion: version.ProductVersion(),
	}
}

// GetKey implements abstractions.RequestOption.
func (o *UserAgentHandlerOptions) GetKey() abs.RequestOptionKey {
	return UserAgentHandlerOptionKey
}

func (o *UserAgentHandlerOptions) token() string {
	name := o.ProductName
	if name == "" {
		name = defaultProductName
	}
	if o.ProductVersion == "" {
		return name
	}
	return name + "/" + o.ProductVersion
}

// UserAgentHandler appends a product token to the User-Agent header.
type UserAgentHandler struct {
	options *UserAgentHandlerOptions
}

// NewUserAgentHandler creates the handler. Nil options use
// NewUserAgentHandlerOptions.
func NewUserAgentHandler(options *UserAgentHandlerOptions) *UserAgentHandler {
	if options == nil {
		options = NewUserAgentHandlerOptions()
	}
	return &UserAgentHandler{options: options}
}

// Intercept adds the token unless it is already present.
func (h *UserAgentHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	opts := h.options
	if o, ok := RequestOptionFrom(req, UserAgentHandlerOptionKey).(*UserAgentHandlerOptions); ok && o != nil {
		opts = o
	}
	if !opts.Enabled {
		return pipeline.Next(req, middlewareIndex)
	}

	token := opts.token()
	current := req.Header.Get(userAgentHeader)
	if strings.Contains(current, token) {
		return pipeline.Next(req, middlewareIndex)
	}

	out := req.Clone(req.Context())
	if current == "" {
		out.Header.Set(userAgentHeader, token)
	} else {
		out.Header.Set(userAgentHeader, current+" "+token)
	}
	return pipeline.Next(out, middlewareIndex)
}
