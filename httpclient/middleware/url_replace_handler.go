package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/observability"
)

// UrlReplaceHandlerOptionKey is the request option key for
// UrlReplaceHandlerOptions.
var UrlReplaceHandlerOptionKey = abs.RequestOptionKey{Key: "UrlReplaceHandlerOptionKey"}

// ReplacementPair replaces the first occurrence of Search with Replacement.
type ReplacementPair struct {
	Search      string `mapstructure:"search" json:"search" validate:"required"`
	Replacement string `mapstructure:"replacement" json:"replacement"`
}

// ReplacementPairs is applied in order. Order matters when pairs overlap,
// e.g. when one replacement produces text another pair searches for.
type ReplacementPairs []ReplacementPair

// Set updates the replacement for search in place, or appends a new pair.
func (p *ReplacementPairs) Set(search, replacement string) {
	for i := range *p {
		if (*p)[i].Search == search {
			(*p)[i].Replacement = replacement
			return
		}
	}
	*p = append(*p, ReplacementPair{Search: search, Replacement: replacement})
}

// UrlReplaceHandlerOptions configures URL segment replacement.
type UrlReplaceHandlerOptions struct {
	Enabled          bool             `mapstructure:"enabled" json:"enabled"`
	ReplacementPairs ReplacementPairs `mapstructure:"pairs" json:"pairs" validate:"dive"`
}

// NewUrlReplaceHandlerOptions creates options with pairs in the given order.
func NewUrlReplaceHandlerOptions(enabled bool, pairs ...ReplacementPair) *UrlReplaceHandlerOptions {
	return &UrlReplaceHandlerOptions{Enabled: enabled, ReplacementPairs: pairs}
}

// GetKey implements abstractions.RequestOption.
func (o *UrlReplaceHandlerOptions) GetKey() abs.RequestOptionKey {
	return UrlReplaceHandlerOptionKey
}

// IsEnabled reports whether replacement applies.
func (o *UrlReplaceHandlerOptions) IsEnabled() bool {
	return o != nil && o.Enabled
}

// GetReplacementPairs returns the pairs in application order.
func (o *UrlReplaceHandlerOptions) GetReplacementPairs() ReplacementPairs {
	if o == nil {
		return nil
	}
	return o.ReplacementPairs
}

// UrlReplaceHandler rewrites fixed segments of the request URL, for example
// "/users/me-token-to-replace" to "/me".
type UrlReplaceHandler struct {
	options *UrlReplaceHandlerOptions
}

// NewUrlReplaceHandler creates a handler with default options. Nil options
// leave URLs untouched unless a request carries its own.
func NewUrlReplaceHandler(options *UrlReplaceHandlerOptions) *UrlReplaceHandler {
	return &UrlReplaceHandler{options: options}
}

func (h *UrlReplaceHandler) effectiveOptions(req *http.Request) *UrlReplaceHandlerOptions {
	if o, ok := RequestOptionFrom(req, UrlReplaceHandlerOptionKey).(*UrlReplaceHandlerOptions); ok && o != nil {
		return o
	}
	return h.options
}

// Intercept rewrites the URL and continues the pipeline. A rewritten URL that
// does not parse is returned as an error and the request is not sent.
func (h *UrlReplaceHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	opts := h.effectiveOptions(req)
	if !opts.IsEnabled() || len(opts.GetReplacementPairs()) == 0 {
		return pipeline.Next(req, middlewareIndex)
	}

	ctx, span := tracerFor(req).Start(req.Context(), observability.SpanURLReplaceHandler)
	span.SetAttributes(attribute.Bool(observability.AttrUrlReplaceEnabled, true))
	defer span.End()

	rewritten := ReplaceURLSegment(req.URL.String(), opts)
	u, err := url.Parse(rewritten)
	if err != nil {
		appErr := errors.InvalidURL(rewritten, err)
		span.RecordError(appErr)
		return nil, appErr
	}

	out := req.Clone(ctx)
	out.URL = u
	out.Host = u.Host
	return pipeline.Next(out, middlewareIndex)
}

// ReplaceURLSegment applies opts to rawURL. Each pair replaces at most its
// first occurrence, pairs are applied in order, and disabled or empty
// options return rawURL unchanged.
func ReplaceURLSegment(rawURL string, opts *UrlReplaceHandlerOptions) string {
	if !opts.IsEnabled() {
		return rawURL
	}
	for _, pair := range opts.GetReplacementPairs() {
		if pair.Search == "" {
			continue
		}
		rawURL = strings.Replace(rawURL, pair.Search, pair.Replacement, 1)
	}
	return rawURL
}

// tracerFor returns the tracer configured for req, or the global one.
func tracerFor(req *http.Request) trace.Tracer {
	opts, _ := RequestOptionFrom(req, observability.OptionsKey).(*observability.Options)
	return opts.Tracer()
}
