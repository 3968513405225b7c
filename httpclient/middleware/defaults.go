package middleware

// DefaultOptions selects the options of the default handlers. Nil fields use
// each handler's defaults, and a nil Retry leaves retries off.
type DefaultOptions struct {
	UrlReplace        *UrlReplaceHandlerOptions
	UserAgent         *UserAgentHandlerOptions
	HeadersInspection *HeadersInspectionOptions
	Retry             *RetryHandlerOptions
}

// DefaultHandlers returns the standard pipeline: URL replacement, user agent,
// headers inspection and retry, outermost first.
func DefaultHandlers(opts DefaultOptions) []Handler {
	return []Handler{
		NewUrlReplaceHandler(opts.UrlReplace),
		NewUserAgentHandler(opts.UserAgent),
		NewHeadersInspectionHandler(opts.HeadersInspection),
		NewRetryHandler(opts.Retry),
	}
}
