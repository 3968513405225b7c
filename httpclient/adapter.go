package httpclient

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	abs "github.com/kbukum/kiotahttp/abstractions"
	"github.com/kbukum/kiotahttp/authentication"
	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/httpclient/middleware"
	"github.com/kbukum/kiotahttp/logger"
	"github.com/kbukum/kiotahttp/observability"
	"github.com/kbukum/kiotahttp/serialization"
	"github.com/kbukum/kiotahttp/store"
)

// ByteArrayType is the SendPrimitive type name returning the raw body.
const ByteArrayType = "[]byte"

const (
	authenticateHeader = "WWW-Authenticate"
	contentTypeHeader  = "Content-Type"
)

var claimsPattern = regexp.MustCompile(`claims="([^"]*)"`)

// RequestAdapter sends RequestInformation through an *http.Client and
// deserializes responses with the configured parse node factory.
//
// It is safe for concurrent use. Configuration is read-only during a call
// and the base URL is guarded.
type RequestAdapter struct {
	client   *http.Client
	auth     authentication.AuthenticationProvider
	obs      *observability.Options
	log      *logger.Logger
	ownsHTTP bool

	mu                         sync.RWMutex
	baseURL                    string
	parseNodeFactory           serialization.ParseNodeFactory
	serializationWriterFactory serialization.SerializationWriterFactory
	backingStore               bool
}

var _ abs.RequestAdapter = (*RequestAdapter)(nil)

// Option configures a RequestAdapter.
type Option func(*RequestAdapter)

// WithHTTPClient sends through client instead of NewDefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(a *RequestAdapter) { a.client = client }
}

// WithParseNodeFactory overrides the default parse node registry.
func WithParseNodeFactory(f serialization.ParseNodeFactory) Option {
	return func(a *RequestAdapter) { a.parseNodeFactory = f }
}

// WithSerializationWriterFactory overrides the default writer registry.
func WithSerializationWriterFactory(f serialization.SerializationWriterFactory) Option {
	return func(a *RequestAdapter) { a.serializationWriterFactory = f }
}

// WithObservability sets the tracing and metrics options.
func WithObservability(opts *observability.Options) Option {
	return func(a *RequestAdapter) { a.obs = opts }
}

// WithLogger sets the adapter logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *RequestAdapter) { a.log = l }
}

// WithBaseURL sets the initial base URL.
func WithBaseURL(baseURL string) Option {
	return func(a *RequestAdapter) { a.SetBaseUrl(baseURL) }
}

// NewRequestAdapter creates an adapter authenticating with auth. Parse node
// and writer factories default to the shared registries.
func NewRequestAdapter(auth authentication.AuthenticationProvider, opts ...Option) (*RequestAdapter, error) {
	if auth == nil {
		return nil, errors.MissingField("authenticationProvider")
	}
	a := &RequestAdapter{
		auth:                       auth,
		obs:                        &observability.Options{},
		parseNodeFactory:           serialization.DefaultParseNodeFactoryInstance,
		serializationWriterFactory: serialization.DefaultSerializationWriterFactoryInstance,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = NewDefaultClient()
		a.ownsHTTP = true
	}
	if a.log == nil {
		a.log = logger.Nop()
	}
	if a.obs == nil {
		a.obs = &observability.Options{}
	}
	if a.parseNodeFactory == nil {
		return nil, errors.MissingField("parseNodeFactory")
	}
	if a.serializationWriterFactory == nil {
		return nil, errors.MissingField("serializationWriterFactory")
	}
	a.log = a.log.WithComponent("request-adapter")
	return a, nil
}

// HTTPClient returns the underlying client.
func (a *RequestAdapter) HTTPClient() *http.Client {
	return a.client
}

// GetSerializationWriterFactory returns the writer factory.
func (a *RequestAdapter) GetSerializationWriterFactory() serialization.SerializationWriterFactory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.serializationWriterFactory
}

func (a *RequestAdapter) getParseNodeFactory() serialization.ParseNodeFactory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.parseNodeFactory
}

// EnableBackingStore wraps both factories so backed models track changes.
// Repeated calls wrap only once. A non-nil factory becomes the process-wide
// default returned by store.NewBackingStore.
func (a *RequestAdapter) EnableBackingStore(factory store.BackingStoreFactory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.backingStore {
		a.parseNodeFactory = store.NewBackingStoreParseNodeFactory(a.parseNodeFactory)
		a.serializationWriterFactory = store.NewBackingStoreSerializationWriterProxyFactory(a.serializationWriterFactory)
		a.backingStore = true
	}
	if factory != nil {
		store.SetDefaultBackingStoreFactory(factory)
	}
}

// SetBaseUrl sets the base URL. A trailing slash is dropped.
func (a *RequestAdapter) SetBaseUrl(baseURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.baseURL = strings.TrimSuffix(baseURL, "/")
}

// GetBaseUrl returns the base URL.
func (a *RequestAdapter) GetBaseUrl() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.baseURL
}

// SetBaseUrlForRequestInformation fills the base URL path parameter unless
// the request already carries one.
func (a *RequestAdapter) SetBaseUrlForRequestInformation(info *abs.RequestInformation) {
	if info.PathParameters == nil {
		info.PathParameters = make(map[string]string)
	}
	if info.PathParameters[abs.BaseUrlKey] == "" {
		info.PathParameters[abs.BaseUrlKey] = a.GetBaseUrl()
	}
}

func (a *RequestAdapter) tracer() trace.Tracer {
	return a.obs.Tracer()
}

// operation tracks one Send call for tracing and metrics.
type operation struct {
	name   string
	method string
	start  time.Time
	status int
	span   trace.Span
}

func (a *RequestAdapter) begin(ctx context.Context, info *abs.RequestInformation, name string) (context.Context, *operation) {
	ctx, span := a.tracer().Start(ctx, name)
	op := &operation{name: name, start: time.Now(), span: span}
	if info != nil {
		op.method = info.Method.String()
		span.SetAttributes(
			attribute.String(observability.AttrHTTPMethod, op.method),
			attribute.String(observability.AttrURLUriTemplate, info.UrlTemplate),
		)
	}
	if m := a.obs.Metrics; m != nil {
		m.RecordRequestStart(ctx)
	}
	return ctx, op
}

func (a *RequestAdapter) end(ctx context.Context, op *operation, err error) {
	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		a.log.Debug("send failed", logger.Fields(
			logger.FieldOperation, op.name,
			logger.FieldMethod, op.method,
			logger.FieldStatusCode, op.status,
			logger.FieldError, err.Error(),
		))
	}
	if m := a.obs.Metrics; m != nil {
		m.RecordRequestEnd(ctx, op.name, op.method, op.status, time.Since(op.start))
		if err != nil {
			m.RecordError(ctx, op.name, errorKind(err))
		}
	}
	op.span.End()
}

func errorKind(err error) string {
	var apiErr abs.ApiErrorable
	switch {
	case stderrors.As(err, &apiErr):
		return "api"
	case errors.IsAppError(err):
		return "config"
	default:
		return "transport"
	}
}

// exchange is the outcome of sending a request. When handled is true a
// ResponseHandler consumed the response and result holds its value.
type exchange struct {
	resp    *http.Response
	body    []byte
	handled bool
	result  any
}

// noContent reports whether the response carries no payload.
func (x *exchange) noContent() bool {
	return x.resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(x.body)) == 0
}

// roundTrip sends info, hands the response to a ResponseHandler when one is
// attached, and otherwise reads the body and raises failure statuses.
func (a *RequestAdapter) roundTrip(ctx context.Context, info *abs.RequestInformation, mappings abs.ErrorMappings, op *operation) (*exchange, error) {
	if info == nil {
		return nil, errors.MissingField("requestInfo")
	}
	resp, err := a.getHTTPResponseMessage(ctx, info, "")
	if err != nil {
		return nil, err
	}
	op.status = resp.StatusCode
	op.span.SetAttributes(attribute.Int(observability.AttrHTTPStatusCode, resp.StatusCode))

	if handler := responseHandler(info); handler != nil {
		op.span.SetAttributes(attribute.Bool(observability.AttrResponseHandler, true))
		result, err := handler(resp, mappings)
		return &exchange{resp: resp, handled: true, result: result}, err
	}

	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := a.throwIfFailedResponse(ctx, resp, body, mappings); err != nil {
		return nil, err
	}
	return &exchange{resp: resp, body: body}, nil
}

func responseHandler(info *abs.RequestInformation) abs.ResponseHandler {
	opt, ok := info.GetRequestOption(abs.ResponseHandlerOptionKey).(*abs.ResponseHandlerOption)
	if !ok || opt == nil {
		return nil
	}
	return opt.GetResponseHandler()
}

// Send returns the object in the response body, or nil when there is none.
func (a *RequestAdapter) Send(ctx context.Context, info *abs.RequestInformation, constructor serialization.ParsableFactory, errorMappings abs.ErrorMappings) (result serialization.Parsable, err error) {
	ctx, op := a.begin(ctx, info, observability.SpanSend)
	defer func() { a.end(ctx, op, err) }()
	if constructor == nil {
		return nil, errors.MissingField("constructor")
	}

	x, err := a.roundTrip(ctx, info, errorMappings, op)
	if err != nil {
		return nil, err
	}
	if x.handled {
		if x.result == nil {
			return nil, nil
		}
		p, ok := x.result.(serialization.Parsable)
		if !ok {
			return nil, errors.InvalidFormat("responseHandler result", "serialization.Parsable")
		}
		return p, nil
	}
	if x.noContent() {
		return nil, nil
	}
	rootNode, err := a.getRootParseNode(ctx, x.resp, x.body)
	if err != nil {
		return nil, err
	}
	return rootNode.GetObjectValue(constructor)
}

// SendCollection returns the objects in the response body in order, or nil
// when there is no content.
func (a *RequestAdapter) SendCollection(ctx context.Context, info *abs.RequestInformation, constructor serialization.ParsableFactory, errorMappings abs.ErrorMappings) (result []serialization.Parsable, err error) {
	ctx, op := a.begin(ctx, info, observability.SpanSendCollection)
	defer func() { a.end(ctx, op, err) }()
	if constructor == nil {
		return nil, errors.MissingField("constructor")
	}

	x, err := a.roundTrip(ctx, info, errorMappings, op)
	if err != nil {
		return nil, err
	}
	if x.handled {
		if x.result == nil {
			return nil, nil
		}
		items, ok := x.result.([]serialization.Parsable)
		if !ok {
			return nil, errors.InvalidFormat("responseHandler result", "[]serialization.Parsable")
		}
		return items, nil
	}
	if x.noContent() {
		return nil, nil
	}
	rootNode, err := a.getRootParseNode(ctx, x.resp, x.body)
	if err != nil {
		return nil, err
	}
	return rootNode.GetCollectionOfObjectValues(constructor)
}

// SendPrimitive returns a pointer to the scalar in the response body, for
// example *float64 for "float64". ByteArrayType returns the raw body.
// Nil is returned when there is no content.
func (a *RequestAdapter) SendPrimitive(ctx context.Context, info *abs.RequestInformation, typeName string, errorMappings abs.ErrorMappings) (result any, err error) {
	ctx, op := a.begin(ctx, info, observability.SpanSendPrimitive)
	defer func() { a.end(ctx, op, err) }()

	x, err := a.roundTrip(ctx, info, errorMappings, op)
	if err != nil {
		return nil, err
	}
	if x.handled {
		return x.result, nil
	}
	if x.noContent() {
		return nil, nil
	}
	if typeName == ByteArrayType {
		return x.body, nil
	}
	rootNode, err := a.getRootParseNode(ctx, x.resp, x.body)
	if err != nil {
		return nil, err
	}
	return primitiveValue(rootNode, typeName)
}

func primitiveValue(node serialization.ParseNode, typeName string) (any, error) {
	switch typeName {
	case "string":
		return nilable(node.GetStringValue())
	case "bool":
		return nilable(node.GetBoolValue())
	case "uint8", "byte":
		return nilable(node.GetByteValue())
	case "int32":
		return nilable(node.GetInt32Value())
	case "int64":
		return nilable(node.GetInt64Value())
	case "float32":
		return nilable(node.GetFloat32Value())
	case "float64":
		return nilable(node.GetFloat64Value())
	case "time", "time.Time":
		return nilable(node.GetTimeValue())
	case "uuid", "uuid.UUID":
		return nilable(node.GetUUIDValue())
	case "base64":
		v, err := node.GetByteArrayValue()
		if err != nil || v == nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, errors.InvalidInput("typeName", "unsupported primitive type "+typeName)
	}
}

// nilable keeps a nil pointer from turning into a non-nil interface.
func nilable[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

// SendPrimitiveCollection returns the scalars in the response body in
// order. Elements are pointers and JSON nulls are nil.
func (a *RequestAdapter) SendPrimitiveCollection(ctx context.Context, info *abs.RequestInformation, typeName string, errorMappings abs.ErrorMappings) (result []any, err error) {
	ctx, op := a.begin(ctx, info, observability.SpanSendPrimitiveCollection)
	defer func() { a.end(ctx, op, err) }()

	x, err := a.roundTrip(ctx, info, errorMappings, op)
	if err != nil {
		return nil, err
	}
	if x.handled {
		if x.result == nil {
			return nil, nil
		}
		items, ok := x.result.([]any)
		if !ok {
			return nil, errors.InvalidFormat("responseHandler result", "[]any")
		}
		return items, nil
	}
	if x.noContent() {
		return nil, nil
	}
	rootNode, err := a.getRootParseNode(ctx, x.resp, x.body)
	if err != nil {
		return nil, err
	}
	return rootNode.GetCollectionOfPrimitiveValues(typeName)
}

// SendNoContent sends the request and only reports failures.
func (a *RequestAdapter) SendNoContent(ctx context.Context, info *abs.RequestInformation, errorMappings abs.ErrorMappings) (err error) {
	ctx, op := a.begin(ctx, info, observability.SpanSendNoContent)
	defer func() { a.end(ctx, op, err) }()

	_, err = a.roundTrip(ctx, info, errorMappings, op)
	return err
}

// ConvertToNativeRequest returns the authenticated *http.Request the adapter
// would send for info.
func (a *RequestAdapter) ConvertToNativeRequest(ctx context.Context, info *abs.RequestInformation) (any, error) {
	if info == nil {
		return nil, errors.MissingField("requestInfo")
	}
	a.SetBaseUrlForRequestInformation(info)
	if err := a.auth.AuthenticateRequest(ctx, info, nil); err != nil {
		return nil, err
	}
	return a.GetRequestFromRequestInformation(ctx, info)
}

// getHTTPResponseMessage authenticates and sends info. A 401 carrying a
// claims challenge is retried once with the claims passed to the
// authentication provider.
func (a *RequestAdapter) getHTTPResponseMessage(ctx context.Context, info *abs.RequestInformation, claims string) (*http.Response, error) {
	ctx, span := a.tracer().Start(ctx, observability.SpanGetHTTPResponseMessage)
	defer span.End()

	a.SetBaseUrlForRequestInformation(info)
	var additional map[string]any
	if claims != "" {
		additional = map[string]any{authentication.ClaimsKey: claims}
	}
	if err := a.auth.AuthenticateRequest(ctx, info, additional); err != nil {
		span.RecordError(err)
		return nil, err
	}

	req, err := a.GetRequestFromRequestInformation(ctx, info)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if stderrors.As(err, &urlErr) && urlErr.Err != nil {
			err = urlErr.Err
		}
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(observability.AttrHTTPStatusCode, resp.StatusCode))
	if resp.Proto != "" {
		span.SetAttributes(attribute.String(observability.AttrNetworkProtocol, resp.Proto))
	}

	if claims == "" && resp.StatusCode == http.StatusUnauthorized {
		if challenge := claimsChallenge(resp.Header); challenge != "" {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return a.getHTTPResponseMessage(ctx, info, challenge)
		}
	}
	return resp, nil
}

// claimsChallenge extracts the claims parameter of a Bearer challenge.
func claimsChallenge(h http.Header) string {
	for _, v := range h.Values(authenticateHeader) {
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "bearer") {
			continue
		}
		if m := claimsPattern.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}

// GetRequestFromRequestInformation builds the native request. Request
// options and the observability options travel in its context.
func (a *RequestAdapter) GetRequestFromRequestInformation(ctx context.Context, info *abs.RequestInformation) (*http.Request, error) {
	u, err := info.GetUri()
	if err != nil {
		return nil, err
	}

	options := map[string]abs.RequestOption{observability.OptionsKey.Key: a.obs}
	for _, opt := range info.GetRequestOptions() {
		options[opt.GetKey().Key] = opt
	}
	ctx = middleware.WithRequestOptions(ctx, options)

	var body io.Reader
	if len(info.Content) > 0 {
		body = bytes.NewReader(info.Content)
	}
	req, err := http.NewRequestWithContext(ctx, info.Method.String(), u.String(), body)
	if err != nil {
		return nil, errors.InvalidURL(u.String(), err)
	}
	if info.Headers != nil {
		for _, key := range info.Headers.ListKeys() {
			for _, v := range info.Headers.Get(key) {
				req.Header.Add(key, v)
			}
		}
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String(observability.AttrURLScheme, u.Scheme),
		attribute.String(observability.AttrServerAddress, u.Hostname()),
		attribute.Int(observability.AttrRequestBodySize, len(info.Content)),
	)
	if a.obs.GetIncludeEUIIAttributes() {
		span.SetAttributes(attribute.String(observability.AttrURLFull, u.String()))
	}
	return req, nil
}

// GetResponseContentType returns the lower-cased media type of resp without
// parameters.
func (a *RequestAdapter) GetResponseContentType(resp *http.Response) string {
	return serialization.CleanContentType(resp.Header.Get(contentTypeHeader))
}

// getRootParseNode selects a parse node for the response content type.
func (a *RequestAdapter) getRootParseNode(ctx context.Context, resp *http.Response, body []byte) (serialization.ParseNode, error) {
	_, span := a.tracer().Start(ctx, observability.SpanGetRootParseNode)
	defer span.End()

	contentType := a.GetResponseContentType(resp)
	if contentType == "" {
		err := errors.MissingField(contentTypeHeader)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String(observability.AttrResponseContentType, contentType))
	node, err := a.getParseNodeFactory().GetRootParseNode(contentType, body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return node, nil
}

// CloseIdleConnections releases idle connections of a client the adapter
// created itself.
func (a *RequestAdapter) CloseIdleConnections() {
	if a.ownsHTTP {
		a.client.CloseIdleConnections()
	}
}
