package abstractions

// RequestOptionKey identifies the pipeline stage an option is meant for.
type RequestOptionKey struct {
	Key string
}

// RequestOption is a per-request setting for one middleware stage. Options
// travel with the request so that every stage can find its own by key
// without knowing the option types of the others.
type RequestOption interface {
	GetKey() RequestOptionKey
}

// ResponseHandler takes ownership of the native response. When set, the
// adapter skips its own deserialization and returns the handler's result.
type ResponseHandler func(response any, errorMappings ErrorMappings) (any, error)

// ResponseHandlerOptionKey is the key of ResponseHandlerOption.
var ResponseHandlerOptionKey = RequestOptionKey{Key: "ResponseHandlerOptionKey"}

// ResponseHandlerOption carries a ResponseHandler on a request.
type ResponseHandlerOption struct {
	handler ResponseHandler
}

// NewResponseHandlerOption wraps handler.
func NewResponseHandlerOption(handler ResponseHandler) *ResponseHandlerOption {
	return &ResponseHandlerOption{handler: handler}
}

func (o *ResponseHandlerOption) GetKey() RequestOptionKey { return ResponseHandlerOptionKey }

func (o *ResponseHandlerOption) GetResponseHandler() ResponseHandler { return o.handler }

func (o *ResponseHandlerOption) SetResponseHandler(handler ResponseHandler) {
	o.handler = handler
}
