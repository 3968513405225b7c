package abstractions

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yosida95/uritemplate/v3"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/serialization"
)

const (
	// RawUrlKey is the path parameter holding a pre-built URL that bypasses
	// template expansion.
	RawUrlKey = "request-raw-url"
	// BaseUrlKey is the path parameter the adapter fills with its base URL.
	BaseUrlKey = "baseurl"

	contentTypeHeader = "Content-Type"
	binaryContentType = "application/octet-stream"
)

// RequestInformation describes an outgoing call independently of the
// transport: method, RFC 6570 URL template with its parameters, headers,
// body and per-request options.
type RequestInformation struct {
	Method          HttpMethod
	UrlTemplate     string
	PathParameters  map[string]string
	QueryParameters map[string]any
	Headers         *RequestHeaders
	Content         []byte
	options         map[string]RequestOption
}

// NewRequestInformation creates an empty request description.
func NewRequestInformation() *RequestInformation {
	return &RequestInformation{
		PathParameters:  make(map[string]string),
		QueryParameters: make(map[string]any),
		Headers:         NewRequestHeaders(),
		options:         make(map[string]RequestOption),
	}
}

// NewRequestInformationWithMethodAndUrlTemplateAndPathParameters creates a
// request description with its template and a copy of pathParameters.
func NewRequestInformationWithMethodAndUrlTemplateAndPathParameters(method HttpMethod, urlTemplate string, pathParameters map[string]string) *RequestInformation {
	info := NewRequestInformation()
	info.Method = method
	info.UrlTemplate = urlTemplate
	for k, v := range pathParameters {
		info.PathParameters[k] = v
	}
	return info
}

// GetUri returns the raw URL when one was set, otherwise the expansion of the
// URL template.
func (r *RequestInformation) GetUri() (*url.URL, error) {
	if raw, ok := r.PathParameters[RawUrlKey]; ok && raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, errors.InvalidURL(raw, err)
		}
		return u, nil
	}
	if r.UrlTemplate == "" {
		return nil, errors.MissingField("UrlTemplate")
	}
	if strings.Contains(r.UrlTemplate, "{+"+BaseUrlKey+"}") && r.PathParameters[BaseUrlKey] == "" {
		return nil, errors.MissingField("pathParameters[\"" + BaseUrlKey + "\"]")
	}

	tmpl, err := uritemplate.New(r.UrlTemplate)
	if err != nil {
		return nil, errors.InvalidURL(r.UrlTemplate, err)
	}
	values := uritemplate.Values{}
	for k, v := range r.PathParameters {
		values.Set(k, uritemplate.String(v))
	}
	for k, v := range r.QueryParameters {
		if value, ok := templateValue(v); ok {
			values.Set(k, value)
		}
	}
	expanded, err := tmpl.Expand(values)
	if err != nil {
		return nil, errors.InvalidURL(r.UrlTemplate, err)
	}
	u, err := url.Parse(expanded)
	if err != nil {
		return nil, errors.InvalidURL(expanded, err)
	}
	return u, nil
}

func templateValue(v any) (uritemplate.Value, bool) {
	switch t := v.(type) {
	case nil:
		return uritemplate.Value{}, false
	case string:
		return uritemplate.String(t), true
	case *string:
		if t == nil {
			return uritemplate.Value{}, false
		}
		return uritemplate.String(*t), true
	case bool:
		return uritemplate.String(strconv.FormatBool(t)), true
	case *bool:
		if t == nil {
			return uritemplate.Value{}, false
		}
		return uritemplate.String(strconv.FormatBool(*t)), true
	case []string:
		return uritemplate.List(t...), true
	case time.Time:
		return uritemplate.String(t.Format(time.RFC3339)), true
	case uuid.UUID:
		return uritemplate.String(t.String()), true
	case fmt.Stringer:
		return uritemplate.String(t.String()), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return uritemplate.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice {
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, fmt.Sprint(rv.Index(i).Interface()))
		}
		return uritemplate.List(items...), true
	}
	return uritemplate.String(fmt.Sprint(rv.Interface())), true
}

// SetUri sets a pre-built URL. Template and parameters are cleared.
func (r *RequestInformation) SetUri(u url.URL) {
	r.UrlTemplate = ""
	r.PathParameters = map[string]string{RawUrlKey: u.String()}
	r.QueryParameters = make(map[string]any)
}

// AddQueryParameters copies the fields of a query parameter struct into
// QueryParameters. Fields are named by their `uriparametername` tag; nil
// pointers are skipped.
func (r *RequestInformation) AddQueryParameters(source any) {
	if source == nil {
		return
	}
	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	if r.QueryParameters == nil {
		r.QueryParameters = make(map[string]any)
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("uriparametername")
		if name == "" {
			name = field.Name
		}
		value := rv.Field(i)
		switch value.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			if value.IsNil() {
				continue
			}
		}
		r.QueryParameters[name] = value.Interface()
	}
}

// AddRequestOptions attaches options, replacing any with the same key.
func (r *RequestInformation) AddRequestOptions(options []RequestOption) {
	if r.options == nil {
		r.options = make(map[string]RequestOption)
	}
	for _, o := range options {
		if o == nil {
			continue
		}
		r.options[o.GetKey().Key] = o
	}
}

// RemoveRequestOptions detaches the options with the given keys.
func (r *RequestInformation) RemoveRequestOptions(keys ...RequestOptionKey) {
	for _, k := range keys {
		delete(r.options, k.Key)
	}
}

// GetRequestOptions returns the attached options.
func (r *RequestInformation) GetRequestOptions() []RequestOption {
	out := make([]RequestOption, 0, len(r.options))
	for _, o := range r.options {
		out = append(out, o)
	}
	return out
}

// GetRequestOption returns the option attached under key, or nil.
func (r *RequestInformation) GetRequestOption(key RequestOptionKey) RequestOption {
	return r.options[key.Key]
}

// SetStreamContent sets a binary body.
func (r *RequestInformation) SetStreamContent(content []byte) {
	r.Content = content
	r.setContentType(binaryContentType)
}

func (r *RequestInformation) setContentType(contentType string) {
	if r.Headers == nil {
		r.Headers = NewRequestHeaders()
	}
	r.Headers.Remove(contentTypeHeader)
	r.Headers.Add(contentTypeHeader, contentType)
}

func (r *RequestInformation) writer(adapter RequestAdapter, contentType string) (serialization.SerializationWriter, error) {
	if adapter == nil {
		return nil, errors.MissingField("requestAdapter")
	}
	if contentType == "" {
		return nil, errors.MissingField("contentType")
	}
	factory := adapter.GetSerializationWriterFactory()
	if factory == nil {
		return nil, errors.MissingField("serializationWriterFactory")
	}
	return factory.GetSerializationWriter(contentType)
}

// SetContentFromParsable serializes item as the request body.
func (r *RequestInformation) SetContentFromParsable(ctx context.Context, adapter RequestAdapter, contentType string, item serialization.Parsable) error {
	w, err := r.writer(adapter, contentType)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.WriteObjectValue("", item); err != nil {
		return err
	}
	return r.setContentFrom(w, contentType)
}

// SetContentFromParsableCollection serializes items as the request body.
func (r *RequestInformation) SetContentFromParsableCollection(ctx context.Context, adapter RequestAdapter, contentType string, items []serialization.Parsable) error {
	w, err := r.writer(adapter, contentType)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.WriteCollectionOfObjectValues("", items); err != nil {
		return err
	}
	return r.setContentFrom(w, contentType)
}

func (r *RequestInformation) setContentFrom(w serialization.SerializationWriter, contentType string) error {
	content, err := w.GetSerializedContent()
	if err != nil {
		return err
	}
	r.Content = content
	r.setContentType(contentType)
	return nil
}
