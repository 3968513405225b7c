package abstractions

import (
	"context"

	"github.com/kbukum/kiotahttp/serialization"
	"github.com/kbukum/kiotahttp/store"
)

// RequestAdapter executes RequestInformation against a service and
// materializes the response.
//
// Every Send variant returns (nil, nil) when the response carries no content.
// Failure statuses surface as the error model selected through errorMappings,
// or as *ApiError when nothing matches.
type RequestAdapter interface {
	Send(ctx context.Context, requestInfo *RequestInformation, constructor serialization.ParsableFactory, errorMappings ErrorMappings) (serialization.Parsable, error)
	SendCollection(ctx context.Context, requestInfo *RequestInformation, constructor serialization.ParsableFactory, errorMappings ErrorMappings) ([]serialization.Parsable, error)
	SendPrimitive(ctx context.Context, requestInfo *RequestInformation, typeName string, errorMappings ErrorMappings) (any, error)
	SendPrimitiveCollection(ctx context.Context, requestInfo *RequestInformation, typeName string, errorMappings ErrorMappings) ([]any, error)
	SendNoContent(ctx context.Context, requestInfo *RequestInformation, errorMappings ErrorMappings) error
	GetSerializationWriterFactory() serialization.SerializationWriterFactory
	EnableBackingStore(factory store.BackingStoreFactory)
	SetBaseUrl(baseUrl string)
	GetBaseUrl() string
	ConvertToNativeRequest(ctx context.Context, requestInfo *RequestInformation) (any, error)
}
