// Package serialization defines the codec contracts the request adapter
// consumes: parse nodes that materialize response payloads into models and
// primitives, serialization writers that encode request bodies, and the
// content-type keyed registries that select a codec for a payload.
package serialization

import (
	"time"

	"github.com/google/uuid"
)

// Parsable is implemented by every model that can be read from a parse node
// and written to a serialization writer.
type Parsable interface {
	// Serialize writes the model's fields to the writer.
	Serialize(writer SerializationWriter) error
	// GetFieldDeserializers returns one deserializer per wire field name.
	GetFieldDeserializers() map[string]func(ParseNode) error
}

// ParsableFactory creates a model instance for the given node. Factories may
// inspect the node (e.g. a discriminator) to pick a concrete type.
type ParsableFactory func(parseNode ParseNode) (Parsable, error)

// ParsableAction is a hook invoked around (de)serialization of a model.
type ParsableAction func(Parsable) error

// ParsableWriter is a hook invoked with the writer when an object starts.
type ParsableWriter func(Parsable, SerializationWriter) error

// AdditionalDataHolder is implemented by models that keep wire fields they
// have no deserializer for.
type AdditionalDataHolder interface {
	GetAdditionalData() map[string]any
	SetAdditionalData(value map[string]any)
}

// ParseNode is a cursor over a decoded payload.
type ParseNode interface {
	GetChildNode(index string) (ParseNode, error)
	GetObjectValue(ctor ParsableFactory) (Parsable, error)
	GetCollectionOfObjectValues(ctor ParsableFactory) ([]Parsable, error)
	// GetCollectionOfPrimitiveValues reads a collection of the named primitive
	// type. Elements are pointers; JSON nulls yield nil elements.
	GetCollectionOfPrimitiveValues(targetType string) ([]any, error)
	GetStringValue() (*string, error)
	GetBoolValue() (*bool, error)
	GetByteValue() (*byte, error)
	GetInt32Value() (*int32, error)
	GetInt64Value() (*int64, error)
	GetFloat32Value() (*float32, error)
	GetFloat64Value() (*float64, error)
	GetTimeValue() (*time.Time, error)
	GetUUIDValue() (*uuid.UUID, error)
	GetByteArrayValue() ([]byte, error)
	// GetRawValue returns the node's decoded value without model binding.
	GetRawValue() (any, error)
	GetOnBeforeAssignFieldValues() ParsableAction
	SetOnBeforeAssignFieldValues(action ParsableAction) error
	GetOnAfterAssignFieldValues() ParsableAction
	SetOnAfterAssignFieldValues(action ParsableAction) error
}

// ParseNodeFactory creates parse nodes for one or more content types.
type ParseNodeFactory interface {
	// GetValidContentType returns the content type this factory handles.
	GetValidContentType() (string, error)
	// GetRootParseNode decodes content into a root parse node.
	GetRootParseNode(contentType string, content []byte) (ParseNode, error)
}

// SerializationWriter encodes models and primitives into a payload.
type SerializationWriter interface {
	WriteStringValue(key string, value *string) error
	WriteBoolValue(key string, value *bool) error
	WriteByteValue(key string, value *byte) error
	WriteInt32Value(key string, value *int32) error
	WriteInt64Value(key string, value *int64) error
	WriteFloat32Value(key string, value *float32) error
	WriteFloat64Value(key string, value *float64) error
	WriteTimeValue(key string, value *time.Time) error
	WriteUUIDValue(key string, value *uuid.UUID) error
	WriteByteArrayValue(key string, value []byte) error
	WriteObjectValue(key string, item Parsable, additionalValuesToMerge ...Parsable) error
	WriteCollectionOfObjectValues(key string, collection []Parsable) error
	WriteCollectionOfStringValues(key string, collection []string) error
	WriteNullValue(key string) error
	WriteAnyValue(key string, value any) error
	WriteAdditionalData(value map[string]any) error
	GetSerializedContent() ([]byte, error)
	GetOnBeforeSerialization() ParsableAction
	SetOnBeforeSerialization(action ParsableAction) error
	GetOnAfterObjectSerialization() ParsableAction
	SetOnAfterObjectSerialization(action ParsableAction) error
	GetOnStartObjectSerialization() ParsableWriter
	SetOnStartObjectSerialization(action ParsableWriter) error
	Close() error
}

// SerializationWriterFactory creates writers for one or more content types.
type SerializationWriterFactory interface {
	GetValidContentType() (string, error)
	GetSerializationWriter(contentType string) (SerializationWriter, error)
}
