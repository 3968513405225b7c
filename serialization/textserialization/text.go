// Package textserialization handles text/plain payloads. Only scalar values
// are supported; models and collections are rejected.
package textserialization

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/serialization"
)

// ContentType is the media type handled by this package.
const ContentType = "text/plain"

func unsupported(what string) error {
	return errors.New(errors.ErrCodeSerialization, what+" is not supported by the text codec")
}

// ParseNode reads a single scalar from a text payload.
type ParseNode struct {
	value    string
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
}

// NewParseNode wraps content. Surrounding quotes are removed.
func NewParseNode(content []byte) (*ParseNode, error) {
	if content == nil {
		return nil, errors.MissingField("content")
	}
	return &ParseNode{value: strings.Trim(string(content), `"`)}, nil
}

func (n *ParseNode) GetChildNode(string) (serialization.ParseNode, error) {
	return nil, unsupported("child nodes")
}

func (n *ParseNode) GetObjectValue(serialization.ParsableFactory) (serialization.Parsable, error) {
	return nil, unsupported("object values")
}

func (n *ParseNode) GetCollectionOfObjectValues(serialization.ParsableFactory) ([]serialization.Parsable, error) {
	return nil, unsupported("collections")
}

func (n *ParseNode) GetCollectionOfPrimitiveValues(string) ([]any, error) {
	return nil, unsupported("collections")
}

func (n *ParseNode) GetStringValue() (*string, error) {
	v := n.value
	return &v, nil
}

func (n *ParseNode) GetBoolValue() (*bool, error) {
	v, err := strconv.ParseBool(n.value)
	if err != nil {
		return nil, errors.InvalidFormat("value", "boolean").WithCause(err)
	}
	return &v, nil
}

func (n *ParseNode) GetByteValue() (*byte, error) {
	v, err := strconv.ParseUint(n.value, 10, 8)
	if err != nil {
		return nil, errors.InvalidFormat("value", "byte").WithCause(err)
	}
	b := byte(v)
	return &b, nil
}

func (n *ParseNode) GetInt32Value() (*int32, error) {
	v, err := strconv.ParseInt(n.value, 10, 32)
	if err != nil {
		return nil, errors.InvalidFormat("value", "int32").WithCause(err)
	}
	i := int32(v)
	return &i, nil
}

func (n *ParseNode) GetInt64Value() (*int64, error) {
	v, err := strconv.ParseInt(n.value, 10, 64)
	if err != nil {
		return nil, errors.InvalidFormat("value", "int64").WithCause(err)
	}
	return &v, nil
}

func (n *ParseNode) GetFloat32Value() (*float32, error) {
	v, err := strconv.ParseFloat(n.value, 32)
	if err != nil {
		return nil, errors.InvalidFormat("value", "float32").WithCause(err)
	}
	f := float32(v)
	return &f, nil
}

func (n *ParseNode) GetFloat64Value() (*float64, error) {
	v, err := strconv.ParseFloat(n.value, 64)
	if err != nil {
		return nil, errors.InvalidFormat("value", "float64").WithCause(err)
	}
	return &v, nil
}

func (n *ParseNode) GetTimeValue() (*time.Time, error) {
	v, err := time.Parse(time.RFC3339, n.value)
	if err != nil {
		return nil, errors.InvalidFormat("value", "RFC 3339 timestamp").WithCause(err)
	}
	return &v, nil
}

func (n *ParseNode) GetUUIDValue() (*uuid.UUID, error) {
	v, err := uuid.Parse(n.value)
	if err != nil {
		return nil, errors.InvalidFormat("value", "uuid").WithCause(err)
	}
	return &v, nil
}

func (n *ParseNode) GetByteArrayValue() ([]byte, error) {
	v, err := base64.StdEncoding.DecodeString(n.value)
	if err != nil {
		return nil, errors.InvalidFormat("value", "base64").WithCause(err)
	}
	return v, nil
}

func (n *ParseNode) GetRawValue() (any, error) {
	return n.value, nil
}

func (n *ParseNode) GetOnBeforeAssignFieldValues() serialization.ParsableAction { return n.onBefore }

func (n *ParseNode) SetOnBeforeAssignFieldValues(action serialization.ParsableAction) error {
	n.onBefore = action
	return nil
}

func (n *ParseNode) GetOnAfterAssignFieldValues() serialization.ParsableAction { return n.onAfter }

func (n *ParseNode) SetOnAfterAssignFieldValues(action serialization.ParsableAction) error {
	n.onAfter = action
	return nil
}

// SerializationWriter writes exactly one scalar value. Keys must be empty.
type SerializationWriter struct {
	value    *string
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
	onStart  serialization.ParsableWriter
}

// NewSerializationWriter creates an empty text writer.
func NewSerializationWriter() *SerializationWriter {
	return &SerializationWriter{}
}

func (w *SerializationWriter) write(key, value string) error {
	if key != "" {
		return unsupported("keyed values")
	}
	if w.value != nil {
		return errors.New(errors.ErrCodeSerialization, "a value was already written for this text payload")
	}
	w.value = &value
	return nil
}

func (w *SerializationWriter) WriteStringValue(key string, value *string) error {
	if value == nil {
		return nil
	}
	return w.write(key, *value)
}

func (w *SerializationWriter) WriteBoolValue(key string, value *bool) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatBool(*value))
}

func (w *SerializationWriter) WriteByteValue(key string, value *byte) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatUint(uint64(*value), 10))
}

func (w *SerializationWriter) WriteInt32Value(key string, value *int32) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatInt(int64(*value), 10))
}

func (w *SerializationWriter) WriteInt64Value(key string, value *int64) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatInt(*value, 10))
}

func (w *SerializationWriter) WriteFloat32Value(key string, value *float32) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatFloat(float64(*value), 'g', -1, 32))
}

func (w *SerializationWriter) WriteFloat64Value(key string, value *float64) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatFloat(*value, 'g', -1, 64))
}

func (w *SerializationWriter) WriteTimeValue(key string, value *time.Time) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.Format(time.RFC3339Nano))
}

func (w *SerializationWriter) WriteUUIDValue(key string, value *uuid.UUID) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.String())
}

func (w *SerializationWriter) WriteByteArrayValue(key string, value []byte) error {
	if value == nil {
		return nil
	}
	return w.write(key, base64.StdEncoding.EncodeToString(value))
}

func (w *SerializationWriter) WriteObjectValue(string, serialization.Parsable, ...serialization.Parsable) error {
	return unsupported("object values")
}

func (w *SerializationWriter) WriteCollectionOfObjectValues(string, []serialization.Parsable) error {
	return unsupported("collections")
}

func (w *SerializationWriter) WriteCollectionOfStringValues(string, []string) error {
	return unsupported("collections")
}

func (w *SerializationWriter) WriteNullValue(key string) error {
	return w.write(key, "null")
}

func (w *SerializationWriter) WriteAnyValue(key string, value any) error {
	if value == nil {
		return w.WriteNullValue(key)
	}
	return w.write(key, fmt.Sprint(value))
}

func (w *SerializationWriter) WriteAdditionalData(value map[string]any) error {
	if len(value) == 0 {
		return nil
	}
	return unsupported("additional data")
}

func (w *SerializationWriter) GetSerializedContent() ([]byte, error) {
	if w.value == nil {
		return []byte{}, nil
	}
	return []byte(*w.value), nil
}

func (w *SerializationWriter) GetOnBeforeSerialization() serialization.ParsableAction {
	return w.onBefore
}

func (w *SerializationWriter) SetOnBeforeSerialization(action serialization.ParsableAction) error {
	w.onBefore = action
	return nil
}

func (w *SerializationWriter) GetOnAfterObjectSerialization() serialization.ParsableAction {
	return w.onAfter
}

func (w *SerializationWriter) SetOnAfterObjectSerialization(action serialization.ParsableAction) error {
	w.onAfter = action
	return nil
}

func (w *SerializationWriter) GetOnStartObjectSerialization() serialization.ParsableWriter {
	return w.onStart
}

func (w *SerializationWriter) SetOnStartObjectSerialization(action serialization.ParsableWriter) error {
	w.onStart = action
	return nil
}

func (w *SerializationWriter) Close() error {
	w.value = nil
	return nil
}

// ParseNodeFactory creates text parse nodes.
type ParseNodeFactory struct{}

func NewParseNodeFactory() *ParseNodeFactory { return &ParseNodeFactory{} }

func (f *ParseNodeFactory) GetValidContentType() (string, error) { return ContentType, nil }

func (f *ParseNodeFactory) GetRootParseNode(contentType string, content []byte) (serialization.ParseNode, error) {
	if contentType == "" {
		return nil, errors.MissingField("contentType")
	}
	return NewParseNode(content)
}

// SerializationWriterFactory creates text writers.
type SerializationWriterFactory struct{}

func NewSerializationWriterFactory() *SerializationWriterFactory {
	return &SerializationWriterFactory{}
}

func (f *SerializationWriterFactory) GetValidContentType() (string, error) { return ContentType, nil }

func (f *SerializationWriterFactory) GetSerializationWriter(contentType string) (serialization.SerializationWriter, error) {
	if contentType == "" {
		return nil, errors.MissingField("contentType")
	}
	return NewSerializationWriter(), nil
}

// Register adds the text factories to the package default registries.
func Register() {
	_ = serialization.DefaultParseNodeFactoryInstance.Register(NewParseNodeFactory())
	_ = serialization.DefaultSerializationWriterFactoryInstance.Register(NewSerializationWriterFactory())
}
