// Package jsonserialization implements the serialization contracts for
// application/json payloads on top of goccy/go-json.
package jsonserialization

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/serialization"
)

// ParseNode is a cursor over a decoded JSON value. The value is one of
// map[string]any, []any, string, json.Number, bool or nil.
type ParseNode struct {
	value    any
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
}

// NewParseNode decodes content into a root parse node. Numbers keep their
// textual form until a typed getter reads them.
func NewParseNode(content []byte) (*ParseNode, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, errors.MissingField("content")
	}
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, errors.Serialization("decode json payload", err)
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return nil, errors.Serialization("decode json payload", fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset()))
	}
	return &ParseNode{value: value}, nil
}

func (n *ParseNode) child(value any) *ParseNode {
	return &ParseNode{value: value, onBefore: n.onBefore, onAfter: n.onAfter}
}

// GetChildNode returns the node for a property of an object node. A missing
// property yields a nil node.
func (n *ParseNode) GetChildNode(index string) (serialization.ParseNode, error) {
	if index == "" {
		return nil, errors.MissingField("index")
	}
	obj, ok := n.value.(map[string]any)
	if !ok {
		return nil, errors.InvalidFormat(index, "json object")
	}
	value, ok := obj[index]
	if !ok {
		return nil, nil
	}
	return n.child(value), nil
}

// GetObjectValue materializes a model. Properties without a deserializer are
// collected into the model's additional data when it holds any.
func (n *ParseNode) GetObjectValue(ctor serialization.ParsableFactory) (serialization.Parsable, error) {
	if ctor == nil {
		return nil, errors.MissingField("ctor")
	}
	if n == nil || n.value == nil {
		return nil, nil
	}
	obj, ok := n.value.(map[string]any)
	if !ok {
		return nil, errors.InvalidFormat("value", "json object")
	}
	result, err := ctor(n)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	if n.onBefore != nil {
		if err := n.onBefore(result); err != nil {
			return nil, err
		}
	}

	fields := result.GetFieldDeserializers()
	holder, isHolder := result.(serialization.AdditionalDataHolder)
	var additional map[string]any
	if isHolder {
		additional = holder.GetAdditionalData()
		if additional == nil {
			additional = make(map[string]any)
		}
	}

	for key, value := range obj {
		if deserialize, ok := fields[key]; ok {
			if err := deserialize(n.child(value)); err != nil {
				return nil, fmt.Errorf("jsonserialization: field %q: %w", key, err)
			}
			continue
		}
		if isHolder {
			raw, err := n.child(value).GetRawValue()
			if err != nil {
				return nil, err
			}
			additional[key] = raw
		}
	}
	if isHolder && len(additional) > 0 {
		holder.SetAdditionalData(additional)
	}

	if n.onAfter != nil {
		if err := n.onAfter(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetCollectionOfObjectValues materializes an array of models in order.
func (n *ParseNode) GetCollectionOfObjectValues(ctor serialization.ParsableFactory) ([]serialization.Parsable, error) {
	if n == nil || n.value == nil {
		return nil, nil
	}
	items, ok := n.value.([]any)
	if !ok {
		return nil, errors.InvalidFormat("value", "json array")
	}
	result := make([]serialization.Parsable, len(items))
	for i, item := range items {
		v, err := n.child(item).GetObjectValue(ctor)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// GetCollectionOfPrimitiveValues reads an array of the named primitive type.
func (n *ParseNode) GetCollectionOfPrimitiveValues(targetType string) ([]any, error) {
	if n == nil || n.value == nil {
		return nil, nil
	}
	if targetType == "" {
		return nil, errors.MissingField("targetType")
	}
	items, ok := n.value.([]any)
	if !ok {
		return nil, errors.InvalidFormat("value", "json array")
	}
	result := make([]any, len(items))
	for i, item := range items {
		v, err := readPrimitive(n.child(item), targetType)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func readPrimitive(node *ParseNode, targetType string) (any, error) {
	if node.value == nil {
		return nil, nil
	}
	switch targetType {
	case "string":
		return node.GetStringValue()
	case "bool":
		return node.GetBoolValue()
	case "uint8", "byte":
		return node.GetByteValue()
	case "int32":
		return node.GetInt32Value()
	case "int64":
		return node.GetInt64Value()
	case "float32":
		return node.GetFloat32Value()
	case "float64":
		return node.GetFloat64Value()
	case "time":
		return node.GetTimeValue()
	case "uuid":
		return node.GetUUIDValue()
	case "base64":
		return node.GetByteArrayValue()
	default:
		return nil, errors.InvalidInput("targetType", fmt.Sprintf("unsupported primitive type %q", targetType))
	}
}

// GetStringValue reads a string value.
func (n *ParseNode) GetStringValue() (*string, error) {
	if n == nil || n.value == nil {
		return nil, nil
	}
	s, ok := n.value.(string)
	if !ok {
		return nil, errors.InvalidFormat("value", "json string")
	}
	return &s, nil
}

// GetBoolValue reads a boolean value.
func (n *ParseNode) GetBoolValue() (*bool, error) {
	if n == nil || n.value == nil {
		return nil, nil
	}
	b, ok := n.value.(bool)
	if !ok {
		return nil, errors.InvalidFormat("value", "json boolean")
	}
	return &b, nil
}

func (n *ParseNode) number() (json.Number, bool, error) {
	if n == nil || n.value == nil {
		return "", false, nil
	}
	num, ok := n.value.(json.Number)
	if !ok {
		return "", false, errors.InvalidFormat("value", "json number")
	}
	return num, true, nil
}

func (n *ParseNode) integer(min, max int64) (*int64, error) {
	num, ok, err := n.number()
	if err != nil || !ok {
		return nil, err
	}
	v, err := num.Int64()
	if err != nil {
		return nil, errors.Serialization("read integer "+num.String(), err)
	}
	if v < min || v > max {
		return nil, errors.InvalidFormat("value", fmt.Sprintf("integer in [%d, %d]", min, max))
	}
	return &v, nil
}

// GetByteValue reads an unsigned 8-bit integer.
func (n *ParseNode) GetByteValue() (*byte, error) {
	v, err := n.integer(0, math.MaxUint8)
	if err != nil || v == nil {
		return nil, err
	}
	b := byte(*v)
	return &b, nil
}

// GetInt32Value reads a 32-bit integer.
func (n *ParseNode) GetInt32Value() (*int32, error) {
	v, err := n.integer(math.MinInt32, math.MaxInt32)
	if err != nil || v == nil {
		return nil, err
	}
	i := int32(*v)
	return &i, nil
}

// GetInt64Value reads a 64-bit integer.
func (n *ParseNode) GetInt64Value() (*int64, error) {
	return n.integer(math.MinInt64, math.MaxInt64)
}

// GetFloat32Value reads a 32-bit float.
func (n *ParseNode) GetFloat32Value() (*float32, error) {
	v, err := n.GetFloat64Value()
	if err != nil || v == nil {
		return nil, err
	}
	f := float32(*v)
	return &f, nil
}

// GetFloat64Value reads a 64-bit float.
func (n *ParseNode) GetFloat64Value() (*float64, error) {
	num, ok, err := n.number()
	if err != nil || !ok {
		return nil, err
	}
	v, err := num.Float64()
	if err != nil {
		return nil, errors.Serialization("read number "+num.String(), err)
	}
	return &v, nil
}

// GetTimeValue reads an RFC 3339 timestamp.
func (n *ParseNode) GetTimeValue() (*time.Time, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, errors.InvalidFormat("value", "RFC 3339 timestamp").WithCause(err)
	}
	return &t, nil
}

// GetUUIDValue reads a UUID string.
func (n *ParseNode) GetUUIDValue() (*uuid.UUID, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, errors.InvalidFormat("value", "uuid").WithCause(err)
	}
	return &id, nil
}

// GetByteArrayValue reads a base64 encoded string.
func (n *ParseNode) GetByteArrayValue() ([]byte, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(*s)
	if err != nil {
		return nil, errors.InvalidFormat("value", "base64").WithCause(err)
	}
	return b, nil
}

// GetRawValue returns the decoded value with numbers converted to int64 when
// integral and float64 otherwise.
func (n *ParseNode) GetRawValue() (any, error) {
	if n == nil {
		return nil, nil
	}
	return sanitize(n.value), nil
}

func sanitize(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = sanitize(item)
		}
		return out
	default:
		return v
	}
}

// GetOnBeforeAssignFieldValues returns the hook run before fields are assigned.
func (n *ParseNode) GetOnBeforeAssignFieldValues() serialization.ParsableAction {
	return n.onBefore
}

// SetOnBeforeAssignFieldValues sets the hook run before fields are assigned.
func (n *ParseNode) SetOnBeforeAssignFieldValues(action serialization.ParsableAction) error {
	n.onBefore = action
	return nil
}

// GetOnAfterAssignFieldValues returns the hook run after fields are assigned.
func (n *ParseNode) GetOnAfterAssignFieldValues() serialization.ParsableAction {
	return n.onAfter
}

// SetOnAfterAssignFieldValues sets the hook run after fields are assigned.
func (n *ParseNode) SetOnAfterAssignFieldValues(action serialization.ParsableAction) error {
	n.onAfter = action
	return nil
}
