package jsonserialization

import (
	"bytes"
	"encoding/base64"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/serialization"
)

// SerializationWriter accumulates a JSON document. Every value is written
// followed by a comma which is trimmed when the enclosing object or array
// closes.
type SerializationWriter struct {
	buf      bytes.Buffer
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
	onStart  serialization.ParsableWriter
}

// NewSerializationWriter creates an empty writer.
func NewSerializationWriter() *SerializationWriter {
	return &SerializationWriter{}
}

func (w *SerializationWriter) writeKey(key string) {
	if key == "" {
		return
	}
	w.writeQuoted(key)
	w.buf.WriteByte(':')
}

func (w *SerializationWriter) writeQuoted(s string) {
	b, err := json.Marshal(s)
	if err != nil {
		// strings always marshal
		w.buf.WriteString(strconv.Quote(s))
		return
	}
	w.buf.Write(b)
}

func (w *SerializationWriter) separator() {
	w.buf.WriteByte(',')
}

func (w *SerializationWriter) trimTrailingComma() {
	b := w.buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == ',' {
		w.buf.Truncate(len(b) - 1)
	}
}

func (w *SerializationWriter) writeRaw(key, raw string) {
	w.writeKey(key)
	w.buf.WriteString(raw)
	w.separator()
}

// WriteStringValue writes a string property. Nil values are skipped.
func (w *SerializationWriter) WriteStringValue(key string, value *string) error {
	if value == nil {
		return nil
	}
	w.writeKey(key)
	w.writeQuoted(*value)
	w.separator()
	return nil
}

// WriteBoolValue writes a boolean property.
func (w *SerializationWriter) WriteBoolValue(key string, value *bool) error {
	if value == nil {
		return nil
	}
	w.writeRaw(key, strconv.FormatBool(*value))
	return nil
}

// WriteByteValue writes an unsigned 8-bit integer property.
func (w *SerializationWriter) WriteByteValue(key string, value *byte) error {
	if value == nil {
		return nil
	}
	w.writeRaw(key, strconv.FormatUint(uint64(*value), 10))
	return nil
}

// WriteInt32Value writes a 32-bit integer property.
func (w *SerializationWriter) WriteInt32Value(key string, value *int32) error {
	if value == nil {
		return nil
	}
	w.writeRaw(key, strconv.FormatInt(int64(*value), 10))
	return nil
}

// WriteInt64Value writes a 64-bit integer property.
func (w *SerializationWriter) WriteInt64Value(key string, value *int64) error {
	if value == nil {
		return nil
	}
	w.writeRaw(key, strconv.FormatInt(*value, 10))
	return nil
}

// WriteFloat32Value writes a 32-bit float property.
func (w *SerializationWriter) WriteFloat32Value(key string, value *float32) error {
	if value == nil {
		return nil
	}
	w.writeRaw(key, strconv.FormatFloat(float64(*value), 'g', -1, 32))
	return nil
}

// WriteFloat64Value writes a 64-bit float property.
func (w *SerializationWriter) WriteFloat64Value(key string, value *float64) error {
	if value == nil {
		return nil
	}
	w.writeRaw(key, strconv.FormatFloat(*value, 'g', -1, 64))
	return nil
}

// WriteTimeValue writes an RFC 3339 timestamp property.
func (w *SerializationWriter) WriteTimeValue(key string, value *time.Time) error {
	if value == nil {
		return nil
	}
	s := value.Format(time.RFC3339Nano)
	return w.WriteStringValue(key, &s)
}

// WriteUUIDValue writes a UUID property.
func (w *SerializationWriter) WriteUUIDValue(key string, value *uuid.UUID) error {
	if value == nil {
		return nil
	}
	s := value.String()
	return w.WriteStringValue(key, &s)
}

// WriteByteArrayValue writes a base64 encoded property.
func (w *SerializationWriter) WriteByteArrayValue(key string, value []byte) error {
	if value == nil {
		return nil
	}
	s := base64.StdEncoding.EncodeToString(value)
	return w.WriteStringValue(key, &s)
}

// WriteNullValue writes an explicit null.
func (w *SerializationWriter) WriteNullValue(key string) error {
	w.writeRaw(key, "null")
	return nil
}

// WriteObjectValue writes a model, merging the fields of any additional
// models into the same JSON object.
func (w *SerializationWriter) WriteObjectValue(key string, item serialization.Parsable, additionalValuesToMerge ...serialization.Parsable) error {
	if item == nil && len(additionalValuesToMerge) == 0 {
		return nil
	}
	if item != nil && w.onBefore != nil {
		if err := w.onBefore(item); err != nil {
			return err
		}
	}
	w.writeKey(key)
	w.buf.WriteByte('{')
	if item != nil {
		if w.onStart != nil {
			if err := w.onStart(item, w); err != nil {
				return err
			}
		}
		if err := item.Serialize(w); err != nil {
			return err
		}
	}
	for _, extra := range additionalValuesToMerge {
		if extra == nil {
			continue
		}
		if err := extra.Serialize(w); err != nil {
			return err
		}
	}
	w.trimTrailingComma()
	w.buf.WriteByte('}')
	w.separator()
	if item != nil && w.onAfter != nil {
		if err := w.onAfter(item); err != nil {
			return err
		}
	}
	return nil
}

// WriteCollectionOfObjectValues writes an array of models.
func (w *SerializationWriter) WriteCollectionOfObjectValues(key string, collection []serialization.Parsable) error {
	if collection == nil {
		return nil
	}
	w.writeKey(key)
	w.buf.WriteByte('[')
	for _, item := range collection {
		if item == nil {
			w.writeRaw("", "null")
			continue
		}
		if err := w.WriteObjectValue("", item); err != nil {
			return err
		}
	}
	w.trimTrailingComma()
	w.buf.WriteByte(']')
	w.separator()
	return nil
}

// WriteCollectionOfStringValues writes an array of strings.
func (w *SerializationWriter) WriteCollectionOfStringValues(key string, collection []string) error {
	if collection == nil {
		return nil
	}
	w.writeKey(key)
	w.buf.WriteByte('[')
	for i := range collection {
		if err := w.WriteStringValue("", &collection[i]); err != nil {
			return err
		}
	}
	w.trimTrailingComma()
	w.buf.WriteByte(']')
	w.separator()
	return nil
}

// WriteAnyValue writes an untyped value. Models are written as objects and
// everything else goes through the JSON encoder.
func (w *SerializationWriter) WriteAnyValue(key string, value any) error {
	if value == nil {
		return w.WriteNullValue(key)
	}
	if p, ok := value.(serialization.Parsable); ok {
		return w.WriteObjectValue(key, p)
	}
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Serialization("encode value for "+key, err)
	}
	w.writeRaw(key, string(b))
	return nil
}

// WriteAdditionalData writes every entry as a property of the current object.
func (w *SerializationWriter) WriteAdditionalData(value map[string]any) error {
	for k, v := range value {
		if err := w.WriteAnyValue(k, v); err != nil {
			return err
		}
	}
	return nil
}

// GetSerializedContent returns the document written so far.
func (w *SerializationWriter) GetSerializedContent() ([]byte, error) {
	w.trimTrailingComma()
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out, nil
}

// GetOnBeforeSerialization returns the hook run before a model is written.
func (w *SerializationWriter) GetOnBeforeSerialization() serialization.ParsableAction {
	return w.onBefore
}

// SetOnBeforeSerialization sets the hook run before a model is written.
func (w *SerializationWriter) SetOnBeforeSerialization(action serialization.ParsableAction) error {
	w.onBefore = action
	return nil
}

// GetOnAfterObjectSerialization returns the hook run after a model is written.
func (w *SerializationWriter) GetOnAfterObjectSerialization() serialization.ParsableAction {
	return w.onAfter
}

// SetOnAfterObjectSerialization sets the hook run after a model is written.
func (w *SerializationWriter) SetOnAfterObjectSerialization(action serialization.ParsableAction) error {
	w.onAfter = action
	return nil
}

// GetOnStartObjectSerialization returns the hook run when an object opens.
func (w *SerializationWriter) GetOnStartObjectSerialization() serialization.ParsableWriter {
	return w.onStart
}

// SetOnStartObjectSerialization sets the hook run when an object opens.
func (w *SerializationWriter) SetOnStartObjectSerialization(action serialization.ParsableWriter) error {
	w.onStart = action
	return nil
}

// Close releases the buffer.
func (w *SerializationWriter) Close() error {
	w.buf.Reset()
	return nil
}
