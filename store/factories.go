package store

import (
	"github.com/kbukum/kiotahttp/serialization"
)

// NewBackingStoreParseNodeFactory wraps concrete so that deserialized backed
// models start out with no changes recorded.
func NewBackingStoreParseNodeFactory(concrete serialization.ParseNodeFactory) *serialization.ParseNodeProxyFactory {
	return serialization.NewParseNodeProxyFactory(concrete,
		func(p serialization.Parsable) error {
			if m, ok := p.(BackedModel); ok && m.GetBackingStore() != nil {
				m.GetBackingStore().SetInitializationCompleted(false)
			}
			return nil
		},
		func(p serialization.Parsable) error {
			if m, ok := p.(BackedModel); ok && m.GetBackingStore() != nil {
				m.GetBackingStore().SetInitializationCompleted(true)
			}
			return nil
		},
	)
}

// NewBackingStoreSerializationWriterProxyFactory wraps concrete so that only
// changed values of backed models are written, and values cleared to nil are
// written as explicit nulls.
func NewBackingStoreSerializationWriterProxyFactory(concrete serialization.SerializationWriterFactory) *serialization.SerializationWriterProxyFactory {
	return serialization.NewSerializationWriterProxyFactory(concrete,
		func(p serialization.Parsable) error {
			if m, ok := p.(BackedModel); ok && m.GetBackingStore() != nil {
				m.GetBackingStore().SetReturnOnlyChangedValues(true)
			}
			return nil
		},
		func(p serialization.Parsable) error {
			if m, ok := p.(BackedModel); ok && m.GetBackingStore() != nil {
				m.GetBackingStore().SetReturnOnlyChangedValues(false)
				m.GetBackingStore().SetInitializationCompleted(true)
			}
			return nil
		},
		func(p serialization.Parsable, w serialization.SerializationWriter) error {
			m, ok := p.(BackedModel)
			if !ok || m.GetBackingStore() == nil {
				return nil
			}
			for _, key := range m.GetBackingStore().EnumerateKeysForValuesChangedToNil() {
				if err := w.WriteNullValue(key); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
