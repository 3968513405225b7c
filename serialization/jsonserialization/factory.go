package jsonserialization

import (
	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/serialization"
)

// ContentType is the media type handled by this package.
const ContentType = "application/json"

// ParseNodeFactory creates JSON parse nodes.
type ParseNodeFactory struct{}

// NewParseNodeFactory creates a JSON parse node factory.
func NewParseNodeFactory() *ParseNodeFactory {
	return &ParseNodeFactory{}
}

// GetValidContentType returns application/json.
func (f *ParseNodeFactory) GetValidContentType() (string, error) {
	return ContentType, nil
}

// GetRootParseNode decodes content into a root node.
func (f *ParseNodeFactory) GetRootParseNode(contentType string, content []byte) (serialization.ParseNode, error) {
	if contentType == "" {
		return nil, errors.MissingField("contentType")
	}
	return NewParseNode(content)
}

// SerializationWriterFactory creates JSON serialization writers.
type SerializationWriterFactory struct{}

// NewSerializationWriterFactory creates a JSON writer factory.
func NewSerializationWriterFactory() *SerializationWriterFactory {
	return &SerializationWriterFactory{}
}

// GetValidContentType returns application/json.
func (f *SerializationWriterFactory) GetValidContentType() (string, error) {
	return ContentType, nil
}

// GetSerializationWriter creates a new writer.
func (f *SerializationWriterFactory) GetSerializationWriter(contentType string) (serialization.SerializationWriter, error) {
	if contentType == "" {
		return nil, errors.MissingField("contentType")
	}
	return NewSerializationWriter(), nil
}

// Register adds the JSON factories to the package default registries.
func Register() {
	_ = serialization.DefaultParseNodeFactoryInstance.Register(NewParseNodeFactory())
	_ = serialization.DefaultSerializationWriterFactoryInstance.Register(NewSerializationWriterFactory())
}
