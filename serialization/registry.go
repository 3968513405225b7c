package serialization

import (
	"regexp"
	"strings"
	"sync"

	"github.com/kbukum/kiotahttp/errors"
)

var vendorSpecificPattern = regexp.MustCompile(`[^/]+\+`)

// CleanContentType lower-cases a content type and strips its parameters,
// e.g. "Application/JSON; charset=utf-8" becomes "application/json".
func CleanContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}

// vendorNeutral maps "application/vnd.api+json" to "application/json".
func vendorNeutral(contentType string) string {
	return vendorSpecificPattern.ReplaceAllString(contentType, "")
}

func validateContentType(contentType string) (string, error) {
	if contentType == "" {
		return "", errors.MissingField("contentType")
	}
	ct := CleanContentType(contentType)
	if !strings.Contains(ct, "/") {
		return "", errors.InvalidFormat("contentType", "type/subtype")
	}
	return ct, nil
}

// ParseNodeFactoryRegistry selects a ParseNodeFactory by content type.
type ParseNodeFactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]ParseNodeFactory
}

// NewParseNodeFactoryRegistry creates an empty registry.
func NewParseNodeFactoryRegistry() *ParseNodeFactoryRegistry {
	return &ParseNodeFactoryRegistry{factories: make(map[string]ParseNodeFactory)}
}

// DefaultParseNodeFactoryInstance is the registry used when an adapter is
// created without an explicit parse node factory.
var DefaultParseNodeFactoryInstance = NewParseNodeFactoryRegistry()

// Register associates factory with the content type it reports.
func (r *ParseNodeFactoryRegistry) Register(factory ParseNodeFactory) error {
	contentType, err := factory.GetValidContentType()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[CleanContentType(contentType)] = factory
	return nil
}

// GetValidContentType is not supported on a registry since it serves many.
func (r *ParseNodeFactoryRegistry) GetValidContentType() (string, error) {
	return "", errors.New(errors.ErrCodeUnsupportedMediaType,
		"the registry supports multiple content types, get the registered factory instead")
}

// GetRootParseNode selects the factory for contentType and delegates to it.
// Parameters are ignored and vendor-specific types fall back to their
// structured suffix.
func (r *ParseNodeFactoryRegistry) GetRootParseNode(contentType string, content []byte) (ParseNode, error) {
	ct, err := validateContentType(contentType)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, errors.MissingField("content")
	}

	r.mu.RLock()
	factory, ok := r.factories[ct]
	if !ok {
		factory, ok = r.factories[vendorNeutral(ct)]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, errors.UnsupportedMediaType(ct)
	}
	return factory.GetRootParseNode(ct, content)
}

// SerializationWriterFactoryRegistry selects a SerializationWriterFactory by
// content type.
type SerializationWriterFactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]SerializationWriterFactory
}

// NewSerializationWriterFactoryRegistry creates an empty registry.
func NewSerializationWriterFactoryRegistry() *SerializationWriterFactoryRegistry {
	return &SerializationWriterFactoryRegistry{factories: make(map[string]SerializationWriterFactory)}
}

// DefaultSerializationWriterFactoryInstance is the registry used when an
// adapter is created without an explicit serialization writer factory.
var DefaultSerializationWriterFactoryInstance = NewSerializationWriterFactoryRegistry()

// Register associates factory with the content type it reports.
func (r *SerializationWriterFactoryRegistry) Register(factory SerializationWriterFactory) error {
	contentType, err := factory.GetValidContentType()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[CleanContentType(contentType)] = factory
	return nil
}

// GetValidContentType is not supported on a registry since it serves many.
func (r *SerializationWriterFactoryRegistry) GetValidContentType() (string, error) {
	return "", errors.New(errors.ErrCodeUnsupportedMediaType,
		"the registry supports multiple content types, get the registered factory instead")
}

// GetSerializationWriter selects the factory for contentType and delegates to it.
func (r *SerializationWriterFactoryRegistry) GetSerializationWriter(contentType string) (SerializationWriter, error) {
	ct, err := validateContentType(contentType)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	factory, ok := r.factories[ct]
	if !ok {
		factory, ok = r.factories[vendorNeutral(ct)]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, errors.UnsupportedMediaType(ct)
	}
	return factory.GetSerializationWriter(ct)
}
