// Package store tracks field changes on models so that only modified values
// are written back in request bodies.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/kiotahttp/errors"
)

// Subscriber is notified whenever a value in a store changes.
type Subscriber func(key string, oldVal, newVal any)

// BackingStore holds model field values and records which of them changed
// after initialization completed.
type BackingStore interface {
	Get(key string) (any, error)
	Set(key string, value any) error
	Enumerate() map[string]any
	EnumerateKeysForValuesChangedToNil() []string
	Subscribe(callback Subscriber) string
	SubscribeWithID(callback Subscriber, id string) error
	Unsubscribe(id string) error
	Clear()
	GetInitializationCompleted() bool
	SetInitializationCompleted(value bool)
	GetReturnOnlyChangedValues() bool
	SetReturnOnlyChangedValues(value bool)
}

// BackedModel is implemented by models whose fields live in a BackingStore.
type BackedModel interface {
	GetBackingStore() BackingStore
}

// BackingStoreFactory creates stores for new model instances.
type BackingStoreFactory func() BackingStore

var (
	defaultMu      sync.RWMutex
	defaultFactory BackingStoreFactory = inMemoryFactory
)

func inMemoryFactory() BackingStore {
	return NewInMemoryBackingStore()
}

// SetDefaultBackingStoreFactory replaces the factory used by NewBackingStore.
// A nil factory restores the in-memory default.
func SetDefaultBackingStoreFactory(factory BackingStoreFactory) {
	if factory == nil {
		factory = inMemoryFactory
	}
	defaultMu.Lock()
	defaultFactory = factory
	defaultMu.Unlock()
}

// NewBackingStore creates a store with the current default factory. Generated
// models call it from their constructors.
func NewBackingStore() BackingStore {
	defaultMu.RLock()
	factory := defaultFactory
	defaultMu.RUnlock()
	return factory()
}

type entry struct {
	changed bool
	value   any
}

// InMemoryBackingStore is a BackingStore guarded by a read/write mutex.
type InMemoryBackingStore struct {
	mu                      sync.RWMutex
	values                  map[string]entry
	subscribers             map[string]Subscriber
	initializationCompleted bool
	returnOnlyChangedValues bool
}

// NewInMemoryBackingStore creates an empty store. Initialization is considered
// complete until a deserializer says otherwise.
func NewInMemoryBackingStore() *InMemoryBackingStore {
	return &InMemoryBackingStore{
		values:                  make(map[string]entry),
		subscribers:             make(map[string]Subscriber),
		initializationCompleted: true,
	}
}

// Get returns the value for key. When only changed values are requested an
// unchanged value reads as nil.
func (s *InMemoryBackingStore) Get(key string) (any, error) {
	if key == "" {
		return nil, errors.MissingField("key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	if s.returnOnlyChangedValues && !e.changed {
		return nil, nil
	}
	return e.value, nil
}

// Set stores value and notifies subscribers. Nested backed models inherit the
// parent's initialization state.
func (s *InMemoryBackingStore) Set(key string, value any) error {
	if key == "" {
		return errors.MissingField("key")
	}
	s.mu.Lock()
	old := s.values[key]
	s.values[key] = entry{changed: s.initializationCompleted, value: value}
	completed := s.initializationCompleted
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	if nested, ok := value.(BackedModel); ok && nested.GetBackingStore() != nil {
		nested.GetBackingStore().SetInitializationCompleted(completed)
	}
	for _, sub := range subs {
		sub(key, old.value, value)
	}
	return nil
}

// Enumerate returns a snapshot of the stored values, limited to changed ones
// when ReturnOnlyChangedValues is set.
func (s *InMemoryBackingStore) Enumerate() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, e := range s.values {
		if s.returnOnlyChangedValues && !e.changed {
			continue
		}
		out[k] = e.value
	}
	return out
}

// EnumerateKeysForValuesChangedToNil lists keys that were explicitly cleared.
func (s *InMemoryBackingStore) EnumerateKeysForValuesChangedToNil() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k, e := range s.values {
		if e.changed && e.value == nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// Subscribe registers callback and returns its generated id.
func (s *InMemoryBackingStore) Subscribe(callback Subscriber) string {
	id := uuid.NewString()
	_ = s.SubscribeWithID(callback, id)
	return id
}

// SubscribeWithID registers callback under id, replacing any previous one.
func (s *InMemoryBackingStore) SubscribeWithID(callback Subscriber, id string) error {
	if callback == nil {
		return errors.MissingField("callback")
	}
	if id == "" {
		return errors.MissingField("id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[id] = callback
	return nil
}

// Unsubscribe removes the subscriber registered under id.
func (s *InMemoryBackingStore) Unsubscribe(id string) error {
	if id == "" {
		return errors.MissingField("id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
	return nil
}

// Clear drops all values.
func (s *InMemoryBackingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]entry)
}

func (s *InMemoryBackingStore) GetInitializationCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializationCompleted
}

// SetInitializationCompleted marks every stored value as unchanged when set
// to true. Nested backed models follow.
func (s *InMemoryBackingStore) SetInitializationCompleted(value bool) {
	s.mu.Lock()
	s.initializationCompleted = value
	var nested []BackedModel
	for k, e := range s.values {
		if value {
			e.changed = false
			s.values[k] = e
		}
		if m, ok := e.value.(BackedModel); ok && m.GetBackingStore() != nil {
			nested = append(nested, m)
		}
	}
	s.mu.Unlock()

	for _, m := range nested {
		m.GetBackingStore().SetInitializationCompleted(value)
	}
}

func (s *InMemoryBackingStore) GetReturnOnlyChangedValues() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returnOnlyChangedValues
}

// SetReturnOnlyChangedValues toggles change filtering for this store and the
// stores of nested backed models.
func (s *InMemoryBackingStore) SetReturnOnlyChangedValues(value bool) {
	s.mu.Lock()
	s.returnOnlyChangedValues = value
	var nested []BackedModel
	for _, e := range s.values {
		if m, ok := e.value.(BackedModel); ok && m.GetBackingStore() != nil {
			nested = append(nested, m)
		}
	}
	s.mu.Unlock()

	for _, m := range nested {
		m.GetBackingStore().SetReturnOnlyChangedValues(value)
	}
}
