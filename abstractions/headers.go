package abstractions

import (
	"sort"
	"strings"
)

// header is a case-insensitive multi-value collection. Keys are stored
// lower-cased and values are de-duplicated per key.
type header struct {
	values map[string]map[string]struct{}
}

func newHeader() header {
	return header{values: make(map[string]map[string]struct{})}
}

func normalizeHeaderKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Add appends values under key. Empty keys and values are ignored.
func (h *header) Add(key string, value string, additionalValues ...string) {
	k := normalizeHeaderKey(key)
	if k == "" || value == "" {
		return
	}
	if h.values == nil {
		h.values = make(map[string]map[string]struct{})
	}
	set, ok := h.values[k]
	if !ok {
		set = make(map[string]struct{})
		h.values[k] = set
	}
	set[value] = struct{}{}
	for _, v := range additionalValues {
		if v != "" {
			set[v] = struct{}{}
		}
	}
}

// Get returns the values for key in sorted order.
func (h *header) Get(key string) []string {
	set, ok := h.values[normalizeHeaderKey(key)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Remove drops key.
func (h *header) Remove(key string) {
	delete(h.values, normalizeHeaderKey(key))
}

// RemoveValue drops one value of key, and key itself once it is empty.
func (h *header) RemoveValue(key string, value string) {
	k := normalizeHeaderKey(key)
	set, ok := h.values[k]
	if !ok {
		return
	}
	delete(set, value)
	if len(set) == 0 {
		delete(h.values, k)
	}
}

// ContainsKey reports whether key has at least one value.
func (h *header) ContainsKey(key string) bool {
	_, ok := h.values[normalizeHeaderKey(key)]
	return ok
}

// Clear removes every key.
func (h *header) Clear() {
	h.values = make(map[string]map[string]struct{})
}

// ListKeys returns the normalized keys in sorted order.
func (h *header) ListKeys() []string {
	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of keys.
func (h *header) Count() int {
	return len(h.values)
}

// RequestHeaders are the headers of an outgoing request.
type RequestHeaders struct {
	header
}

// NewRequestHeaders creates an empty collection.
func NewRequestHeaders() *RequestHeaders {
	return &RequestHeaders{header: newHeader()}
}

// AddAll merges other into h.
func (h *RequestHeaders) AddAll(other *RequestHeaders) {
	if other == nil {
		return
	}
	for k, set := range other.values {
		for v := range set {
			h.Add(k, v)
		}
	}
}

// ResponseHeaders are the headers of a received response.
type ResponseHeaders struct {
	header
}

// NewResponseHeaders creates an empty collection.
func NewResponseHeaders() *ResponseHeaders {
	return &ResponseHeaders{header: newHeader()}
}

// AddAll merges other into h.
func (h *ResponseHeaders) AddAll(other *ResponseHeaders) {
	if other == nil {
		return
	}
	for k, set := range other.values {
		for v := range set {
			h.Add(k, v)
		}
	}
}
