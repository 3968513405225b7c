package serialization

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/kiotahttp/errors"
)

// stubNode only records hooks and the content type it was created for.
type stubNode struct {
	contentType string
	onBefore    ParsableAction
	onAfter     ParsableAction
}

func (n *stubNode) GetChildNode(string) (ParseNode, error)                          { return nil, nil }
func (n *stubNode) GetObjectValue(ParsableFactory) (Parsable, error)                { return nil, nil }
func (n *stubNode) GetCollectionOfObjectValues(ParsableFactory) ([]Parsable, error) { return nil, nil }
func (n *stubNode) GetCollectionOfPrimitiveValues(string) ([]any, error)            { return nil, nil }
func (n *stubNode) GetStringValue() (*string, error)                                { return &n.contentType, nil }
func (n *stubNode) GetBoolValue() (*bool, error)                                    { return nil, nil }
func (n *stubNode) GetByteValue() (*byte, error)                                    { return nil, nil }
func (n *stubNode) GetInt32Value() (*int32, error)                                  { return nil, nil }
func (n *stubNode) GetInt64Value() (*int64, error)                                  { return nil, nil }
func (n *stubNode) GetFloat32Value() (*float32, error)                              { return nil, nil }
func (n *stubNode) GetFloat64Value() (*float64, error)                              { return nil, nil }
func (n *stubNode) GetTimeValue() (*time.Time, error)                               { return nil, nil }
func (n *stubNode) GetUUIDValue() (*uuid.UUID, error)                               { return nil, nil }
func (n *stubNode) GetByteArrayValue() ([]byte, error)                              { return nil, nil }
func (n *stubNode) GetRawValue() (any, error)                                       { return nil, nil }
func (n *stubNode) GetOnBeforeAssignFieldValues() ParsableAction                    { return n.onBefore }
func (n *stubNode) GetOnAfterAssignFieldValues() ParsableAction                     { return n.onAfter }
func (n *stubNode) SetOnBeforeAssignFieldValues(a ParsableAction) error             { n.onBefore = a; return nil }
func (n *stubNode) SetOnAfterAssignFieldValues(a ParsableAction) error              { n.onAfter = a; return nil }

type stubFactory struct{ contentType string }

func (f *stubFactory) GetValidContentType() (string, error) { return f.contentType, nil }
func (f *stubFactory) GetRootParseNode(ct string, _ []byte) (ParseNode, error) {
	return &stubNode{contentType: ct}, nil
}

func TestCleanContentType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"application/json", "application/json"},
		{"Application/JSON; charset=utf-8", "application/json"},
		{"  text/plain ;q=0.9", "text/plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanContentType(tt.in); got != tt.want {
			t.Errorf("CleanContentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseNodeFactoryRegistry_GetRootParseNode(t *testing.T) {
	reg := NewParseNodeFactoryRegistry()
	if err := reg.Register(&stubFactory{contentType: "application/json"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		ct       string
		wantCode errors.ErrorCode
	}{
		{"exact", "application/json", ""},
		{"parameters", "application/json; charset=utf-8", ""},
		{"vendor", "application/vnd.github.v3+json", ""},
		{"unsupported", "application/xml", errors.ErrCodeUnsupportedMediaType},
		{"empty", "", errors.ErrCodeMissingField},
		{"malformed", "json", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := reg.GetRootParseNode(tt.ct, []byte("{}"))
			if tt.wantCode != "" {
				if !errors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if node == nil {
				t.Fatal("expected node")
			}
		})
	}
}

func TestParseNodeFactoryRegistry_NilContent(t *testing.T) {
	reg := NewParseNodeFactoryRegistry()
	_ = reg.Register(&stubFactory{contentType: "application/json"})
	if _, err := reg.GetRootParseNode("application/json", nil); !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Errorf("expected missing field, got %v", err)
	}
}

func TestParseNodeProxyFactory_ChainsHooks(t *testing.T) {
	var calls []string
	proxy := NewParseNodeProxyFactory(&stubFactory{contentType: "application/json"},
		func(Parsable) error { calls = append(calls, "proxy-before"); return nil },
		func(Parsable) error { calls = append(calls, "proxy-after"); return nil },
	)
	node, err := proxy.GetRootParseNode("application/json", []byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if err := node.GetOnBeforeAssignFieldValues()(nil); err != nil {
		t.Fatal(err)
	}
	if err := node.GetOnAfterAssignFieldValues()(nil); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != "proxy-before" || calls[1] != "proxy-after" {
		t.Errorf("unexpected hook calls %v", calls)
	}
	ct, _ := proxy.GetValidContentType()
	if ct != "application/json" {
		t.Errorf("GetValidContentType() = %q", ct)
	}
}
