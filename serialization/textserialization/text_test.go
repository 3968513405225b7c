package textserialization

import (
	"testing"

	"github.com/kbukum/kiotahttp/errors"
)

func TestParseNode_Scalars(t *testing.T) {
	node, err := NewParseNode([]byte(`"42"`))
	if err != nil {
		t.Fatal(err)
	}
	s, _ := node.GetStringValue()
	if *s != "42" {
		t.Errorf("GetStringValue() = %q", *s)
	}
	i, err := node.GetInt64Value()
	if err != nil || *i != 42 {
		t.Errorf("GetInt64Value() = %v, %v", i, err)
	}
	if _, err := node.GetBoolValue(); !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected invalid format, got %v", err)
	}
}

func TestParseNode_RejectsStructures(t *testing.T) {
	node, _ := NewParseNode([]byte("x"))
	if _, err := node.GetObjectValue(nil); err == nil {
		t.Error("expected error for object values")
	}
	if _, err := node.GetCollectionOfPrimitiveValues("string"); err == nil {
		t.Error("expected error for collections")
	}
}

func TestSerializationWriter(t *testing.T) {
	tests := []struct {
		name    string
		write   func(*SerializationWriter) error
		want    string
		wantErr bool
	}{
		{"string", func(w *SerializationWriter) error { s := "hi"; return w.WriteStringValue("", &s) }, "hi", false},
		{"int32", func(w *SerializationWriter) error { v := int32(7); return w.WriteInt32Value("", &v) }, "7", false},
		{"keyed", func(w *SerializationWriter) error { s := "hi"; return w.WriteStringValue("k", &s) }, "", true},
		{"twice", func(w *SerializationWriter) error {
			s := "a"
			if err := w.WriteStringValue("", &s); err != nil {
				return err
			}
			return w.WriteStringValue("", &s)
		}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewSerializationWriter()
			err := tt.write(w)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, _ := w.GetSerializedContent()
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
