package jsonserialization

import (
	"strings"
	"testing"

	"github.com/kbukum/kiotahttp/errors"
	"github.com/kbukum/kiotahttp/serialization"
)

type person struct {
	name       *string
	age        *int32
	tags       []string
	additional map[string]any
}

func newPerson(serialization.ParseNode) (serialization.Parsable, error) {
	return &person{}, nil
}

func (p *person) GetFieldDeserializers() map[string]func(serialization.ParseNode) error {
	return map[string]func(serialization.ParseNode) error{
		"name": func(n serialization.ParseNode) error {
			v, err := n.GetStringValue()
			p.name = v
			return err
		},
		"age": func(n serialization.ParseNode) error {
			v, err := n.GetInt32Value()
			p.age = v
			return err
		},
		"tags": func(n serialization.ParseNode) error {
			vals, err := n.GetCollectionOfPrimitiveValues("string")
			if err != nil {
				return err
			}
			for _, v := range vals {
				if s, ok := v.(*string); ok && s != nil {
					p.tags = append(p.tags, *s)
				}
			}
			return nil
		},
	}
}

func (p *person) Serialize(w serialization.SerializationWriter) error {
	if err := w.WriteStringValue("name", p.name); err != nil {
		return err
	}
	if err := w.WriteInt32Value("age", p.age); err != nil {
		return err
	}
	if err := w.WriteCollectionOfStringValues("tags", p.tags); err != nil {
		return err
	}
	return w.WriteAdditionalData(p.additional)
}

func (p *person) GetAdditionalData() map[string]any      { return p.additional }
func (p *person) SetAdditionalData(value map[string]any) { p.additional = value }

func TestParseNode_GetObjectValue(t *testing.T) {
	node, err := NewParseNode([]byte(`{"name":"ada","age":36,"tags":["math","code"],"extra":7,"ratio":0.5}`))
	if err != nil {
		t.Fatalf("NewParseNode() error = %v", err)
	}
	v, err := node.GetObjectValue(newPerson)
	if err != nil {
		t.Fatalf("GetObjectValue() error = %v", err)
	}
	p := v.(*person)
	if p.name == nil || *p.name != "ada" {
		t.Errorf("name = %v", p.name)
	}
	if p.age == nil || *p.age != 36 {
		t.Errorf("age = %v", p.age)
	}
	if len(p.tags) != 2 || p.tags[1] != "code" {
		t.Errorf("tags = %v", p.tags)
	}
	if p.additional["extra"] != int64(7) {
		t.Errorf("extra = %#v, want int64(7)", p.additional["extra"])
	}
	if p.additional["ratio"] != 0.5 {
		t.Errorf("ratio = %#v, want 0.5", p.additional["ratio"])
	}
}

func TestParseNode_Hooks(t *testing.T) {
	node, err := NewParseNode([]byte(`{"name":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	var calls []string
	_ = node.SetOnBeforeAssignFieldValues(func(serialization.Parsable) error {
		calls = append(calls, "before")
		return nil
	})
	_ = node.SetOnAfterAssignFieldValues(func(serialization.Parsable) error {
		calls = append(calls, "after")
		return nil
	})
	if _, err := node.GetObjectValue(newPerson); err != nil {
		t.Fatal(err)
	}
	if strings.Join(calls, ",") != "before,after" {
		t.Errorf("hook order = %v", calls)
	}
}

func TestParseNode_Collections(t *testing.T) {
	node, err := NewParseNode([]byte(`[{"name":"a"},{"name":"b"}]`))
	if err != nil {
		t.Fatal(err)
	}
	items, err := node.GetCollectionOfObjectValues(newPerson)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || *items[1].(*person).name != "b" {
		t.Errorf("unexpected items %v", items)
	}

	prims, err := NewParseNode([]byte(`[1, null, 3]`))
	if err != nil {
		t.Fatal(err)
	}
	vals, err := prims.GetCollectionOfPrimitiveValues("int64")
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vals))
	}
	if *vals[0].(*int64) != 1 || vals[1] != nil || *vals[2].(*int64) != 3 {
		t.Errorf("unexpected values %v", vals)
	}
}

func TestParseNode_Primitives(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		read    func(*ParseNode) (any, error)
		want    any
		wantErr bool
	}{
		{"string", `"hi"`, func(n *ParseNode) (any, error) { v, err := n.GetStringValue(); return *v, err }, "hi", false},
		{"bool", `true`, func(n *ParseNode) (any, error) { v, err := n.GetBoolValue(); return *v, err }, true, false},
		{"int64", `42`, func(n *ParseNode) (any, error) { v, err := n.GetInt64Value(); return *v, err }, int64(42), false},
		{"float64", `1.25`, func(n *ParseNode) (any, error) { v, err := n.GetFloat64Value(); return *v, err }, 1.25, false},
		{"byte overflow", `300`, func(n *ParseNode) (any, error) { _, err := n.GetByteValue(); return nil, err }, nil, true},
		{"wrong type", `"x"`, func(n *ParseNode) (any, error) { _, err := n.GetBoolValue(); return nil, err }, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewParseNode([]byte(tt.payload))
			if err != nil {
				t.Fatal(err)
			}
			got, err := tt.read(node)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseNode_GetTimeAndUUID(t *testing.T) {
	node, err := NewParseNode([]byte(`{"at":"2024-03-01T10:00:00Z","id":"5b0e0b4e-8f3a-4a43-9f1c-8d6f3c1a2b7e"}`))
	if err != nil {
		t.Fatal(err)
	}
	at, _ := node.GetChildNode("at")
	ts, err := at.GetTimeValue()
	if err != nil || ts.Year() != 2024 {
		t.Errorf("GetTimeValue() = %v, %v", ts, err)
	}
	id, _ := node.GetChildNode("id")
	u, err := id.GetUUIDValue()
	if err != nil || u.String() != "5b0e0b4e-8f3a-4a43-9f1c-8d6f3c1a2b7e" {
		t.Errorf("GetUUIDValue() = %v, %v", u, err)
	}
	missing, err := node.GetChildNode("nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil node for missing property, got %v, %v", missing, err)
	}
}

func TestNewParseNode_Errors(t *testing.T) {
	if _, err := NewParseNode(nil); !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Errorf("expected missing field error, got %v", err)
	}
	if _, err := NewParseNode([]byte(`{bad`)); !errors.HasCode(err, errors.ErrCodeSerialization) {
		t.Errorf("expected serialization error, got %v", err)
	}
}

func TestNewParseNode_TrailingData(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "trailing garbage", content: `22.3 garbage{`, wantErr: true},
		{name: "second value", content: `{"a":1} {"b":2}`, wantErr: true},
		{name: "comma separated", content: `1, 2`, wantErr: true},
		{name: "trailing whitespace", content: "{\"a\":1}\n\t ", wantErr: false},
		{name: "leading whitespace", content: "  \n22.3", wantErr: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParseNode([]byte(tt.content))
			if tt.wantErr && !errors.HasCode(err, errors.ErrCodeSerialization) {
				t.Errorf("expected serialization error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSerializationWriter_WriteObjectValue(t *testing.T) {
	name := "ada"
	age := int32(36)
	p := &person{name: &name, age: &age, tags: []string{"a", "b"}, additional: map[string]any{"extra": 1}}

	w := NewSerializationWriter()
	if err := w.WriteObjectValue("", p); err != nil {
		t.Fatal(err)
	}
	got, err := w.GetSerializedContent()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":"ada","age":36,"tags":["a","b"],"extra":1}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSerializationWriter_Escaping(t *testing.T) {
	s := "quote \" and <tag>"
	w := NewSerializationWriter()
	if err := w.WriteObjectValue("", &person{name: &s}); err != nil {
		t.Fatal(err)
	}
	got, _ := w.GetSerializedContent()
	node, err := NewParseNode(got)
	if err != nil {
		t.Fatalf("written payload does not decode: %v (%s)", err, got)
	}
	v, _ := node.GetObjectValue(newPerson)
	if *v.(*person).name != s {
		t.Errorf("round trip mismatch: %q", *v.(*person).name)
	}
}

func TestSerializationWriter_Hooks(t *testing.T) {
	var calls []string
	w := NewSerializationWriter()
	_ = w.SetOnBeforeSerialization(func(serialization.Parsable) error { calls = append(calls, "before"); return nil })
	_ = w.SetOnStartObjectSerialization(func(_ serialization.Parsable, sw serialization.SerializationWriter) error {
		calls = append(calls, "start")
		return sw.WriteNullValue("cleared")
	})
	_ = w.SetOnAfterObjectSerialization(func(serialization.Parsable) error { calls = append(calls, "after"); return nil })

	if err := w.WriteObjectValue("", &person{}); err != nil {
		t.Fatal(err)
	}
	got, _ := w.GetSerializedContent()
	if string(got) != `{"cleared":null}` {
		t.Errorf("got %s", got)
	}
	if strings.Join(calls, ",") != "before,start,after" {
		t.Errorf("hook order = %v", calls)
	}
}

func TestFactories(t *testing.T) {
	reg := serialization.NewParseNodeFactoryRegistry()
	if err := reg.Register(NewParseNodeFactory()); err != nil {
		t.Fatal(err)
	}
	node, err := reg.GetRootParseNode("application/vnd.example+json; charset=utf-8", []byte(`"ok"`))
	if err != nil {
		t.Fatalf("vendor content type should fall back to json: %v", err)
	}
	s, _ := node.GetStringValue()
	if *s != "ok" {
		t.Errorf("got %q", *s)
	}

	wreg := serialization.NewSerializationWriterFactoryRegistry()
	if err := wreg.Register(NewSerializationWriterFactory()); err != nil {
		t.Fatal(err)
	}
	if _, err := wreg.GetSerializationWriter("Application/JSON"); err != nil {
		t.Errorf("GetSerializationWriter() error = %v", err)
	}
}
