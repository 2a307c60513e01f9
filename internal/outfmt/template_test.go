package outfmt

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteTemplate_Fields(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]string{"name": "test", "id": "123"}
	if err := WriteTemplate(&buf, data, "{{.id}}: {{.name}}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "123: test" {
		t.Errorf("expected '123: test', got: %s", buf.String())
	}
}

func TestWriteTemplate_MissingKeyIsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf, map[string]any{}, "[{{.missing}}]"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "[<no value>]" && buf.String() != "[]" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWriteTemplate_JSONFunc(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf, map[string]any{"tags": []any{"a"}}, "{{json .tags}}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != `["a"]` {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteTemplate_JoinFunc(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf, map[string]any{"ids": []any{1, 2, 3}}, `{{join "," .ids}}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "1,2,3" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteTemplate_ParseError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTemplate(&buf, nil, "{{.name")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.HasPrefix(err.Error(), "invalid template") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteTemplate_ExecError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTemplate(&buf, map[string]any{"n": "x"}, "{{index .n 5}}")
	if err == nil {
		t.Fatal("expected execution error")
	}
	if !strings.Contains(err.Error(), "template execution error") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateTemplate(t *testing.T) {
	if err := ValidateTemplate(""); err != nil {
		t.Errorf("empty template: %v", err)
	}
	if err := ValidateTemplate("{{.ok}}"); err != nil {
		t.Errorf("valid template: %v", err)
	}
	if err := ValidateTemplate("{{end}}"); err == nil {
		t.Error("expected error for stray end")
	}
}
