package ingest_test

import (
	"encoding/json"
	"errors"
	"testing"

	"tagtrack/internal/ingest"
)

func TestDecodeContentKinds(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  ingest.Kind
		count int
	}{
		{name: "array", raw: `[{"name":"Tag 1"},{"name":"Tag 2"}]`, kind: ingest.KindStructured, count: 2},
		{name: "object", raw: `{"name":"Tag 1"}`, kind: ingest.KindStructured, count: 1},
		{name: "empty array", raw: `[]`, kind: ingest.KindStructured, count: 0},
		{name: "scalar", raw: `42`, kind: ingest.KindStructured, count: 1},
		{name: "text array", raw: `"[{\"name\":\"Tag 1\"},{\"name\":\"Tag 2\"},{}]"`, kind: ingest.KindText, count: 3},
		{name: "text garbage", raw: `"not json"`, kind: ingest.KindText, count: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := ingest.DecodeContent(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("DecodeContent: %v", err)
			}
			if content.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", content.Kind, tt.kind)
			}
			if got := content.ItemCount(); got != tt.count {
				t.Fatalf("ItemCount = %d, want %d", got, tt.count)
			}
		})
	}
}

func TestDecodeContentRejectsMissing(t *testing.T) {
	for _, raw := range []string{"", "  ", "null"} {
		_, err := ingest.DecodeContent(json.RawMessage(raw))
		if !errors.Is(err, ingest.ErrContentRequired) {
			t.Fatalf("DecodeContent(%q) = %v, want ErrContentRequired", raw, err)
		}
		if !ingest.IsValidation(err) {
			t.Fatalf("expected validation error for %q", raw)
		}
	}
	if _, err := ingest.DecodeContent(json.RawMessage(`{"a":`)); !ingest.IsValidation(err) {
		t.Fatalf("expected validation error for malformed json, got %v", err)
	}
}

func TestTextContentParseFailure(t *testing.T) {
	content, err := ingest.DecodeContent(json.RawMessage(`"{broken"`))
	if err != nil {
		t.Fatalf("DecodeContent: %v", err)
	}
	_, err = content.Items()
	var perr *ingest.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.ErrorKind() != "parse" {
		t.Fatalf("unexpected kind %q", perr.ErrorKind())
	}
}
