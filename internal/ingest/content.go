package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags how a payload was submitted.
type Kind int

const (
	// KindStructured is a JSON array, object, or non-string scalar.
	KindStructured Kind = iota
	// KindText is a JSON string whose value is itself JSON text.
	KindText
)

func (k Kind) String() string {
	if k == KindText {
		return "text"
	}
	return "structured"
}

// Content is a decoded payload. Raw is the verbatim JSON value.
type Content struct {
	Kind Kind
	Raw  json.RawMessage
	Text string
}

// DecodeContent classifies raw. Missing content and JSON null are rejected
// with ErrContentRequired; malformed JSON is a ValidationError.
func DecodeContent(raw json.RawMessage) (Content, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Content{}, &ValidationError{Field: "content", Err: ErrContentRequired}
	}
	if !json.Valid(trimmed) {
		return Content{}, &ValidationError{Field: "content", Err: errors.New("content is not valid JSON")}
	}
	content := Content{Kind: KindStructured, Raw: append(json.RawMessage(nil), trimmed...)}
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &content.Text); err != nil {
			return Content{}, &ValidationError{Field: "content", Err: err}
		}
		content.Kind = KindText
	}
	return content, nil
}

// Value returns the decoded payload. Text content is parsed first; failures
// are reported as *ParseError.
func (c Content) Value() (any, error) {
	var (
		value any
		src   = []byte(c.Raw)
	)
	if c.Kind == KindText {
		src = []byte(c.Text)
	}
	if err := json.Unmarshal(src, &value); err != nil {
		if c.Kind == KindText {
			return nil, &ParseError{Err: err}
		}
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return value, nil
}

// Items returns the item sequence: array elements, or the single value.
func (c Content) Items() ([]any, error) {
	value, err := c.Value()
	if err != nil {
		return nil, err
	}
	if items, ok := value.([]any); ok {
		return items, nil
	}
	return []any{value}, nil
}

// ItemCount is the array length when the payload is an array, else 1.
func (c Content) ItemCount() int {
	items, err := c.Items()
	if err != nil {
		return 1
	}
	return len(items)
}
