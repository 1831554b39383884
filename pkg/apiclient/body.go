package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// BodyKind tells how a response body was interpreted.
type BodyKind int

const (
	// BodyEmpty means no usable content: an empty body, or a body declared as
	// JSON that failed to parse.
	BodyEmpty BodyKind = iota
	// BodyJSON holds a decoded JSON value.
	BodyJSON
	// BodyText holds a body that was not JSON, kept verbatim.
	BodyText
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyText:
		return "text"
	default:
		return "empty"
	}
}

// Body is a response body after content sniffing.
type Body struct {
	Kind BodyKind
	// Value is the decoded JSON value for BodyJSON and the string for BodyText.
	Value any
	// Raw is the body as received. It is kept for BodyEmpty parse failures too.
	Raw []byte
}

// Data returns the normalized payload: nil for BodyEmpty, otherwise Value.
func (b Body) Data() any {
	if b.Kind == BodyEmpty {
		return nil
	}
	return b.Value
}

// ErrNoContent is returned by Decode when the response carried no data.
var ErrNoContent = errors.New("response has no content")

// Response is the normalized result of a successful call.
type Response struct {
	Body   Body
	Status int
	Header http.Header
}

// Data returns the parsed body, or nil when there is no content. A nil Data
// is not an error.
func (r *Response) Data() any {
	if r == nil {
		return nil
	}
	return r.Body.Data()
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || r.Body.Kind == BodyEmpty {
		return ErrNoContent
	}
	if r.Body.Kind != BodyJSON {
		return fmt.Errorf("decode response: body is %s, not json", r.Body.Kind)
	}
	if err := json.Unmarshal(r.Body.Raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseBody interprets raw according to the declared content type. Bodies
// declared as JSON that fail to parse come back as BodyEmpty together with the
// parse error; every other body is tried as JSON first (the backend labels JSON
// as text/plain) and kept as text when that fails.
func parseBody(contentType string, raw []byte) (Body, error) {
	if len(raw) == 0 {
		return Body{Kind: BodyEmpty}, nil
	}

	var value any
	err := json.Unmarshal(raw, &value)

	if isJSONContentType(contentType) {
		if err != nil {
			return Body{Kind: BodyEmpty, Raw: raw}, err
		}
		return Body{Kind: BodyJSON, Value: value, Raw: raw}, nil
	}

	if err == nil {
		return Body{Kind: BodyJSON, Value: value, Raw: raw}, nil
	}
	return Body{Kind: BodyText, Value: string(raw), Raw: raw}, nil
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

func isHTMLContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// NewJSONBody serializes v for use as Request.Body. A nil v yields a nil body.
func NewJSONBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.([]byte); ok {
		return raw, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return out, nil
}
