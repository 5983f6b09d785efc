package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEnvelope is returned when a response does not have the expected shape.
var ErrEnvelope = errors.New("apiclient: unexpected response envelope")

// Shape names where the payload sits in a success response.
type Shape int

const (
	// ShapeBare is the payload itself, e.g. a top-level array.
	ShapeBare Shape = iota
	// ShapeContent is {"content": payload}, used by paged listings.
	ShapeContent
	// ShapeData is {"data": payload}.
	ShapeData
	// ShapeDataContent is {"data": {"content": payload}}.
	ShapeDataContent
)

func (s Shape) String() string {
	switch s {
	case ShapeBare:
		return "bare"
	case ShapeContent:
		return "content"
	case ShapeData:
		return "data"
	case ShapeDataContent:
		return "data.content"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Result is the {data, message, success} envelope some endpoints return.
type Result[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Unwrap decodes the payload found at shape into T. A missing or null
// envelope field is ErrEnvelope.
func Unwrap[T any](raw json.RawMessage, shape Shape) (T, error) {
	var out T

	payload, err := extract(raw, shape)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("%w: %s payload: %v", ErrEnvelope, shape, err)
	}
	return out, nil
}

func extract(raw json.RawMessage, shape Shape) (json.RawMessage, error) {
	switch shape {
	case ShapeBare:
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: empty body", ErrEnvelope)
		}
		return raw, nil
	case ShapeContent:
		return field(raw, "content")
	case ShapeData:
		return field(raw, "data")
	case ShapeDataContent:
		data, err := field(raw, "data")
		if err != nil {
			return nil, err
		}
		return field(data, "content")
	default:
		return nil, fmt.Errorf("%w: unknown shape %s", ErrEnvelope, shape)
	}
}

func field(raw json.RawMessage, name string) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: want object with %q", ErrEnvelope, name)
	}
	v, ok := obj[name]
	if !ok || string(v) == "null" {
		return nil, fmt.Errorf("%w: missing %q", ErrEnvelope, name)
	}
	return v, nil
}
