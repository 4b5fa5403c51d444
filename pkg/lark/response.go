package lark

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is a decoded Lark response envelope
type Response[T any] interface {
	// Code returns the business code, 0 on success
	Code() uint64

	// Message returns the message sent with the code
	Message() string

	// IsSuccess reports whether Code is 0
	IsSuccess() bool

	// Data returns the payload; ok is false when the call failed or no payload was sent
	Data() (data T, ok bool)
}

// NewEnvelope returns the envelope matching the flatten flag of a request
func NewEnvelope[T any](flatten bool) Response[T] {
	if flatten {
		return &FlattenResponse[T]{}
	}
	return &BodyResponse[T]{}
}

// BodyResponse is the nested envelope {"code": 0, "msg": "...", "data": {...}}.
// data is decoded only when code has been read and is 0; otherwise it is
// skipped whatever its shape. Unknown top-level fields are rejected.
type BodyResponse[T any] struct {
	code uint64
	msg  string
	data *T
}

func (r *BodyResponse[T]) Code() uint64    { return r.code }
func (r *BodyResponse[T]) Message() string { return r.msg }
func (r *BodyResponse[T]) IsSuccess() bool { return r.code == 0 }

func (r *BodyResponse[T]) Data() (T, bool) {
	if r.code != 0 || r.data == nil {
		var zero T
		return zero, false
	}
	return *r.data, true
}

// UnmarshalJSON decodes the envelope fields in wire order
func (r *BodyResponse[T]) UnmarshalJSON(b []byte) error {
	*r = BodyResponse[T]{}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("invalid type: expected a response envelope object, got %s", describeToken(tok))
	}

	var hasCode, hasMsg bool
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		// a repeated key overwrites the earlier value
		switch key {
		case "code":
			if err := dec.Decode(&r.code); err != nil {
				return fmt.Errorf("field `code`: %w", err)
			}
			hasCode = true
		case "msg":
			if err := dec.Decode(&r.msg); err != nil {
				return fmt.Errorf("field `msg`: %w", err)
			}
			hasMsg = true
		case "data":
			if hasCode && r.code == 0 {
				var data *T
				if err := dec.Decode(&data); err != nil {
					return fmt.Errorf("field `data`: %w", err)
				}
				r.data = data
				continue
			}
			var skipped json.RawMessage
			if err := dec.Decode(&skipped); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown field `%s`, expected one of `code`, `msg`, `data`", key)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	if !hasCode {
		return missingField("code")
	}
	if !hasMsg {
		return missingField("msg")
	}
	return nil
}

// FlattenResponse is the flat envelope {"code": 0, "msg": "...", "field": ...}
// where the payload fields sit next to code and msg
type FlattenResponse[T any] struct {
	code uint64
	msg  string
	data T
}

func (r *FlattenResponse[T]) Code() uint64    { return r.code }
func (r *FlattenResponse[T]) Message() string { return r.msg }
func (r *FlattenResponse[T]) IsSuccess() bool { return r.code == 0 }

func (r *FlattenResponse[T]) Data() (T, bool) {
	if r.code != 0 {
		var zero T
		return zero, false
	}
	return r.data, true
}

// UnmarshalJSON decodes code and msg, then the whole object into T on success
func (r *FlattenResponse[T]) UnmarshalJSON(b []byte) error {
	*r = FlattenResponse[T]{}

	var head struct {
		Code *uint64 `json:"code"`
		Msg  *string `json:"msg"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if head.Code == nil {
		return missingField("code")
	}
	if head.Msg == nil {
		return missingField("msg")
	}

	r.code = *head.Code
	r.msg = *head.Msg
	if r.code != 0 {
		return nil
	}
	return json.Unmarshal(b, &r.data)
}

func missingField(name string) error {
	return fmt.Errorf("missing field `%s`", name)
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		return string(v)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
