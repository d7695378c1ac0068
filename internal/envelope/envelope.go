// Package envelope classifies the portal's uniform response wrapper
// {code, message, data}. It performs no I/O.
package envelope

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultBusinessMessage is used when a failing envelope carries no message.
const DefaultBusinessMessage = "unknown business error"

// Kind is the classification of a response body.
type Kind int

const (
	KindOK Kind = iota
	KindEmpty
	KindMalformed
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindEmpty:
		return "empty"
	case KindMalformed:
		return "malformed"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// Envelope is the wire shape of every portal response.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Result is the outcome of Interpret. Data is set for KindOK, Message for
// KindBusiness. Code is the envelope code when one could be read.
type Result struct {
	Kind    Kind
	Code    int
	Data    json.RawMessage
	Message string
}

// OK reports whether the body carried a success envelope.
func (r Result) OK() bool { return r.Kind == KindOK }

// IsSuccessCode reports whether code is one of the success envelope codes.
func IsSuccessCode(code int) bool {
	return code == 200 || code == 201
}

// Interpret classifies raw. Absent or falsy JSON bodies are empty, anything
// that is not a JSON object or array is malformed, objects succeed only
// with code 200 or 201.
func Interpret(raw []byte) Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Result{Kind: KindEmpty}
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return Result{Kind: KindMalformed}
	}

	switch v := value.(type) {
	case nil:
		return Result{Kind: KindEmpty}
	case bool:
		if !v {
			return Result{Kind: KindEmpty}
		}
		return Result{Kind: KindMalformed}
	case float64:
		if v == 0 {
			return Result{Kind: KindEmpty}
		}
		return Result{Kind: KindMalformed}
	case string:
		if v == "" {
			return Result{Kind: KindEmpty}
		}
		return Result{Kind: KindMalformed}
	case []any:
		return Result{Kind: KindBusiness, Message: DefaultBusinessMessage}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Result{Kind: KindMalformed}
	}

	code, hasCode := readCode(fields["code"])
	if hasCode && IsSuccessCode(code) {
		data := fields["data"]
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		return Result{Kind: KindOK, Code: code, Data: data}
	}

	return Result{Kind: KindBusiness, Code: code, Message: readMessage(fields["message"])}
}

// MessageOf extracts a non-empty "message" field from a JSON object body.
func MessageOf(raw []byte) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &fields); err != nil {
		return "", false
	}
	return messageField(fields["message"])
}

func readCode(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		i = int64(f)
	}
	return int(i), true
}

func readMessage(raw json.RawMessage) string {
	if msg, ok := messageField(raw); ok {
		return msg
	}
	return DefaultBusinessMessage
}

func messageField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil || strings.TrimSpace(msg) == "" {
		return "", false
	}
	return msg, true
}
