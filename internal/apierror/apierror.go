// internal/apierror/apierror.go
// Normalizes heterogeneous engine error bodies into a single taxonomy.
package apierror

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/psyepez2005/LPDV-retoParqueTec/internal/models"
)

const (
	KindFieldValidation    models.ErrorKind = "FIELD_VALIDATION"
	KindSingleMessage      models.ErrorKind = "SINGLE_MESSAGE"
	KindUnknown            models.ErrorKind = "UNKNOWN"
	KindMalformedInput     models.ErrorKind = "MALFORMED_INPUT"
	KindAuthRequired       models.ErrorKind = "AUTH_REQUIRED"
	KindNetworkUnavailable models.ErrorKind = "NETWORK_UNAVAILABLE"
)

// messageSeparator joins per-field validation messages.
const messageSeparator = " · "

// valueErrorPrefix is the boilerplate pydantic puts in front of custom
// validator messages.
const valueErrorPrefix = "Value error, "

// Parsed is the taxonomy result. It is built once here and never
// re-inspected downstream.
type Parsed struct {
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

type fieldError struct {
	Msg string        `json:"msg"`
	Loc []interface{} `json:"loc"`
}

// Parse classifies an engine error body. The engine wraps errors in a
// "detail" field that is either a plain string (business-rule rejection)
// or an array of field errors (schema validation). Anything else,
// including bodies that are not JSON at all, degrades to UNKNOWN.
func Parse(status int, body []byte) Parsed {
	fallback := Parsed{
		Kind:    KindUnknown,
		Message: fmt.Sprintf("Error del servidor (HTTP %d)", status),
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 || string(envelope.Detail) == "null" {
		return fallback
	}

	var single string
	if err := json.Unmarshal(envelope.Detail, &single); err == nil {
		return Parsed{Kind: KindSingleMessage, Message: single}
	}

	var fields []fieldError
	if err := json.Unmarshal(envelope.Detail, &fields); err == nil && len(fields) > 0 {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg == "" {
				continue
			}
			msgs = append(msgs, strings.TrimPrefix(f.Msg, valueErrorPrefix))
		}
		if len(msgs) > 0 {
			return Parsed{Kind: KindFieldValidation, Message: strings.Join(msgs, messageSeparator)}
		}
	}

	return fallback
}
