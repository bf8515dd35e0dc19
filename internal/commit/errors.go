package commit

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a commit or rollback failure for the caller.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindForbidden        Kind = "forbidden"
	KindNotReady         Kind = "not_ready"
	KindAlreadyCommitted Kind = "already_committed"
	KindInternal         Kind = "internal"
)

// HTTPStatus maps a kind onto the status code the API returns for it.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindNotReady, KindAlreadyCommitted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed failure returned by Engine operations.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string // validation messages keyed by request path
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(": ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(k + ": " + e.Fields[k])
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or KindInternal for any other
// non-nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Msg: "invalid commit request", Fields: fields}
}
