package models

import "errors"

// Kind classifies a failure by the stage of a run that produced it.
type Kind string

const (
	KindLoad      Kind = "load"
	KindFetch     Kind = "fetch"
	KindParse     Kind = "parse"
	KindTransform Kind = "transform"
	KindWrite     Kind = "write"
)

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns nil when err is nil.
func NewError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
