package apperrors

import (
	"errors"
	"strings"
)

// appError implements the apperrors.Error interface.
// Package level errors are roots; every derivation returns a new value whose base is the
// receiver, so a shared root is never mutated by a call site.
type appError struct {
	msg           string
	base          Error
	wrappedErrors []error
	expandError   bool
	prefix        string
	suffix        string
}

func (e *appError) derive() *appError {
	return &appError{
		msg:         e.msg,
		base:        e,
		expandError: e.expandError,
		prefix:      e.prefix,
		suffix:      e.suffix,
	}
}

func (e *appError) Error() string {
	msg := e.msg
	if e.prefix != "" {
		msg = e.prefix + ": " + msg
	}
	if e.suffix != "" {
		msg += ": " + e.suffix
	}
	return msg
}

func (e *appError) ErrorAll() string {
	if !e.expandError || len(e.wrappedErrors) == 0 {
		return e.Error()
	}
	msgs := make([]string, 0, len(e.wrappedErrors))
	for _, err := range e.wrappedErrors {
		msgs = append(msgs, err.Error())
	}
	return e.Error() + ": " + strings.Join(msgs, ";")
}

func (e *appError) Unwrap() []error {
	return e.wrappedErrors
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:  msg,
		base: e,
	}
}

func (e *appError) Msg(msg string) Error {
	d := e.derive()
	d.msg = msg
	return d
}

func (e *appError) Prefix(prefix string) Error {
	d := e.derive()
	d.prefix = prefix
	return d
}

func (e *appError) Suffix(suffix string) Error {
	d := e.derive()
	d.suffix = suffix
	return d
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	d := e.derive()
	d.msg = msg
	d.wrappedErrors = append(d.wrappedErrors, err...)
	return d
}

func (e *appError) Err(err ...error) Error {
	d := e.derive()
	d.wrappedErrors = append(d.wrappedErrors, err...)
	return d
}

func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if e == target {
		return true
	}
	if e.base != nil && (e.base == target || e.base.Is(target)) {
		return true
	}
	for _, err := range e.wrappedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// SetExpandError is meant for package level declarations; it changes the receiver.
func (e *appError) SetExpandError(expand bool) Error {
	e.expandError = expand
	return e
}

func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}
