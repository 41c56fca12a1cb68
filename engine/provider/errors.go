package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
)

// ErrNoData is returned when a provider answers successfully but holds
// nothing for the registration.
var ErrNoData = errors.New("no data found")

// Category classifies provider failures.
type Category string

const (
	CategoryNotFound       Category = "not_found"
	CategoryAuthentication Category = "authentication"
	CategoryBadData        Category = "bad_data"
	CategoryOutage         Category = "provider_outage"
	CategoryTimeout        Category = "timeout"
	CategoryInternal       Category = "internal"
)

// Error is a failed provider call.
type Error struct {
	Provider   Name
	Category   Category
	StatusCode int
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

// Reason is the short form used in footers: the HTTP status when there
// was one, otherwise the message.
func (e *Error) Reason() string {
	if e.StatusCode != 0 {
		return strconv.Itoa(e.StatusCode)
	}
	return e.Message
}

func newError(name Name, cat Category, msg string, underlying error) *Error {
	return &Error{Provider: name, Category: cat, Message: msg, Underlying: underlying}
}

func noDataError(name Name) *Error {
	return newError(name, CategoryNotFound, ErrNoData.Error(), ErrNoData)
}

func statusError(name Name, code int) *Error {
	cat := CategoryBadData
	switch {
	case code == http.StatusNotFound:
		cat = CategoryNotFound
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		cat = CategoryAuthentication
	case code == http.StatusTooManyRequests, code >= 500:
		cat = CategoryOutage
	}
	e := newError(name, cat, fmt.Sprintf("unexpected status %d", code), nil)
	e.StatusCode = code
	return e
}

func transportError(name Name, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return newError(name, CategoryTimeout, "request timed out", err)
	}
	return newError(name, CategoryOutage, "request failed", err)
}

// CategoryOf returns the category of a provider error, or CategoryInternal
// for anything else.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}

// Reason returns the short failure reason for err.
func Reason(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
