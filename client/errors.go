package client

import (
	"errors"
	"fmt"

	"github.com/mmdatafocus/shop_console/models"
)

// Kind classifies every failure a console operation can surface.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindHTTP       Kind = "http"
	KindDomain     Kind = "domain"
	KindValidation Kind = "validation"
)

type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s: api error %d: %s", e.Op, e.Status, e.Message)
	case KindTransport:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the short notification shown to the user.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTransport:
		return "Could not reach the server. Check your connection and try again."
	case KindHTTP:
		if e.Status == 401 || e.Status == 403 {
			return "You are not allowed to do this."
		}
		if e.Status == 404 {
			return "The record was not found."
		}
		if e.Message != "" && e.Status < 500 {
			return e.Message
		}
		return "The server could not complete the request."
	}
	if e.Message != "" {
		return e.Message
	}
	return "Something went wrong."
}

func newTransportError(op string, message string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: message, Err: err}
}

func newValidationError(op string, err *models.ValidationError) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: err.Error(), Err: err}
}

// KindOf reports the kind of err; plain local validation errors count as validation.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return KindValidation, true
	}
	return "", false
}

// UserMessage normalizes any error into a short notification.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindValidation {
			var ve *models.ValidationError
			if errors.As(e.Err, &ve) {
				return ve.Message
			}
		}
		return e.UserMessage()
	}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return "Something went wrong."
}
