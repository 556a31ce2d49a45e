package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeSessionMissing      Code = "SESSION_MISSING"
	CodeNetwork             Code = "NETWORK_FAILURE"
	CodeIntentCreation      Code = "INTENT_CREATION_FAILED"
	CodeSDKUnavailable      Code = "SDK_UNAVAILABLE"
	CodePaymentConfirmation Code = "PAYMENT_CONFIRMATION_FAILED"
	CodeInvalidAccess       Code = "INVALID_ACCESS"
	CodeOrderMismatch       Code = "ORDER_MISMATCH"
	CodeNotFound            Code = "NOT_FOUND"
	CodeStateConflict       Code = "STATE_CONFLICT"
	CodeInternal            Code = "INTERNAL_ERROR"
	CodeDependency          Code = "DEPENDENCY_ERROR"
)

// Action is the single forward step offered to the shopper alongside an error.
type Action string

const (
	ActionNone          Action = ""
	ActionRetryCheckout Action = "retry_checkout"
	ActionViewOrders    Action = "view_orders"
	ActionGoToMenu      Action = "go_to_menu"
	ActionSignIn        Action = "sign_in"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	Action         Action
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "the order could not be placed because some details were invalid",
		DetailsAllowed: true,
		Action:         ActionRetryCheckout,
	},
	CodeSessionMissing: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "your session has ended, please sign in again",
		Action:        ActionSignIn,
	},
	CodeNetwork: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Retryable:     true,
		PublicMessage: "we could not reach the ordering service, please try again",
		Action:        ActionRetryCheckout,
	},
	CodeIntentCreation: {
		HTTPStatus:     http.StatusBadGateway,
		PublicMessage:  "the payment could not be started",
		DetailsAllowed: true,
		Action:         ActionRetryCheckout,
	},
	CodeSDKUnavailable: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "this payment method is currently unavailable",
		Action:        ActionRetryCheckout,
	},
	CodePaymentConfirmation: {
		HTTPStatus:     http.StatusBadGateway,
		PublicMessage:  "the payment could not be confirmed",
		DetailsAllowed: true,
		Action:         ActionRetryCheckout,
	},
	CodeInvalidAccess: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "this page was opened without the information it needs",
		Action:        ActionGoToMenu,
	},
	CodeOrderMismatch: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "we could not match this payment to your order, please check your order history",
		Action:        ActionViewOrders,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		Action:        ActionGoToMenu,
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
		Action:         ActionRetryCheckout,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "something went wrong on our side",
		Action:        ActionGoToMenu,
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
		Action:         ActionGoToMenu,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain,
// including causes of an outer *Error and every branch of a joined error.
func HasCode(err error, code Code) bool {
	for err != nil {
		if typed, ok := err.(*Error); ok && typed != nil && typed.code == code {
			return true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, branch := range joined.Unwrap() {
				if HasCode(branch, code) {
					return true
				}
			}
			return false
		}
		err = stdErrors.Unwrap(err)
	}
	return false
}
