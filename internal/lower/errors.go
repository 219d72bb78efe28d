package lower

import (
	"errors"
	"fmt"
)

// ErrorClass categorizes lowering failures. Every class is fatal for the
// test case being converted.
type ErrorClass string

const (
	// ClassValidation covers address-correspondence and output-area violations.
	ClassValidation ErrorClass = "VALIDATION"

	// ClassConfigShape covers malformed nesting and inconsistent coordinates.
	ClassConfigShape ErrorClass = "CONFIG_SHAPE"

	// ClassDomain covers field codes outside their encoding.
	ClassDomain ErrorClass = "DOMAIN"
)

// Error codes (E200-E229).
const (
	CodeAddressMatch     = "E201" // memory block start matches 0 or ≥2 named addresses
	CodeOutputAreaCount  = "E202" // expected exactly one output area
	CodeMissingReceive   = "E203" // receive enabled without a router output area
	CodeMultipleSend     = "E204" // more than one router send block
	CodeConfigShape      = "E211" // malformed nesting
	CodeChipDisagreement = "E212" // step group spans several chips
	CodeFamilySlot       = "E213" // primitive kind does not fit its slot
	CodeUnknownPIC       = "E214" // PIC names no primitive kind
	CodePrecisionCode    = "E221" // precision code outside 0..3
	CodeComparePrecision = "E222" // compare_init precision not decomposable
	CodeEnumCode         = "E223" // other enum code out of range
)

var (
	// ErrValidation matches any ClassValidation error via errors.Is.
	ErrValidation = errors.New("validation error")
	// ErrConfigShape matches any ClassConfigShape error via errors.Is.
	ErrConfigShape = errors.New("config shape error")
	// ErrDomain matches any ClassDomain error via errors.Is.
	ErrDomain = errors.New("domain error")
)

// Error is a lowering failure with the position it was detected at.
type Error struct {
	Class   ErrorClass
	Code    string
	Field   string
	Message string

	// At is the coordinate and slot being lowered, filled in by the walker.
	At string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.At != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.At, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Is lets errors.Is match the class sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Class == ClassValidation
	case ErrConfigShape:
		return e.Class == ClassConfigShape
	case ErrDomain:
		return e.Class == ClassDomain
	}
	return false
}

func validationErr(code, field, format string, args ...any) *Error {
	return &Error{Class: ClassValidation, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func shapeErr(code, field, format string, args ...any) *Error {
	return &Error{Class: ClassConfigShape, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func domainErr(code, field, format string, args ...any) *Error {
	return &Error{Class: ClassDomain, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// withPosition stamps the walker position onto a lowering error.
func withPosition(err error, at string) error {
	var le *Error
	if errors.As(err, &le) && le.At == "" {
		le.At = at
	}
	return err
}
