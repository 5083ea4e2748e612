package cache

import "fmt"

// ErrorCode classifies the typed errors the engine can return.
type ErrorCode int

const (
	// CodeInitialParam marks a missing or invalid collaborator at construction.
	CodeInitialParam ErrorCode = 1
	// CodeUnsupportedOperation marks an operation the backend cannot perform.
	CodeUnsupportedOperation ErrorCode = 11
)

func (c ErrorCode) String() string {
	switch c {
	case CodeInitialParam:
		return "INITIAL_PARAM"
	case CodeUnsupportedOperation:
		return "UNSUPPORTED_OPERATION"
	default:
		return fmt.Sprintf("CODE_%d", int(c))
	}
}

// Error is a typed engine error carrying a code and a message.
type Error struct {
	Code    ErrorCode
	Message string
}

var (
	// ErrUnsupportedOperation matches any error with CodeUnsupportedOperation.
	ErrUnsupportedOperation = &Error{Code: CodeUnsupportedOperation, Message: "operation not supported"}
	// ErrInitialParam matches any error with CodeInitialParam.
	ErrInitialParam = &Error{Code: CodeInitialParam, Message: "invalid initial parameter"}
)

func (e *Error) Error() string {
	return fmt.Sprintf("#Error %d : %s", int(e.Code), e.Message)
}

// Is matches errors by code so errors.Is(err, ErrUnsupportedOperation) works
// for every unsupported-operation error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func unsupported(backend, op string) error {
	return &Error{
		Code:    CodeUnsupportedOperation,
		Message: fmt.Sprintf("%s backend does not support %s", backend, op),
	}
}
