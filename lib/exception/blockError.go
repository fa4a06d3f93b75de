package exception

import "fmt"

// OutOfRangeError is returned when a line number or timeline index lies
// outside the current bounds. The operation has not changed any state.
type OutOfRangeError struct {
	*AppError
	Value int
	Max   int
}

func NewOutOfRangeError(what string, value int, max int) *OutOfRangeError {
	return &OutOfRangeError{
		AppError: &AppError{
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("%s %d is out of range (max %d)", what, value, max),
		},
		Value: value,
		Max:   max,
	}
}

// OverlapError is returned when a new child block would overlap an existing
// sibling.
type OverlapError struct {
	*AppError
	BlockId string
}

func NewOverlapError(blockId string) *OverlapError {
	return &OverlapError{
		AppError: &AppError{
			Code:    "OVERLAP",
			Message: fmt.Sprintf("range overlaps child block '%s'", blockId),
		},
		BlockId: blockId,
	}
}

// NotFoundError is returned for an unknown file, block, line or tag id.
type NotFoundError struct {
	*AppError
	Kind string
	Id   string
}

func NewNotFoundError(kind string, id string) *NotFoundError {
	return &NotFoundError{
		AppError: &AppError{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("%s with id '%s' does not exist", kind, id),
		},
		Kind: kind,
		Id:   id,
	}
}

// InvariantViolationError signals an internal inconsistency, e.g. an empty
// active line set while positioning a block. It is a programmer error: the
// core must not continue past it.
type InvariantViolationError struct {
	*AppError
}

func NewInvariantViolationError(message string) *InvariantViolationError {
	return &InvariantViolationError{
		AppError: &AppError{
			Code:    "INVARIANT_VIOLATION",
			Message: message,
		},
	}
}
