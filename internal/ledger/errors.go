package ledger

import "errors"

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrIndexOutOfRange = errors.New("pending index out of range")
)
