package errors

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrTooSoon            = errors.New("shake cooldown has not elapsed")
	ErrEmptyPool          = errors.New("reward pool is empty")
	ErrTransferFailed     = errors.New("value transfer was rejected by the ledger")
	ErrArithmeticOverflow = errors.New("reward arithmetic overflow")
	ErrNotAuthorized      = errors.New("caller is not the garden authority")
)
