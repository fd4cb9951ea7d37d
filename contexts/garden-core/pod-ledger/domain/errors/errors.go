package errors

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrPodNotFound        = errors.New("growth pod not found")
	ErrNotOwner           = errors.New("caller does not own this growth pod")
	ErrAlreadyHarvested   = errors.New("growth pod was already harvested")
	ErrTransferFailed     = errors.New("value transfer was rejected by the ledger")
	ErrArithmeticOverflow = errors.New("growth accrual arithmetic overflow")
)
