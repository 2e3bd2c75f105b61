package storage

import "errors"

// Common errors returned by storage implementations.
var (
	// ErrAlreadyInTx is returned when a transaction is started from inside
	// another one.
	ErrAlreadyInTx = errors.New("already in tx")
	// ErrNotInTx is returned when Commit or Rollback is called outside a
	// transaction.
	ErrNotInTx = errors.New("not in tx")
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("tx already finished")
)
