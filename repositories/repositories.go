// Package repositories persists users, connections and messages in BadgerDB.
// Policy violations surface as sentinel errors; unexpected I/O failures are
// wrapped in ErrStorage so callers can tell the two apart.
package repositories

import (
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"mentorlink/errors"
)

// wrapStorage normalizes errors coming out of a badger transaction.
// Sentinels raised inside the transaction pass through untouched; a missing
// key becomes ErrNotFound; everything else is a storage failure.
func wrapStorage(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrNotFound
	case stderrors.Is(err, errors.ErrNotFound),
		stderrors.Is(err, errors.ErrAlreadyRequested),
		stderrors.Is(err, errors.ErrAlreadyConnected),
		stderrors.Is(err, errors.ErrUserAlreadyExists):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
}
