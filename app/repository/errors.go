package repository

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

var (
	// ErrDuplicateTweet signals a unique-key conflict on tweet_id. Callers must
	// treat it as "already seen" and skip, never retry.
	ErrDuplicateTweet = errors.New("tweet already recorded")

	// ErrStatusConflict signals a guarded status update that matched no row:
	// another worker moved the record first, or it is in an unexpected state.
	ErrStatusConflict = errors.New("status changed concurrently")
)

// isDuplicateKeyErr reports whether err is a MySQL duplicate-entry error (1062)
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
