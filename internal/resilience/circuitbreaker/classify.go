package circuitbreaker

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker"

	"newsportal/internal/domain/entity"
)

// IsUnavailable reports whether err means the store could not be reached, as
// opposed to a query that reached the store and failed there.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, entity.ErrStoreUnavailable) {
		return true
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	// A deadline hit while talking to the store; plain cancellation is the caller's choice.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify wraps err for the store operation op. Connectivity failures become
// *entity.StoreUnavailableError; anything else is wrapped with op as context.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		var sue *entity.StoreUnavailableError
		if errors.As(err, &sue) {
			return err
		}
		return &entity.StoreUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
