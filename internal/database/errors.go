package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassConstraint
	ErrorClassDuplicate
	ErrorClassUnavailable
	ErrorClassTimeout
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return ErrorClassDuplicate
		case pqErr.Code == "23503", pqErr.Code == "23502", pqErr.Code == "23514", pqErr.Code == "22P02":
			return ErrorClassConstraint
		case pqErr.Code == "57014":
			return ErrorClassTimeout
		case pqErr.Code.Class() == "08", pqErr.Code == "53300", strings.HasPrefix(string(pqErr.Code), "57P0"):
			return ErrorClassUnavailable
		}
		return ErrorClassPermanent
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return ErrorClassUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorClassTimeout
		}
		return ErrorClassUnavailable
	}

	return ErrorClassPermanent
}

// Translate tags a driver error with the matching apperror kind. Errors
// that already carry a kind pass through untouched.
func Translate(err error, op string) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch ClassifyError(err) {
	case ErrorClassDuplicate:
		return apperror.Wrap(apperror.KindConflict, err, "a record with the same data already exists")
	case ErrorClassConstraint:
		return apperror.Wrap(apperror.KindValidation, err, "invalid reference or value")
	case ErrorClassUnavailable:
		return apperror.Wrap(apperror.KindUnavailable, err, "database unavailable")
	case ErrorClassTimeout:
		return apperror.Wrap(apperror.KindTimeout, err, "database operation timed out")
	}

	return apperror.Wrap(apperror.KindInternal, err, op)
}
