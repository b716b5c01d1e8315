package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"orderdesk/internal/repository"
)

const (
	codeUniqueViolation = "23505"
	codeQueryCanceled   = "57014"
	codeNumericRange    = "22003"
)

// classify wraps a driver error into the matching repository sentinel.
func classify(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := errors.Errorf(format, args...).Error()

	if gorm.IsRecordNotFoundError(err) || errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(repository.ErrNotFound, msg)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == codeUniqueViolation:
			return errors.Wrapf(repository.ErrConflict, "%s: %s", msg, pqErr.Constraint)
		case code == codeNumericRange:
			return errors.Wrapf(repository.ErrOutOfRange, "%s: %s", msg, pqErr.Message)
		case code == codeQueryCanceled, strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57"):
			return errors.Wrapf(repository.ErrUnavailable, "%s: %s", msg, pqErr.Message)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return errors.Wrapf(repository.ErrUnavailable, "%s: %v", msg, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Wrapf(repository.ErrUnavailable, "%s: %v", msg, err)
	}

	return errors.Wrap(err, msg)
}

func alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(repository.ErrUnavailable, err.Error())
	}
	return nil
}

func likePattern(token string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(token)) + "%"
}
