package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/flexprice/grants/internal/errors"
)

// wrapQueryError marks a failed lookup as not found or as a database error
func wrapQueryError(err error, entity string, details map[string]interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHintf("Failed to query %s", entity).
		WithReportableDetails(details).
		Mark(ierr.ErrDatabase)
}

// checkAffected turns an update that matched no row into a not found error
func checkAffected(result sql.Result, entity string, details map[string]interface{}) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewErrorf("%s not found", entity).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
