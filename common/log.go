package common

import (
	"database/sql"

	"github.com/apex/log"
)

// LogResult logs a failed or unexpected exec and returns the affected row
// count. expectOne warns when the statement did not touch exactly one row.
func LogResult(msgPrefix string, r sql.Result, e error, expectOne bool) int64 {
	if e != nil {
		log.Errorf("%s: query failed: %v", msgPrefix, e)
		return 0
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("%s: failed to get status of db op: %v", msgPrefix, err)
		return 0
	}
	if expectOne && rows != 1 {
		log.Warnf("%s: Expected to affect 1 row, affected %d", msgPrefix, rows)
	}
	return rows
}
