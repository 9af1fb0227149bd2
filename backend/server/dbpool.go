package server

import (
	"database/sql"
	"sync"

	"petboard/common"

	"github.com/apex/log"
)

var (
	reportDBOnce sync.Once
	reportDB     *sql.DB
	reportDBErr  error
)

// reportStore opens the pet_reports pool on first use and returns the same
// pool afterwards, including a failed first attempt.
func reportStore() (*sql.DB, error) {
	reportDBOnce.Do(func() {
		reportDB, reportDBErr = common.DBConnect()
	})
	return reportDB, reportDBErr
}

func closeReportStore() {
	if reportDB == nil {
		return
	}
	if err := reportDB.Close(); err != nil {
		log.Warnf("Failed to close the report database: %v", err)
		return
	}
	log.Info("Closed the report database")
}
