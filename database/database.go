package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the SQLite3 file at url and brings its schema up to date.
func Open(url string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", dsn(url))
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = db.Ping()
	if err != nil {
		db.Close()
		return
	}

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}

// foreign keys are a per-connection setting, so they go in the DSN.
// Transactions take the write lock at BEGIN so concurrent writers wait on busy_timeout.
func dsn(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return "file:" + url + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}
