package db

import "github.com/jmoiron/sqlx"

// Connect opens and pings a database. driverName is "postgres" or "sqlite3".
func Connect(driverName, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if driverName == "sqlite3" {
		// every connection to an in-memory database gets its own copy, and a
		// file database allows one writer at a time
		db.SetMaxOpenConns(1)
		return db, nil
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

func isPostgres(driverName string) bool {
	return driverName == "postgres" || driverName == "pgx"
}
