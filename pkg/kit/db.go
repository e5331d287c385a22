package kit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"

	connMaxIdle   = 5 * time.Minute
	openPingLimit = 5 * time.Second
)

// sqliteParams make concurrent writers queue for the lock instead of failing
// with SQLITE_BUSY. Transactions take the write lock up front.
var sqliteParams = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
	"_pragma=synchronous(NORMAL)",
	"_txlock=immediate",
}

// OpenDB opens a pool for driver and checks it answers before returning.
func OpenDB(ctx context.Context, driver, dsn string, maxOpen int) (*sql.DB, error) {
	if driver == DriverSQLite {
		dsn = SQLiteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxIdleTime(connMaxIdle)

	pingCtx, cancel := context.WithTimeout(ctx, openPingLimit)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// SQLiteDSN appends the pool parameters to dsn unless it already sets them.
func SQLiteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	var b strings.Builder
	b.WriteString(dsn)
	for _, p := range sqliteParams {
		key, _, _ := strings.Cut(p, "=")
		if key == "_pragma" {
			key = strings.SplitN(p, "(", 2)[0]
		}
		if strings.Contains(dsn, key) {
			continue
		}
		b.WriteString(sep)
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}
