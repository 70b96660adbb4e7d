package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// The audit sink sees a handful of writes per booking; keep the pool small.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const reservationEventsDDL = `CREATE TABLE IF NOT EXISTS reservation_events (
	id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	type           VARCHAR(32)  NOT NULL,
	reservation_id VARCHAR(64)  NOT NULL,
	user_id        VARCHAR(64)  NOT NULL,
	user_email     VARCHAR(255) NOT NULL DEFAULT '',
	concert_id     VARCHAR(64)  NOT NULL,
	concert_name   VARCHAR(255) NOT NULL DEFAULT '',
	reserved_seats INT          NOT NULL,
	total_seats    INT          NOT NULL,
	occurred_at    DATETIME     NOT NULL,
	recorded_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_reservation_events_reservation (reservation_id),
	INDEX idx_reservation_events_concert (concert_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the audit table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, reservationEventsDDL); err != nil {
		return fmt.Errorf("create reservation_events: %w", err)
	}
	return nil
}
