package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// mockOpen routes openDB to a sqlmock handle that records pings.
func mockOpen(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Fatalf("unexpected driver %q", driverName)
		}
		return mockDB, nil
	}
	t.Cleanup(func() {
		openDB = prev
		mockDB.Close()
	})
	return mock
}

func TestDefaultOptionsPerRole(t *testing.T) {
	if got := DefaultOptions(RoleMigrate).MaxOpenConns; got != 1 {
		t.Fatalf("migrate MaxOpenConns=%d", got)
	}
	if got := DefaultOptions(RoleWorker).MaxOpenConns; got != 4 {
		t.Fatalf("worker MaxOpenConns=%d", got)
	}
	if got := DefaultOptions(Role("unknown")); got != DefaultOptions(RoleServer) {
		t.Fatalf("unknown role should use server defaults, got %+v", got)
	}
}

func TestOptionsFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "bogus")

	base := DefaultOptions(RoleWorker)
	opts := OptionsFromEnv(base)
	want := Options{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
		PingTimeout:     base.PingTimeout,
	}
	if opts != want {
		t.Fatalf("OptionsFromEnv = %+v, want %+v", opts, want)
	}
}

func TestConnectPingsAndSizesPool(t *testing.T) {
	mock := mockOpen(t)
	mock.ExpectPing()

	opts := DefaultOptions(RoleServer)
	opts.MaxOpenConns = 9
	db, err := Connect(context.Background(), "postgres://recruit@localhost/recruit", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := db.Stats().MaxOpenConnections; got != 9 {
		t.Fatalf("MaxOpenConnections=%d, want 9", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectFailsWhenPingFails(t *testing.T) {
	mock := mockOpen(t)
	mock.ExpectPing().WillReturnError(driver.ErrBadConn)

	_, err := Connect(context.Background(), "postgres://recruit@localhost/recruit", DefaultOptions(RoleWorker))
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("expected ErrBadConn, got %v", err)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultOptions(RoleServer)); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestConnectWrapsOpenFailure(t *testing.T) {
	prev := openDB
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") }
	defer func() { openDB = prev }()

	_, err := Connect(context.Background(), "postgres://x", DefaultOptions(RoleWorker))
	if err == nil || err.Error() != "open database: no driver" {
		t.Fatalf("unexpected error %v", err)
	}
}
