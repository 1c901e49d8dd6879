package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestOpenGormWithDialector(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
	}{
		{"pool configured after ping", nil},
		{"ping failure surfaces", errors.New("no ping")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			if err != nil {
				t.Fatalf("sqlmock.New: %v", err)
			}
			defer conn.Close()
			mock.ExpectPing().WillReturnError(tt.pingErr)

			gdb, err := OpenGormWithDialector(mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true}))
			if (err != nil) != (tt.pingErr != nil) {
				t.Fatalf("err = %v, want %v", err, tt.pingErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
			if tt.pingErr != nil {
				return
			}
			pool, err := gdb.DB()
			if err != nil {
				t.Fatal(err)
			}
			if got := pool.Stats().MaxOpenConnections; got != 30 {
				t.Fatalf("MaxOpenConnections = %d", got)
			}
		})
	}
}

func TestMigrate_SQLite(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"facilities", "statements", "job_reports", "loan_agreements", "applications", "borrowers", "clients"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("table %s not created", table)
		}
	}
	if !gdb.Migrator().HasIndex("statements", "ux_statements_facility_date") {
		t.Errorf("statement uniqueness index missing")
	}
}
