package db

import (
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestConnect(t *testing.T) {
	tests := []struct {
		name          string
		driverName    string
		dsn           string
		expectedError bool
	}{
		{
			name:          "Successful connection with SQLite",
			driverName:    "sqlite3",
			dsn:           ":memory:",
			expectedError: false,
		},
		{
			name:          "Failed connection with invalid DSN",
			driverName:    "sqlite3",
			dsn:           "file::memory:?mode=invalid",
			expectedError: true,
		},
		{
			name:          "Unknown driver",
			driverName:    "nope",
			dsn:           "whatever",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Connect(tt.driverName, tt.dsn)

			if tt.expectedError {
				if err == nil {
					t.Error("Expected error, got none")
				}
				if conn != nil {
					t.Error("Expected nil connection on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer conn.Close()
			if got := conn.Stats().MaxOpenConnections; got != 1 {
				t.Errorf("in-memory sqlite should use one connection, got %d", got)
			}
		})
	}
}

func TestConnect_SqliteFileUsesOneConnection(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "kanban.db") + "?_foreign_keys=on"
	conn, err := Connect("sqlite3", dsn)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer conn.Close()
	if got := conn.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("file sqlite should use one connection, got %d", got)
	}
}
