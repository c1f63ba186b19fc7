package database

import (
	"context"
	"database/sql"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		project_id VARCHAR(64) NOT NULL UNIQUE,
		title VARCHAR(255) NOT NULL DEFAULT '',
		access_code VARCHAR(255) NOT NULL,
		client_email VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'draft',
		allow_approval BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS project_status_history (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		project_id VARCHAR(64) NOT NULL,
		status VARCHAR(16) NOT NULL,
		changed_at DATETIME NOT NULL,
		changed_by VARCHAR(255) NOT NULL,
		note TEXT NULL,
		INDEX idx_history_project (project_id, id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS client_sessions (
		session_id VARCHAR(64) NOT NULL PRIMARY KEY,
		project_id VARCHAR(64) NOT NULL,
		client_email VARCHAR(255) NOT NULL DEFAULT '',
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		INDEX idx_sessions_project (project_id),
		INDEX idx_sessions_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		access_code TEXT NOT NULL,
		client_email TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		allow_approval BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_status_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		status TEXT NOT NULL,
		changed_at DATETIME NOT NULL,
		changed_by TEXT NOT NULL,
		note TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_project ON project_status_history (project_id, id)`,
	`CREATE TABLE IF NOT EXISTS client_sessions (
		session_id TEXT NOT NULL PRIMARY KEY,
		project_id TEXT NOT NULL,
		client_email TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_project ON client_sessions (project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON client_sessions (expires_at)`,
}

// Migrate creates the portal tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts := mysqlSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
