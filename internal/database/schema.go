package database

import "github.com/jmoiron/sqlx"

// Migrate creates the tables on startup when they do not exist yet.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		company VARCHAR(255) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS migration_jobs (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		source_type VARCHAR(50) NOT NULL,
		source_data JSON NOT NULL,
		destination_config JSON NOT NULL,
		mapping_config JSON NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		total_records INT NOT NULL DEFAULT 0,
		processed_records INT NOT NULL DEFAULT 0,
		failed_records INT NOT NULL DEFAULT 0,
		error_log JSON NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME NULL,
		INDEX idx_migration_jobs_user (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS migration_logs (
		id CHAR(36) PRIMARY KEY,
		job_id CHAR(36) NOT NULL,
		record_index INT NOT NULL,
		status VARCHAR(20) NOT NULL,
		error_message TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_migration_logs_job (job_id, record_index)
	)`,
	`CREATE TABLE IF NOT EXISTS novatab_configs (
		id CHAR(36) PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		config_name VARCHAR(255) NOT NULL,
		api_endpoint VARCHAR(500) NOT NULL,
		api_key VARCHAR(500) NOT NULL,
		field_mappings JSON NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_novatab_configs_user (user_id, created_at)
	)`,
}

func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
