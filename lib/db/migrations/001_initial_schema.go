package migrations

import "database/sql"

// GetMigrations returns all registered migrations
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "initial schema: file, line, version, block, block_line, tag",
			Up:          initialSchema,
		},
	}
}

func initialSchema(db *sql.DB, dialect Dialect) error {
	boolType := "INTEGER"
	if dialect == DialectPostgres {
		boolType = "BOOLEAN"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS file (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			eol TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS line (
			id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL REFERENCES file(id),
			line_order BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_line_file ON line(file_id, line_order)`,
		`CREATE TABLE IF NOT EXISTS version (
			line_id TEXT NOT NULL REFERENCES line(id),
			timestamp BIGINT NOT NULL,
			kind TEXT NOT NULL,
			is_active ` + boolType + ` NOT NULL,
			content TEXT NOT NULL,
			source_block TEXT,
			origin_timestamp BIGINT,
			PRIMARY KEY (line_id, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_version_timestamp ON version(timestamp)`,
		`CREATE TABLE IF NOT EXISTS block (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			file_id TEXT NOT NULL REFERENCES file(id),
			parent_id TEXT,
			origin_id TEXT,
			timestamp BIGINT NOT NULL,
			deleted ` + boolType + ` NOT NULL DEFAULT ` + boolDefault(dialect) + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_block_file ON block(file_id)`,
		`CREATE TABLE IF NOT EXISTS block_line (
			block_id TEXT NOT NULL,
			line_id TEXT NOT NULL,
			PRIMARY KEY (block_id, line_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tag (
			id TEXT PRIMARY KEY,
			block_id TEXT NOT NULL REFERENCES block(id),
			name TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			code TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tag_block ON tag(block_id)`,
	}

	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}

func boolDefault(dialect Dialect) string {
	if dialect == DialectPostgres {
		return "FALSE"
	}
	return "0"
}
