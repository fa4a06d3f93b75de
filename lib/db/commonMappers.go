package db

import (
	"database/sql"

	dbModels "github.com/ether/blockpad-go/lib/models/db"
)

// scanVersion reads one version row in the column order
// line_id, timestamp, kind, is_active, content, source_block, origin_timestamp.
func scanVersion(rows *sql.Rows) (*dbModels.VersionDB, error) {
	var versionDB dbModels.VersionDB
	var sourceBlock sql.NullString
	var originTimestamp sql.NullInt64

	if err := rows.Scan(&versionDB.LineId, &versionDB.Timestamp, &versionDB.Kind,
		&versionDB.Active, &versionDB.Content, &sourceBlock, &originTimestamp); err != nil {
		return nil, err
	}

	if sourceBlock.Valid {
		versionDB.SourceBlock = &sourceBlock.String
	}
	if originTimestamp.Valid {
		versionDB.OriginTimestamp = &originTimestamp.Int64
	}

	return &versionDB, nil
}
