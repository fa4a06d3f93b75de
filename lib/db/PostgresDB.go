package db

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/ether/blockpad-go/lib/db/migrations"
	dbModels "github.com/ether/blockpad-go/lib/models/db"
)

type PostgresOptions struct {
	Username string
	Password string
	Host     string
	Database string
	Port     int
}

type PostgresDB struct {
	options PostgresOptions
	sqlDB   *sql.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ============== FILE METHODS ==============

func (d PostgresDB) SaveFile(file dbModels.FileDB) error {
	resultedSQL, args, err := psql.
		Insert("file").
		Columns("id", "path", "eol").
		Values(file.Id, file.Path, file.Eol).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			eol = excluded.eol,
			updated_at = CURRENT_TIMESTAMP`).
		ToSql()

	if err != nil {
		return err
	}

	_, err = d.sqlDB.Exec(resultedSQL, args...)
	return err
}

func (d PostgresDB) GetFile(fileId string) (*dbModels.FileDB, error) {
	resultedSQL, args, err := psql.
		Select("id", "path", "eol", "created_at", "updated_at").
		From("file").
		Where(sq.Eq{"id": fileId}).
		ToSql()

	if err != nil {
		return nil, err
	}

	row := d.sqlDB.QueryRow(resultedSQL, args...)

	var fileDB dbModels.FileDB
	var createdAt, updatedAt sql.NullTime

	err = row.Scan(&fileDB.Id, &fileDB.Path, &fileDB.Eol, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(FileDoesNotExistError)
		}
		return nil, err
	}

	if createdAt.Valid {
		fileDB.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		fileDB.UpdatedAt = &updatedAt.Time
	}

	return &fileDB, nil
}

func (d PostgresDB) GetFileIds() (*[]string, error) {
	resultedSQL, _, err := psql.
		Select("id").
		From("file").
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	query, err := d.sqlDB.Query(resultedSQL)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	var fileIds []string
	for query.Next() {
		var fileId string
		if err := query.Scan(&fileId); err != nil {
			return nil, err
		}
		fileIds = append(fileIds, fileId)
	}

	return &fileIds, query.Err()
}

func (d PostgresDB) DoesFileExist(fileId string) (*bool, error) {
	resultedSQL, args, err := psql.
		Select("1").
		From("file").
		Where(sq.Eq{"id": fileId}).
		Limit(1).
		ToSql()

	if err != nil {
		return nil, err
	}

	row := d.sqlDB.QueryRow(resultedSQL, args...)
	var exists int
	err = row.Scan(&exists)

	if errors.Is(err, sql.ErrNoRows) {
		falseVal := false
		return &falseVal, nil
	}
	if err != nil {
		return nil, err
	}

	trueVal := true
	return &trueVal, nil
}

func (d PostgresDB) RemoveFile(fileId string) error {
	for _, resultedSQL := range []string{
		"DELETE FROM tag WHERE block_id IN (SELECT id FROM block WHERE file_id = $1)",
		"DELETE FROM block_line WHERE block_id IN (SELECT id FROM block WHERE file_id = $1)",
		"DELETE FROM block WHERE file_id = $1",
		"DELETE FROM version WHERE line_id IN (SELECT id FROM line WHERE file_id = $1)",
		"DELETE FROM line WHERE file_id = $1",
		"DELETE FROM file WHERE id = $1",
	} {
		if _, err := d.sqlDB.Exec(resultedSQL, fileId); err != nil {
			return err
		}
	}
	return nil
}

// ============== LINE METHODS ==============

func (d PostgresDB) SaveLines(lines []dbModels.LineDB) error {
	for _, line := range lines {
		resultedSQL, args, err := psql.
			Insert("line").
			Columns("id", "file_id", "line_order").
			Values(line.Id, line.FileId, line.Order).
			Suffix("ON CONFLICT(id) DO UPDATE SET line_order = excluded.line_order").
			ToSql()

		if err != nil {
			return err
		}
		if _, err = d.sqlDB.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}
	return nil
}

func (d PostgresDB) GetLinesOfFile(fileId string) (*[]dbModels.LineDB, error) {
	resultedSQL, args, err := psql.
		Select("id", "file_id", "line_order").
		From("line").
		Where(sq.Eq{"file_id": fileId}).
		OrderBy("line_order ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	query, err := d.sqlDB.Query(resultedSQL, args...)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	var lines []dbModels.LineDB
	for query.Next() {
		var line dbModels.LineDB
		if err := query.Scan(&line.Id, &line.FileId, &line.Order); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return &lines, query.Err()
}

// ============== VERSION METHODS ==============

func (d PostgresDB) GetVersionsOfFile(fileId string) (*[]dbModels.VersionDB, error) {
	resultedSQL, args, err := psql.
		Select("v.line_id", "v.timestamp", "v.kind", "v.is_active", "v.content", "v.source_block", "v.origin_timestamp").
		From("version v").
		Join("line l ON l.id = v.line_id").
		Where(sq.Eq{"l.file_id": fileId}).
		OrderBy("v.timestamp ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	query, err := d.sqlDB.Query(resultedSQL, args...)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	var versions []dbModels.VersionDB
	for query.Next() {
		versionDB, err := scanVersion(query)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *versionDB)
	}

	return &versions, query.Err()
}

func (d PostgresDB) LastTimestamp() (*int64, error) {
	row := d.sqlDB.QueryRow("SELECT COALESCE(MAX(timestamp), 0) FROM version")
	var last int64
	if err := row.Scan(&last); err != nil {
		return nil, err
	}
	return &last, nil
}

// ============== BLOCK METHODS ==============

func (d PostgresDB) SaveBlock(block dbModels.BlockDB) error {
	resultedSQL, args, err := psql.
		Insert("block").
		Columns("id", "type", "file_id", "parent_id", "origin_id", "timestamp", "deleted").
		Values(block.Id, block.Type, block.FileId, block.ParentId, block.OriginId, block.Timestamp, block.Deleted).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			timestamp = excluded.timestamp,
			deleted = excluded.deleted`).
		ToSql()

	if err != nil {
		return err
	}

	_, err = d.sqlDB.Exec(resultedSQL, args...)
	return err
}

func (d PostgresDB) SaveBlockLines(blockLines []dbModels.BlockLineDB) error {
	for _, blockLine := range blockLines {
		resultedSQL, args, err := psql.
			Insert("block_line").
			Columns("block_id", "line_id").
			Values(blockLine.BlockId, blockLine.LineId).
			Suffix("ON CONFLICT(block_id, line_id) DO NOTHING").
			ToSql()

		if err != nil {
			return err
		}
		if _, err = d.sqlDB.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}
	return nil
}

func (d PostgresDB) GetBlocksOfFile(fileId string) (*[]dbModels.BlockDB, error) {
	resultedSQL, args, err := psql.
		Select("id", "type", "file_id", "parent_id", "origin_id", "timestamp", "deleted").
		From("block").
		Where(sq.Eq{"file_id": fileId}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	query, err := d.sqlDB.Query(resultedSQL, args...)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	var blocks []dbModels.BlockDB
	for query.Next() {
		var blockDB dbModels.BlockDB
		var parentId, originId sql.NullString

		if err := query.Scan(&blockDB.Id, &blockDB.Type, &blockDB.FileId,
			&parentId, &originId, &blockDB.Timestamp, &blockDB.Deleted); err != nil {
			return nil, err
		}
		if parentId.Valid {
			blockDB.ParentId = &parentId.String
		}
		if originId.Valid {
			blockDB.OriginId = &originId.String
		}
		blocks = append(blocks, blockDB)
	}

	return &blocks, query.Err()
}

func (d PostgresDB) GetBlockLineIds(blockId string) (*[]string, error) {
	resultedSQL, args, err := psql.
		Select("line_id").
		From("block_line").
		Where(sq.Eq{"block_id": blockId}).
		ToSql()

	if err != nil {
		return nil, err
	}

	query, err := d.sqlDB.Query(resultedSQL, args...)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	var lineIds []string
	for query.Next() {
		var lineId string
		if err := query.Scan(&lineId); err != nil {
			return nil, err
		}
		lineIds = append(lineIds, lineId)
	}

	return &lineIds, query.Err()
}

func (d PostgresDB) RemoveBlock(blockId string) error {
	for _, resultedSQL := range []string{
		"DELETE FROM tag WHERE block_id = $1",
		"DELETE FROM block_line WHERE block_id = $1",
		"DELETE FROM block WHERE id = $1",
	} {
		if _, err := d.sqlDB.Exec(resultedSQL, blockId); err != nil {
			return err
		}
	}
	return nil
}

// ============== TAG METHODS ==============

func (d PostgresDB) SaveTag(tag dbModels.TagDB) error {
	resultedSQL, args, err := psql.
		Insert("tag").
		Columns("id", "block_id", "name", "timestamp", "code").
		Values(tag.Id, tag.BlockId, tag.Name, tag.Timestamp, tag.Code).
		Suffix("ON CONFLICT(id) DO UPDATE SET name = excluded.name").
		ToSql()

	if err != nil {
		return err
	}

	_, err = d.sqlDB.Exec(resultedSQL, args...)
	return err
}

func (d PostgresDB) GetTag(tagId string) (*dbModels.TagDB, error) {
	resultedSQL, args, err := psql.
		Select("id", "block_id", "name", "timestamp", "code").
		From("tag").
		Where(sq.Eq{"id": tagId}).
		ToSql()

	if err != nil {
		return nil, err
	}

	row := d.sqlDB.QueryRow(resultedSQL, args...)

	var tagDB dbModels.TagDB
	err = row.Scan(&tagDB.Id, &tagDB.BlockId, &tagDB.Name, &tagDB.Timestamp, &tagDB.Code)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(TagDoesNotExistError)
	}
	if err != nil {
		return nil, err
	}

	return &tagDB, nil
}

func (d PostgresDB) GetTagsOfBlock(blockId string) (*[]dbModels.TagDB, error) {
	resultedSQL, args, err := psql.
		Select("id", "block_id", "name", "timestamp", "code").
		From("tag").
		Where(sq.Eq{"block_id": blockId}).
		OrderBy("timestamp ASC").
		ToSql()

	if err != nil {
		return nil, err
	}

	query, err := d.sqlDB.Query(resultedSQL, args...)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	var tags []dbModels.TagDB
	for query.Next() {
		var tagDB dbModels.TagDB
		if err := query.Scan(&tagDB.Id, &tagDB.BlockId, &tagDB.Name, &tagDB.Timestamp, &tagDB.Code); err != nil {
			return nil, err
		}
		tags = append(tags, tagDB)
	}

	return &tags, query.Err()
}

// ============== EDIT BATCH ==============

func (d PostgresDB) SaveEdit(batch dbModels.EditBatch) error {
	tx, err := d.sqlDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, line := range batch.Lines {
		resultedSQL, args, err := psql.
			Insert("line").
			Columns("id", "file_id", "line_order").
			Values(line.Id, line.FileId, line.Order).
			Suffix("ON CONFLICT(id) DO UPDATE SET line_order = excluded.line_order").
			ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}

	for _, versionDB := range batch.Versions {
		resultedSQL, args, err := psql.
			Insert("version").
			Columns("line_id", "timestamp", "kind", "is_active", "content", "source_block", "origin_timestamp").
			Values(versionDB.LineId, versionDB.Timestamp, versionDB.Kind, versionDB.Active,
				versionDB.Content, versionDB.SourceBlock, versionDB.OriginTimestamp).
			Suffix("ON CONFLICT(line_id, timestamp) DO NOTHING").
			ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}

	for _, blockLine := range batch.BlockLines {
		resultedSQL, args, err := psql.
			Insert("block_line").
			Columns("block_id", "line_id").
			Values(blockLine.BlockId, blockLine.LineId).
			Suffix("ON CONFLICT(block_id, line_id) DO NOTHING").
			ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}

	for _, blockDB := range batch.Blocks {
		resultedSQL, args, err := psql.
			Insert("block").
			Columns("id", "type", "file_id", "parent_id", "origin_id", "timestamp", "deleted").
			Values(blockDB.Id, blockDB.Type, blockDB.FileId, blockDB.ParentId,
				blockDB.OriginId, blockDB.Timestamp, blockDB.Deleted).
			Suffix(`ON CONFLICT(id) DO UPDATE SET
				timestamp = excluded.timestamp,
				deleted = excluded.deleted`).
			ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ============== LIFECYCLE ==============

func (d PostgresDB) Close() error {
	return d.sqlDB.Close()
}

func NewPostgresDB(options PostgresOptions) (*PostgresDB, error) {
	connectionString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		options.Username, options.Password, options.Host, options.Port, options.Database)

	sqlDb, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}

	if err := sqlDb.Ping(); err != nil {
		sqlDb.Close()
		return nil, err
	}

	migrationManager := migrations.NewMigrationManager(sqlDb, migrations.DialectPostgres)
	if err := migrationManager.Run(); err != nil {
		sqlDb.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresDB{
		options: options,
		sqlDB:   sqlDb,
	}, nil
}

var _ DataStore = (*PostgresDB)(nil)
