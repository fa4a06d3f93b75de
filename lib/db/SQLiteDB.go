package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/ether/blockpad-go/lib/db/migrations"
	dbModels "github.com/ether/blockpad-go/lib/models/db"
)

type SQLiteDB struct {
	path  string
	sqlDB *sql.DB
}

// ============== FILE METHODS ==============

func (d SQLiteDB) SaveFile(file dbModels.FileDB) error {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetFile(fileId string) (*dbModels.FileDB, error) {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetFileIds() (*[]string, error) {
	resultedSQL, _, err := sq.
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

func (d SQLiteDB) DoesFileExist(fileId string) (*bool, error) {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) RemoveFile(fileId string) error {
	for _, table := range []string{"tag", "block_line"} {
		resultedSQL, args, err := sq.
			Delete(table).
			Where(sq.Expr("block_id IN (SELECT id FROM block WHERE file_id = ?)", fileId)).
			ToSql()
		if err != nil {
			return err
		}
		if _, err = d.sqlDB.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}

	for _, statement := range []sq.DeleteBuilder{
		sq.Delete("block").Where(sq.Eq{"file_id": fileId}),
		sq.Delete("version").Where(sq.Expr("line_id IN (SELECT id FROM line WHERE file_id = ?)", fileId)),
		sq.Delete("line").Where(sq.Eq{"file_id": fileId}),
		sq.Delete("file").Where(sq.Eq{"id": fileId}),
	} {
		resultedSQL, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		if _, err = d.sqlDB.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}
	return nil
}

// ============== LINE METHODS ==============

func (d SQLiteDB) SaveLines(lines []dbModels.LineDB) error {
	for _, line := range lines {
		resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetLinesOfFile(fileId string) (*[]dbModels.LineDB, error) {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetVersionsOfFile(fileId string) (*[]dbModels.VersionDB, error) {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) LastTimestamp() (*int64, error) {
	row := d.sqlDB.QueryRow("SELECT COALESCE(MAX(timestamp), 0) FROM version")
	var last int64
	if err := row.Scan(&last); err != nil {
		return nil, err
	}
	return &last, nil
}

// ============== BLOCK METHODS ==============

func (d SQLiteDB) SaveBlock(block dbModels.BlockDB) error {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) SaveBlockLines(blockLines []dbModels.BlockLineDB) error {
	for _, blockLine := range blockLines {
		resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetBlocksOfFile(fileId string) (*[]dbModels.BlockDB, error) {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetBlockLineIds(blockId string) (*[]string, error) {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) RemoveBlock(blockId string) error {
	for _, statement := range []sq.DeleteBuilder{
		sq.Delete("tag").Where(sq.Eq{"block_id": blockId}),
		sq.Delete("block_line").Where(sq.Eq{"block_id": blockId}),
		sq.Delete("block").Where(sq.Eq{"id": blockId}),
	} {
		resultedSQL, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		if _, err = d.sqlDB.Exec(resultedSQL, args...); err != nil {
			return err
		}
	}
	return nil
}

// ============== TAG METHODS ==============

func (d SQLiteDB) SaveTag(tag dbModels.TagDB) error {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetTag(tagId string) (*dbModels.TagDB, error) {
	resultedSQL, args, err := sq.
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

func (d SQLiteDB) GetTagsOfBlock(blockId string) (*[]dbModels.TagDB, error) {
	resultedSQL, args, err := sq.
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

// SaveEdit writes every row of one logical edit inside a single
// transaction. Version rows are write-once.
func (d SQLiteDB) SaveEdit(batch dbModels.EditBatch) error {
	tx, err := d.sqlDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, line := range batch.Lines {
		resultedSQL, args, err := sq.
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
		resultedSQL, args, err := sq.
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
		resultedSQL, args, err := sq.
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
		resultedSQL, args, err := sq.
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

func (d SQLiteDB) Close() error {
	return d.sqlDB.Close()
}

// NewSQLiteDB creates a new SQLiteDB and returns a pointer to it.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if path == ":memory" {
		path = "file::memory:?cache=shared"
	}

	sqlDb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if strings.Contains(path, ":memory:") {
		sqlDb.SetMaxOpenConns(1)
	}

	if _, err = sqlDb.Exec("PRAGMA journal_mode = WAL"); err != nil {
		sqlDb.Close()
		return nil, err
	}
	if _, err = sqlDb.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqlDb.Close()
		return nil, err
	}
	if _, err = sqlDb.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDb.Close()
		return nil, err
	}

	migrationManager := migrations.NewMigrationManager(sqlDb, migrations.DialectSQLite)
	if err := migrationManager.Run(); err != nil {
		sqlDb.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteDB{
		path:  path,
		sqlDB: sqlDb,
	}, nil
}

var _ DataStore = (*SQLiteDB)(nil)
