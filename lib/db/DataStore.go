package db

import (
	dbModels "github.com/ether/blockpad-go/lib/models/db"
)

type FileMethods interface {
	SaveFile(file dbModels.FileDB) error
	GetFile(fileId string) (*dbModels.FileDB, error)
	GetFileIds() (*[]string, error)
	DoesFileExist(fileId string) (*bool, error)
	RemoveFile(fileId string) error
}

type LineMethods interface {
	SaveLines(lines []dbModels.LineDB) error
	GetLinesOfFile(fileId string) (*[]dbModels.LineDB, error)
}

type VersionMethods interface {
	GetVersionsOfFile(fileId string) (*[]dbModels.VersionDB, error)
	LastTimestamp() (*int64, error)
}

type BlockMethods interface {
	SaveBlock(block dbModels.BlockDB) error
	SaveBlockLines(blockLines []dbModels.BlockLineDB) error
	GetBlocksOfFile(fileId string) (*[]dbModels.BlockDB, error)
	GetBlockLineIds(blockId string) (*[]string, error)
	RemoveBlock(blockId string) error
}

type TagMethods interface {
	SaveTag(tag dbModels.TagDB) error
	GetTag(tagId string) (*dbModels.TagDB, error)
	GetTagsOfBlock(blockId string) (*[]dbModels.TagDB, error)
}

// DataStore is the persistence boundary of the versioning core. SaveEdit
// applies every row of one logical edit in a single transaction: a failed
// commit leaves the store exactly as it was.
type DataStore interface {
	FileMethods
	LineMethods
	VersionMethods
	BlockMethods
	TagMethods
	SaveEdit(batch dbModels.EditBatch) error
	Close() error
}
