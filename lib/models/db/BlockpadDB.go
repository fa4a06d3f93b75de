package db

import "time"

// FileDB is the persisted form of one imported file.
type FileDB struct {
	Id        string
	Path      string
	Eol       string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// LineDB is the persisted form of one line node. Order is the dense
// sequencing key inside the file; it may be rewritten when the file
// renumbers, everything else is stable.
type LineDB struct {
	Id     string
	FileId string
	Order  int64
}

// VersionDB is the persisted form of one version. Rows are write-once;
// a line's history is the set of its version rows ordered by timestamp.
type VersionDB struct {
	LineId          string
	Timestamp       int64
	Kind            string
	Active          bool
	Content         string
	SourceBlock     *string
	OriginTimestamp *int64
}

// BlockDB is the persisted form of one block.
type BlockDB struct {
	Id        string
	Type      string
	FileId    string
	ParentId  *string
	OriginId  *string
	Timestamp int64
	Deleted   bool
}

// BlockLineDB maps one block to one claimed line.
type BlockLineDB struct {
	BlockId string
	LineId  string
}

// TagDB is the persisted form of one named bookmark. Code caches the block
// text at capture time.
type TagDB struct {
	Id        string
	BlockId   string
	Name      string
	Timestamp int64
	Code      string
}

// EditBatch collects every row written by one logical edit. The store must
// apply the whole batch in a single transaction: on commit failure nothing
// of the edit becomes visible.
type EditBatch struct {
	Lines      []LineDB
	Versions   []VersionDB
	BlockLines []BlockLineDB
	Blocks     []BlockDB
}
