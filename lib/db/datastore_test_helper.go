package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbModels "github.com/ether/blockpad-go/lib/models/db"
)

// runDataStoreTests exercises one DataStore implementation end to end.
// Every backend must pass the identical suite.
func runDataStoreTests(t *testing.T, store DataStore) {
	t.Helper()

	t.Run("file round trip", func(t *testing.T) {
		require.NoError(t, store.SaveFile(dbModels.FileDB{Id: "f1", Path: "/a.go", Eol: "\n"}))

		exists, err := store.DoesFileExist("f1")
		require.NoError(t, err)
		assert.True(t, *exists)

		file, err := store.GetFile("f1")
		require.NoError(t, err)
		assert.Equal(t, "/a.go", file.Path)
		assert.Equal(t, "\n", file.Eol)

		ids, err := store.GetFileIds()
		require.NoError(t, err)
		assert.Contains(t, *ids, "f1")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := store.GetFile("missing")
		assert.EqualError(t, err, FileDoesNotExistError)

		exists, err := store.DoesFileExist("missing")
		require.NoError(t, err)
		assert.False(t, *exists)
	})

	t.Run("edit batch", func(t *testing.T) {
		sourceBlock := "f1/root"
		batch := dbModels.EditBatch{
			Lines: []dbModels.LineDB{
				{Id: "l1", FileId: "f1", Order: 1000},
				{Id: "l2", FileId: "f1", Order: 2000},
			},
			Versions: []dbModels.VersionDB{
				{LineId: "l1", Timestamp: 1, Kind: "IMPORTED", Active: true, Content: "x"},
				{LineId: "l2", Timestamp: 1, Kind: "IMPORTED", Active: true, Content: "y"},
				{LineId: "l1", Timestamp: 2, Kind: "CHANGE", Active: true, Content: "X", SourceBlock: &sourceBlock},
			},
			BlockLines: []dbModels.BlockLineDB{
				{BlockId: "f1/root", LineId: "l1"},
				{BlockId: "f1/root", LineId: "l2"},
			},
			Blocks: []dbModels.BlockDB{
				{Id: "f1/root", Type: "ROOT", FileId: "f1", Timestamp: 2},
			},
		}
		require.NoError(t, store.SaveEdit(batch))

		lines, err := store.GetLinesOfFile("f1")
		require.NoError(t, err)
		require.Len(t, *lines, 2)
		assert.Equal(t, "l1", (*lines)[0].Id)

		versions, err := store.GetVersionsOfFile("f1")
		require.NoError(t, err)
		require.Len(t, *versions, 3)
		last := (*versions)[2]
		assert.Equal(t, "CHANGE", last.Kind)
		require.NotNil(t, last.SourceBlock)
		assert.Equal(t, sourceBlock, *last.SourceBlock)

		lastStamp, err := store.LastTimestamp()
		require.NoError(t, err)
		assert.Equal(t, int64(2), *lastStamp)
	})

	t.Run("versions are write-once", func(t *testing.T) {
		batch := dbModels.EditBatch{
			Versions: []dbModels.VersionDB{
				{LineId: "l1", Timestamp: 2, Kind: "CHANGE", Active: true, Content: "overwritten"},
			},
		}
		require.NoError(t, store.SaveEdit(batch))

		versions, err := store.GetVersionsOfFile("f1")
		require.NoError(t, err)
		require.Len(t, *versions, 3)
		assert.Equal(t, "X", (*versions)[2].Content)
	})

	t.Run("line order updates", func(t *testing.T) {
		require.NoError(t, store.SaveLines([]dbModels.LineDB{{Id: "l2", FileId: "f1", Order: 500}}))

		lines, err := store.GetLinesOfFile("f1")
		require.NoError(t, err)
		assert.Equal(t, "l2", (*lines)[0].Id)
	})

	t.Run("block round trip", func(t *testing.T) {
		parentId := "f1/root"
		require.NoError(t, store.SaveBlock(dbModels.BlockDB{
			Id: "f1/root/1", Type: "INLINE", FileId: "f1", ParentId: &parentId, Timestamp: 2,
		}))
		require.NoError(t, store.SaveBlockLines([]dbModels.BlockLineDB{
			{BlockId: "f1/root/1", LineId: "l1"},
		}))

		blocks, err := store.GetBlocksOfFile("f1")
		require.NoError(t, err)
		require.Len(t, *blocks, 2)

		var child dbModels.BlockDB
		for _, b := range *blocks {
			if b.Id == "f1/root/1" {
				child = b
			}
		}
		require.NotNil(t, child.ParentId)
		assert.Equal(t, parentId, *child.ParentId)

		lineIds, err := store.GetBlockLineIds("f1/root/1")
		require.NoError(t, err)
		assert.Equal(t, []string{"l1"}, *lineIds)
	})

	t.Run("tag round trip", func(t *testing.T) {
		require.NoError(t, store.SaveTag(dbModels.TagDB{
			Id: "t1", BlockId: "f1/root", Name: "T", Timestamp: 2, Code: "X\ny",
		}))

		tag, err := store.GetTag("t1")
		require.NoError(t, err)
		assert.Equal(t, "T", tag.Name)
		assert.Equal(t, "X\ny", tag.Code)

		tags, err := store.GetTagsOfBlock("f1/root")
		require.NoError(t, err)
		assert.Len(t, *tags, 1)

		_, err = store.GetTag("missing")
		assert.EqualError(t, err, TagDoesNotExistError)
	})

	t.Run("remove block", func(t *testing.T) {
		require.NoError(t, store.RemoveBlock("f1/root/1"))

		lineIds, err := store.GetBlockLineIds("f1/root/1")
		require.NoError(t, err)
		assert.Empty(t, *lineIds)
	})

	t.Run("remove file", func(t *testing.T) {
		require.NoError(t, store.RemoveFile("f1"))

		exists, err := store.DoesFileExist("f1")
		require.NoError(t, err)
		assert.False(t, *exists)

		lines, err := store.GetLinesOfFile("f1")
		require.NoError(t, err)
		assert.Empty(t, *lines)
	})
}
