package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ether/blockpad-go/lib/db"
	"github.com/ether/blockpad-go/lib/exception"
	blockModels "github.com/ether/blockpad-go/lib/models/block"
	dbModels "github.com/ether/blockpad-go/lib/models/db"
)

func TestLoadFileAndRead(t *testing.T) {
	m := newTestManager()

	fileId, err := m.LoadFile("/a", "\n", "x\ny\nz")
	require.NoError(t, err)

	rootId, err := m.GetRootBlock(fileId)
	require.NoError(t, err)

	text, err := m.GetText(rootId)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\nz", text)

	count, err := m.GetActiveLineCount(rootId)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	info, err := m.GetBlockInfo(rootId)
	require.NoError(t, err)
	assert.Equal(t, 1, info.UserVersionCount)
	assert.Equal(t, 0, info.CurrentVersionIndex)
}

func TestUnknownIdsReturnNotFound(t *testing.T) {
	m := newTestManager()

	var notFound *exception.NotFoundError

	_, err := m.GetText("nope")
	require.ErrorAs(t, err, &notFound)

	_, err = m.GetRootBlock("nope")
	require.ErrorAs(t, err, &notFound)

	_, err = m.LoadTag("nope")
	require.ErrorAs(t, err, &notFound)

	err = m.DeleteBlock("nope")
	require.ErrorAs(t, err, &notFound)
}

func TestSingleLineEditRoundTrip(t *testing.T) {
	m, _, root := loadTestFile("x", "y", "z")

	affected, err := m.UpdateLine(root.Id, 2, "Y")
	require.NoError(t, err)
	assert.Equal(t, []string{root.Id}, affected)

	text, _ := m.GetText(root.Id)
	assert.Equal(t, "x\nY\nz", text)

	require.NoError(t, m.ApplyIndex(root.Id, 0))
	text, _ = m.GetText(root.Id)
	assert.Equal(t, "x\ny\nz", text)

	require.NoError(t, m.ApplyIndex(root.Id, 1))
	text, _ = m.GetText(root.Id)
	assert.Equal(t, "x\nY\nz", text)
}

func TestChildSnapshotIsolatesScrubbing(t *testing.T) {
	m, _, root := loadTestFile("x", "y", "z")

	childId, err := m.CreateChild(root.Id, blockModels.Range{StartLine: 1, EndLine: 1})
	require.NoError(t, err)
	require.NotNil(t, childId)

	for _, content := range []string{"a", "b", "c"} {
		_, err := m.UpdateLine(*childId, 1, content)
		require.NoError(t, err)
	}

	require.NoError(t, m.ApplyIndex(*childId, 1))
	childText, _ := m.GetText(*childId)
	rootText, _ := m.GetText(root.Id)
	assert.Equal(t, "a", childText)
	assert.Equal(t, "x\ny\nz", rootText)
}

func TestCreateChildOverlapReturnsNil(t *testing.T) {
	m, _, root := loadTestFile("x", "y", "z")

	first, err := m.CreateChild(root.Id, blockModels.Range{StartLine: 2, EndLine: 3})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := m.CreateChild(root.Id, blockModels.Range{StartLine: 1, EndLine: 2})
	require.NoError(t, err)
	assert.Nil(t, second)

	infos, err := m.GetChildrenInfo(root.Id)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestTagRoundTrip(t *testing.T) {
	m, _, root := loadTestFile("x", "y", "z")

	_, err := m.UpdateLine(root.Id, 1, "a")
	require.NoError(t, err)

	tagId, err := m.CreateTag(root.Id, "T")
	require.NoError(t, err)

	_, err = m.UpdateLine(root.Id, 1, "b")
	require.NoError(t, err)
	_, err = m.UpdateLine(root.Id, 3, "c")
	require.NoError(t, err)

	current, _ := m.GetText(root.Id)
	require.Equal(t, "b\ny\nc", current)

	// peeking at the tag leaves the current state alone
	tagged, err := m.GetTextForVersion(tagId)
	require.NoError(t, err)
	assert.Equal(t, "a\ny\nz", tagged)

	after, _ := m.GetText(root.Id)
	assert.Equal(t, "b\ny\nc", after)

	// loading the tag moves the cursor for real
	loaded, err := m.LoadTag(tagId)
	require.NoError(t, err)
	assert.Equal(t, "a\ny\nz", loaded)

	after, _ = m.GetText(root.Id)
	assert.Equal(t, "a\ny\nz", after)
}

func TestTagSurvivesIntermediateScrubbing(t *testing.T) {
	m, _, root := loadTestFile("x")

	_, err := m.UpdateLine(root.Id, 1, "a")
	require.NoError(t, err)
	tagId, err := m.CreateTag(root.Id, "T")
	require.NoError(t, err)

	_, err = m.UpdateLine(root.Id, 1, "b")
	require.NoError(t, err)
	require.NoError(t, m.ApplyIndex(root.Id, 0))

	tagged, err := m.GetTextForVersion(tagId)
	require.NoError(t, err)
	assert.Equal(t, "a", tagged)

	// the scrubbed position is untouched by the peek
	text, _ := m.GetText(root.Id)
	assert.Equal(t, "x", text)
}

func TestTagsAppearInBlockInfo(t *testing.T) {
	m, _, root := loadTestFile("x")

	tagId, err := m.CreateTag(root.Id, "T")
	require.NoError(t, err)

	info, err := m.GetBlockInfo(root.Id)
	require.NoError(t, err)
	require.Len(t, info.Tags, 1)
	assert.Equal(t, tagId, info.Tags[0].Id)
	assert.Equal(t, "T", info.Tags[0].Name)
}

func TestChangeLinesThroughManagerNotifiesAffectedBlocks(t *testing.T) {
	m, _, root := loadTestFile("x", "y", "z")

	childId, err := m.CreateChild(root.Id, blockModels.Range{StartLine: 2, EndLine: 2})
	require.NoError(t, err)
	require.NotNil(t, childId)

	affected, err := m.ChangeLines(*childId, blockModels.MultiLineChange{
		StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 2,
		InsertedText: "Y", LineText: "Y",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.Id, *childId}, affected)
}

func TestCloneThroughManager(t *testing.T) {
	m, _, root := loadTestFile("x", "y")

	cloneId, err := m.Copy(root.Id)
	require.NoError(t, err)

	_, err = m.UpdateLine(cloneId, 1, "X")
	require.NoError(t, err)

	original, _ := m.GetText(root.Id)
	assert.Equal(t, "x\ny", original)

	overridden, err := m.GetText(root.Id, cloneId)
	require.NoError(t, err)
	assert.Equal(t, "X\ny", overridden)
}

func TestHydrateRebuildsWorkspace(t *testing.T) {
	store := db.NewMemoryDataStore()
	m := NewManager(store, zap.NewNop().Sugar())

	fileId, err := m.LoadFile("/a", "\n", "x\ny\nz")
	require.NoError(t, err)
	rootId, _ := m.GetRootBlock(fileId)

	childId, err := m.CreateChild(rootId, blockModels.Range{StartLine: 2, EndLine: 3})
	require.NoError(t, err)
	_, err = m.UpdateLine(*childId, 1, "Y")
	require.NoError(t, err)
	tagId, err := m.CreateTag(*childId, "T")
	require.NoError(t, err)

	// a fresh manager on the same store sees the identical workspace
	restored := NewManager(store, zap.NewNop().Sugar())
	require.NoError(t, restored.Hydrate())

	restoredRoot, err := restored.GetRootBlock(fileId)
	require.NoError(t, err)
	assert.Equal(t, rootId, restoredRoot)

	rootText, err := restored.GetText(rootId)
	require.NoError(t, err)
	assert.Equal(t, "x\ny\nz", rootText)

	childText, err := restored.GetText(*childId)
	require.NoError(t, err)
	assert.Equal(t, "Y\nz", childText)

	tagged, err := restored.GetTextForVersion(tagId)
	require.NoError(t, err)
	assert.Equal(t, "Y\nz", tagged)

	// the clock resumes after everything persisted
	_, err = restored.UpdateLine(rootId, 1, "post")
	require.NoError(t, err)
	text, _ := restored.GetText(rootId)
	assert.Equal(t, "post\ny\nz", text)
}

// failingStore drops every SaveEdit once armed, simulating a commit
// failure.
type failingStore struct {
	*db.MemoryDataStore
	fail bool
}

func (f *failingStore) SaveEdit(batch dbModels.EditBatch) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryDataStore.SaveEdit(batch)
}

func TestFailedCommitLeavesStateUnchanged(t *testing.T) {
	store := &failingStore{MemoryDataStore: db.NewMemoryDataStore()}
	m := NewManager(store, zap.NewNop().Sugar())

	fileId, err := m.LoadFile("/a", "\n", "x\ny")
	require.NoError(t, err)
	rootId, _ := m.GetRootBlock(fileId)
	root, _ := m.Block(rootId)
	stampBefore := root.Timestamp

	store.fail = true

	var storageErr *exception.StorageError

	_, err = m.UpdateLine(rootId, 1, "a")
	require.ErrorAs(t, err, &storageErr)

	_, err = m.InsertLineAt(rootId, 2, "new")
	require.ErrorAs(t, err, &storageErr)

	_, err = m.ChangeLines(rootId, blockModels.MultiLineChange{
		StartLine: 1, StartCol: 1, EndLine: 2, EndCol: 2,
		InsertedText: "xy", LineText: "xy",
	})
	require.ErrorAs(t, err, &storageErr)

	// nothing of the failed edits is visible
	text, _ := m.GetText(rootId)
	assert.Equal(t, "x\ny", text)
	assert.Equal(t, 2, root.GetActiveLineCount())
	assert.Equal(t, stampBefore, root.Timestamp)
	assert.Equal(t, 1, root.UserVersionCount())

	// and the model still works once the store recovers
	store.fail = false
	_, err = m.UpdateLine(rootId, 1, "a")
	require.NoError(t, err)
	text, _ = m.GetText(rootId)
	assert.Equal(t, "a\ny", text)
}
