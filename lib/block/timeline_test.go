package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ether/blockpad-go/lib/models/version"
)

func TestTimelineCollapsesImportIntoAnchor(t *testing.T) {
	_, _, root := loadTestFile("x", "y", "z")

	timeline := root.Timeline()
	require.Len(t, timeline, 1)
	assert.Equal(t, version.Imported, timeline[0].Kind)
}

func TestSingleLineEditTimeline(t *testing.T) {
	_, _, root := loadTestFile("x", "y", "z")

	_, _, err := root.UpdateLine(2, "Y")
	require.NoError(t, err)
	assert.Equal(t, "x\nY\nz", root.GetText())

	timeline := root.Timeline()
	require.Len(t, timeline, 2)
	assert.Equal(t, 2, root.UserVersionCount())

	require.NoError(t, root.ApplyIndex(0))
	assert.Equal(t, "x\ny\nz", root.GetText())

	require.NoError(t, root.ApplyIndex(1))
	assert.Equal(t, "x\nY\nz", root.GetText())
}

func TestTimelineIsTimestampAscending(t *testing.T) {
	_, _, root := loadTestFile("x", "y")

	_, _, err := root.UpdateLine(1, "a")
	require.NoError(t, err)
	_, _, err = root.UpdateLine(2, "b")
	require.NoError(t, err)
	_, _, err = root.InsertLineAt(3, "c")
	require.NoError(t, err)

	timeline := root.Timeline()
	for i := 1; i < len(timeline); i++ {
		if timeline[i-1].Timestamp >= timeline[i].Timestamp {
			t.Fatalf("timeline not strictly ascending at %d", i)
		}
	}
}

func TestInsertMidFileScrubsSmoothly(t *testing.T) {
	_, _, root := loadTestFile("x", "y", "z")

	_, _, err := root.InsertLineAt(2, "new")
	require.NoError(t, err)
	assert.Equal(t, "x\nnew\ny\nz", root.GetText())

	// anchor, placeholder, insertion
	assert.Equal(t, 3, root.UserVersionCount())
	require.Len(t, root.Timeline(), 3)

	index, err := root.CurrentIndex()
	require.NoError(t, err)
	// the cursor points at the placeholder entry, one step left hides
	assert.Equal(t, 1, index)

	require.NoError(t, root.ApplyIndex(0))
	assert.Equal(t, "x\ny\nz", root.GetText())

	require.NoError(t, root.ApplyIndex(2))
	assert.Equal(t, "x\nnew\ny\nz", root.GetText())
}

func TestApplyIndexIsIdempotent(t *testing.T) {
	_, _, root := loadTestFile("x", "y", "z")

	_, _, err := root.UpdateLine(1, "a")
	require.NoError(t, err)
	_, _, err = root.InsertLineAt(2, "new")
	require.NoError(t, err)

	for step := 0; step < len(root.Timeline()); step++ {
		require.NoError(t, root.ApplyIndex(step))
		text := root.GetText()
		index, err := root.CurrentIndex()
		require.NoError(t, err)

		require.NoError(t, root.ApplyIndex(index))
		assert.Equal(t, text, root.GetText(), "apply_index(current_index) must not change text at step %d", step)
	}
}

func TestApplyIndexLandingOnPlaceholderSkipsHiddenState(t *testing.T) {
	_, _, root := loadTestFile("x")

	_, _, err := root.InsertLineAt(2, "new")
	require.NoError(t, err)
	// timeline: anchor, placeholder, insertion; cursor points at 1
	index, err := root.CurrentIndex()
	require.NoError(t, err)
	require.Equal(t, 1, index)

	// jumping onto the current placeholder keeps the line visible
	require.NoError(t, root.ApplyIndex(1))
	assert.Equal(t, "x\nnew", root.GetText())
}

func TestApplyIndexHidesWhenScrubbingLeftOfInsertion(t *testing.T) {
	_, _, root := loadTestFile("x")

	_, _, err := root.InsertLineAt(2, "new")
	require.NoError(t, err)

	// moving left of the insertion hides the line
	require.NoError(t, root.ApplyIndex(0))
	assert.Equal(t, "x", root.GetText())

	// moving right onto the insertion entry reveals it again
	require.NoError(t, root.ApplyIndex(2))
	assert.Equal(t, "x\nnew", root.GetText())
}

func TestApplyIndexOutOfRange(t *testing.T) {
	_, _, root := loadTestFile("x", "y")

	assert.Error(t, root.ApplyIndex(-1))
	assert.Error(t, root.ApplyIndex(1))
}

func TestApplyTimestampIsPureCursorMove(t *testing.T) {
	_, _, root := loadTestFile("x")

	_, _, err := root.UpdateLine(1, "a")
	require.NoError(t, err)
	stampAfterFirst := root.Timestamp
	_, _, err = root.UpdateLine(1, "b")
	require.NoError(t, err)

	root.ApplyTimestamp(stampAfterFirst)
	assert.Equal(t, "a", root.GetText())
	root.ApplyTimestamp(stampAfterFirst - 1)
	assert.Equal(t, "x", root.GetText())
}

func TestCurrentVersionSkipsPlaceholders(t *testing.T) {
	_, _, root := loadTestFile("x")

	_, _, err := root.InsertLineAt(2, "new")
	require.NoError(t, err)

	current, err := root.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, version.Insertion, current.Kind)

	// parked between the placeholder and the insertion, the newest
	// non-placeholder head wins
	root.ApplyTimestamp(current.Timestamp - 1)
	current, err = root.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, version.Imported, current.Kind)
}

func TestUserVersionCountCountsEveryUserStepOnce(t *testing.T) {
	_, _, root := loadTestFile(fakeContent(4)...)

	assert.Equal(t, 1, root.UserVersionCount())

	_, _, err := root.UpdateLine(1, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, root.UserVersionCount())

	_, _, err = root.InsertLineAt(1, "b")
	require.NoError(t, err)
	// the placeholder and the insertion are separate timeline entries
	assert.Equal(t, 4, root.UserVersionCount())
}
