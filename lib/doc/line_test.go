package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ether/blockpad-go/lib/clock"
	"github.com/ether/blockpad-go/lib/models/version"
)

func TestImportedLineHasSingleActiveVersion(t *testing.T) {
	line := NewImportedLine("l1", "f1", 7, "hello")

	require.Len(t, line.Versions(), 1)
	head := line.Head()
	assert.Equal(t, version.Imported, head.Kind)
	assert.Equal(t, int64(7), head.Timestamp)
	assert.True(t, head.Active)
	assert.Equal(t, "hello", head.Content)
}

func TestInsertedLineIsBornHidden(t *testing.T) {
	provider := clock.NewProvider()
	line := NewInsertedLine(provider, "l1", "f1", "b1", "new")

	require.Len(t, line.Versions(), 2)
	pre := line.Versions()[0]
	ins := line.Versions()[1]

	assert.Equal(t, version.PreInsertion, pre.Kind)
	assert.False(t, pre.Active)
	assert.Equal(t, version.Insertion, ins.Kind)
	assert.True(t, ins.Active)
	assert.Equal(t, "new", ins.Content)
	assert.Equal(t, pre.Timestamp+1, ins.Timestamp)
	assert.Equal(t, "b1", ins.SourceBlock)
}

func TestHeadAt(t *testing.T) {
	provider := clock.NewProvider()
	provider.Next() // reserve stamp 1 for the import
	line := NewImportedLine("l1", "f1", 1, "v1")
	line.UpdateContent(provider, "b1", "v2") // stamp 2
	line.UpdateContent(provider, "b1", "v3") // stamp 3

	testCases := []struct {
		t    int64
		want string
	}{
		{1, "v1"},
		{2, "v2"},
		{3, "v3"},
		{99, "v3"},
	}
	for _, tc := range testCases {
		got := line.HeadAt(tc.t)
		if got.Content != tc.want {
			t.Errorf("HeadAt(%d) = %q; want %q", tc.t, got.Content, tc.want)
		}
	}
}

func TestHeadAtBeforeBirthReturnsEarliestVersion(t *testing.T) {
	provider := clock.NewProvider()
	provider.AdvanceTo(10)
	line := NewInsertedLine(provider, "l1", "f1", "b1", "new")

	// before the line existed the placeholder is the observable state
	head := line.HeadAt(3)
	assert.Equal(t, version.PreInsertion, head.Kind)
	assert.False(t, head.Active)
}

func TestAppendRejectsNonIncreasingTimestamps(t *testing.T) {
	line := NewImportedLine("l1", "f1", 5, "x")

	err := line.Append(version.Version{LineId: "l1", Timestamp: 5, Kind: version.Change})
	assert.Error(t, err)

	err = line.Append(version.Version{LineId: "l1", Timestamp: 4, Kind: version.Change})
	assert.Error(t, err)

	err = line.Append(version.Version{LineId: "l1", Timestamp: 6, Kind: version.Change, Active: true})
	assert.NoError(t, err)
}

func TestDeleteAppendsInactiveVersion(t *testing.T) {
	provider := clock.NewProvider()
	provider.Next()
	line := NewImportedLine("l1", "f1", 1, "x")

	v := line.Delete(provider, "b1")
	assert.Equal(t, version.Deletion, v.Kind)
	assert.False(t, v.Active)
	assert.False(t, line.Head().Active)
	// the history before the deletion stays recoverable
	assert.True(t, line.HeadAt(1).Active)
}

func TestTruncateAfter(t *testing.T) {
	provider := clock.NewProvider()
	provider.Next()
	line := NewImportedLine("l1", "f1", 1, "x")
	line.UpdateContent(provider, "b1", "y")
	line.UpdateContent(provider, "b1", "z")

	line.TruncateAfter(1)
	require.Len(t, line.Versions(), 1)
	assert.Equal(t, "x", line.Head().Content)
}

func TestVersionAfter(t *testing.T) {
	provider := clock.NewProvider()
	line := NewInsertedLine(provider, "l1", "f1", "b1", "new")

	pre := line.Versions()[0]
	after, ok := line.VersionAfter(pre)
	require.True(t, ok)
	assert.Equal(t, version.Insertion, after.Kind)

	_, ok = line.VersionAfter(line.Head())
	assert.False(t, ok)
}

func TestBlockMembership(t *testing.T) {
	line := NewImportedLine("l1", "f1", 1, "x")
	line.AddBlock("b1")
	line.AddBlock("b2")
	line.AddBlock("b1")

	assert.True(t, line.InBlock("b1"))
	assert.False(t, line.InBlock("b3"))
	assert.Len(t, line.Blocks(), 2)
}
