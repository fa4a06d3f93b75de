package doc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ether/blockpad-go/lib/clock"
)

func importedFile(contents ...string) *File {
	file := NewFile("f1", "/test", "\n")
	for i, content := range contents {
		file.AddImported(NewImportedLine(fmt.Sprintf("l%d", i+1), "f1", 1, content))
	}
	return file
}

func assertStrictlyIncreasingOrders(t *testing.T, file *File) {
	t.Helper()
	lines := file.Lines()
	for i := 1; i < len(lines); i++ {
		if lines[i-1].Order >= lines[i].Order {
			t.Fatalf("orders not strictly increasing at %d: %d >= %d",
				i, lines[i-1].Order, lines[i].Order)
		}
	}
}

func TestAddImportedKeepsOrder(t *testing.T) {
	file := importedFile("x", "y", "z")

	require.Len(t, file.Lines(), 3)
	assert.Equal(t, "x", file.Lines()[0].Head().Content)
	assert.Equal(t, "z", file.Lines()[2].Head().Content)
	assertStrictlyIncreasingOrders(t, file)
}

func TestInsertBetweenNeighbors(t *testing.T) {
	file := importedFile("x", "y")
	provider := clock.NewProvider()
	provider.AdvanceTo(1)

	line := NewInsertedLine(provider, "new", "f1", "b1", "between")
	changed := file.InsertBetween(line, file.Lines()[0], file.Lines()[1])

	require.Len(t, file.Lines(), 3)
	assert.Equal(t, "between", file.Lines()[1].Head().Content)
	assert.Equal(t, []*Line{line}, changed)
	assertStrictlyIncreasingOrders(t, file)
}

func TestInsertBetweenPrepends(t *testing.T) {
	file := importedFile("x", "y")
	provider := clock.NewProvider()
	provider.AdvanceTo(1)

	line := NewInsertedLine(provider, "new", "f1", "b1", "first")
	file.InsertBetween(line, nil, file.Lines()[0])

	assert.Equal(t, "first", file.Lines()[0].Head().Content)
	assertStrictlyIncreasingOrders(t, file)
}

func TestInsertBetweenAppends(t *testing.T) {
	file := importedFile("x", "y")
	provider := clock.NewProvider()
	provider.AdvanceTo(1)

	line := NewInsertedLine(provider, "new", "f1", "b1", "last")
	file.InsertBetween(line, file.Lines()[1], nil)

	assert.Equal(t, "last", file.Lines()[2].Head().Content)
	assertStrictlyIncreasingOrders(t, file)
}

func TestInsertBetweenIntoEmptyFile(t *testing.T) {
	file := NewFile("f1", "/test", "\n")
	provider := clock.NewProvider()

	line := NewInsertedLine(provider, "new", "f1", "b1", "only")
	file.InsertBetween(line, nil, nil)

	require.Len(t, file.Lines(), 1)
	assertStrictlyIncreasingOrders(t, file)
}

func TestInsertBetweenRenumbersWhenGapIsExhausted(t *testing.T) {
	file := importedFile("x", "y")
	provider := clock.NewProvider()
	provider.AdvanceTo(1)

	// keep splitting the same gap until midpoints run out
	left := file.Lines()[0]
	for i := 0; i < 30; i++ {
		right := file.Lines()[file.indexOf(left)+1]
		line := NewInsertedLine(provider, fmt.Sprintf("n%d", i), "f1", "b1", "mid")
		file.InsertBetween(line, left, right)
		left = line
	}

	require.Len(t, file.Lines(), 32)
	assertStrictlyIncreasingOrders(t, file)
	assert.Equal(t, "x", file.Lines()[0].Head().Content)
	assert.Equal(t, "y", file.Lines()[31].Head().Content)
}

func TestRemoveLine(t *testing.T) {
	file := importedFile("x", "y", "z")
	file.RemoveLine("l2")

	require.Len(t, file.Lines(), 2)
	assert.Nil(t, file.Line("l2"))
	assertStrictlyIncreasingOrders(t, file)
}

func TestActiveLines(t *testing.T) {
	file := importedFile("x", "y", "z")
	provider := clock.NewProvider()
	provider.AdvanceTo(1)
	file.Lines()[1].Delete(provider, "b1")

	all := file.ActiveLines(99, nil)
	require.Len(t, all, 2)
	assert.Equal(t, "x", all[0].Head.Content)
	assert.Equal(t, "z", all[1].Head.Content)

	// at the import timestamp the deleted line is still visible
	before := file.ActiveLines(1, nil)
	assert.Len(t, before, 3)

	// a claim filter narrows the view
	onlyFirst := file.ActiveLines(99, func(l *Line) bool { return l.Id == "l1" })
	require.Len(t, onlyFirst, 1)
	assert.Equal(t, "x", onlyFirst[0].Head.Content)
}

func TestSortRestoresHydrationOrder(t *testing.T) {
	file := NewFile("f1", "/test", "\n")
	file.AddHydrated(NewEmptyLine("l2", "f1", 2000))
	file.AddHydrated(NewEmptyLine("l1", "f1", 1000))
	file.Sort()

	assert.Equal(t, "l1", file.Lines()[0].Id)
	assert.Equal(t, "l2", file.Lines()[1].Id)
}
