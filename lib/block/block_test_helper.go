package block

import (
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/ether/blockpad-go/lib/db"
)

func newTestManager() *Manager {
	return NewManager(db.NewMemoryDataStore(), zap.NewNop().Sugar())
}

// loadTestFile imports the given lines and returns the manager, file id
// and root block.
func loadTestFile(contents ...string) (*Manager, string, *Block) {
	m := newTestManager()
	fileId, err := m.LoadFile("/test.go", "\n", strings.Join(contents, "\n"))
	if err != nil {
		panic(err)
	}
	rootId, err := m.GetRootBlock(fileId)
	if err != nil {
		panic(err)
	}
	root, err := m.Block(rootId)
	if err != nil {
		panic(err)
	}
	return m, fileId, root
}

// fakeContent produces n lines of random words for tests that only care
// about shape, not content.
func fakeContent(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = gofakeit.Word()
	}
	return lines
}
