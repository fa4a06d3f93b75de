package doc

import (
	"sort"

	"github.com/ether/blockpad-go/lib/models/version"
)

// orderStep is the gap left between neighboring order keys so that lines
// can be inserted between them without touching the rest of the file.
const orderStep int64 = 1 << 20

// File owns the ordered line list of one imported file. Lines are keyed by
// a dense int64 order; inserting between two neighbors takes the midpoint
// of their keys and the whole file is renumbered when a gap is exhausted.
type File struct {
	Id   string
	Path string
	Eol  string

	lines []*Line
	byId  map[string]*Line
}

func NewFile(id string, path string, eol string) *File {
	return &File{
		Id:   id,
		Path: path,
		Eol:  eol,
		byId: make(map[string]*Line),
	}
}

// Lines returns every line ever added, order-ascending, inactive ones
// included.
func (f *File) Lines() []*Line {
	return f.lines
}

func (f *File) Line(id string) *Line {
	return f.byId[id]
}

// AddImported appends a line during import, assigning the next free order
// key.
func (f *File) AddImported(line *Line) {
	line.Order = f.nextAppendOrder()
	f.lines = append(f.lines, line)
	f.byId[line.Id] = line
}

// AddHydrated re-inserts a line loaded from the store, keeping its
// persisted order key. Call Sort once after hydrating a file.
func (f *File) AddHydrated(line *Line) {
	f.lines = append(f.lines, line)
	f.byId[line.Id] = line
}

// Sort restores order-ascending line order after hydration.
func (f *File) Sort() {
	sort.Slice(f.lines, func(i, j int) bool {
		return f.lines[i].Order < f.lines[j].Order
	})
}

func (f *File) nextAppendOrder() int64 {
	if len(f.lines) == 0 {
		return orderStep
	}
	return f.lines[len(f.lines)-1].Order + orderStep
}

// InsertBetween places line between prev and next in the file order. Either
// neighbor may be nil: nil prev prepends before next, nil next appends
// after prev, both nil appends at the end of the file. Hidden lines count
// as neighbors too; the order key always lands strictly between the
// adjacent file positions. The returned slice holds every line whose order
// key changed and must be re-persisted; it includes the inserted line
// itself.
func (f *File) InsertBetween(line *Line, prev *Line, next *Line) []*Line {
	var index int
	switch {
	case next != nil:
		index = f.indexOf(next)
	case prev != nil:
		index = f.indexOf(prev) + 1
	default:
		index = len(f.lines)
	}

	switch {
	case index > 0 && index < len(f.lines):
		lower := f.lines[index-1].Order
		upper := f.lines[index].Order
		if upper-lower < 2 {
			return f.renumberWith(line, index)
		}
		line.Order = lower + (upper-lower)/2
	case index > 0:
		line.Order = f.lines[index-1].Order + orderStep
	case len(f.lines) > 0:
		line.Order = f.lines[0].Order - orderStep
	default:
		line.Order = orderStep
	}

	f.lines = append(f.lines, nil)
	copy(f.lines[index+1:], f.lines[index:])
	f.lines[index] = line
	f.byId[line.Id] = line
	return []*Line{line}
}

func (f *File) indexOf(line *Line) int {
	for i, candidate := range f.lines {
		if candidate.Id == line.Id {
			return i
		}
	}
	return -1
}

// renumberWith rewrites every order key with fresh gaps, slotting line in
// at index. All lines are returned for persistence.
func (f *File) renumberWith(line *Line, index int) []*Line {
	f.lines = append(f.lines, nil)
	copy(f.lines[index+1:], f.lines[index:])
	f.lines[index] = line
	f.byId[line.Id] = line

	for i, l := range f.lines {
		l.Order = int64(i+1) * orderStep
	}
	return f.lines
}

// RemoveLine detaches a line again. Only the edit engine uses this, to
// unwind an insertion whose store transaction failed to commit.
func (f *File) RemoveLine(id string) {
	line, ok := f.byId[id]
	if !ok {
		return
	}
	index := f.indexOf(line)
	f.lines = append(f.lines[:index], f.lines[index+1:]...)
	delete(f.byId, id)
}

// ActiveLine pairs a line with its head version at some timestamp.
type ActiveLine struct {
	Line *Line
	Head version.Version
}

// ActiveLines yields, order-ascending, every line accepted by claimed whose
// head at t is active.
func (f *File) ActiveLines(t int64, claimed func(*Line) bool) []ActiveLine {
	var active []ActiveLine
	for _, line := range f.lines {
		if claimed != nil && !claimed(line) {
			continue
		}
		head := line.HeadAt(t)
		if head.Active {
			active = append(active, ActiveLine{Line: line, Head: head})
		}
	}
	return active
}
