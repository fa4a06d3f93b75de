package block

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ether/blockpad-go/lib/doc"
	"github.com/ether/blockpad-go/lib/exception"
	blockModels "github.com/ether/blockpad-go/lib/models/block"
	dbModels "github.com/ether/blockpad-go/lib/models/db"
	"github.com/ether/blockpad-go/lib/models/version"
)

// EditResult collects everything one logical edit produced: the rows the
// store must persist in a single transaction and enough bookkeeping to
// unwind the in-memory state when that transaction fails to commit.
type EditResult struct {
	NewLines  []*doc.Line
	Reordered []*doc.Line
	Versions  []version.Version
	Claims    []dbModels.BlockLineDB
	Blocks    []*Block

	file       *doc.File
	clockFloor int64
	prevStamps map[string]int64
	claimedBy  map[string][]*Block
	affected   map[string]struct{}
}

func (b *Block) newEditResult() *EditResult {
	return &EditResult{
		file:       b.File,
		clockFloor: b.provider.Last(),
		prevStamps: make(map[string]int64),
		claimedBy:  make(map[string][]*Block),
		affected:   make(map[string]struct{}),
	}
}

func (r *EditResult) addVersion(v version.Version) {
	r.Versions = append(r.Versions, v)
}

func (r *EditResult) addClaim(claimer *Block, lineId string) {
	r.Claims = append(r.Claims, dbModels.BlockLineDB{BlockId: claimer.Id, LineId: lineId})
	r.claimedBy[lineId] = append(r.claimedBy[lineId], claimer)
}

func (r *EditResult) advanceBlock(b *Block, t int64) {
	if _, seen := r.prevStamps[b.Id]; !seen {
		r.prevStamps[b.Id] = b.Timestamp
		r.Blocks = append(r.Blocks, b)
	}
	b.Timestamp = t
}

func (r *EditResult) touch(line *doc.Line) {
	for _, blockId := range line.Blocks() {
		r.affected[blockId] = struct{}{}
	}
}

// Affected returns the ids of every block claiming a touched line, sorted.
func (r *EditResult) Affected() []string {
	ids := make([]string, 0, len(r.affected))
	for id := range r.affected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Revert unwinds the edit from the in-memory model after a failed store
// commit: appended versions are truncated, inserted lines detached and
// block cursors restored. The store itself rolled back with its
// transaction.
func (r *EditResult) Revert() {
	for _, v := range r.Versions {
		if line := r.file.Line(v.LineId); line != nil {
			line.TruncateAfter(r.clockFloor)
		}
	}
	for _, line := range r.NewLines {
		for _, claimer := range r.claimedBy[line.Id] {
			claimer.unclaim(line.Id)
		}
		r.file.RemoveLine(line.Id)
	}
	for _, b := range r.Blocks {
		b.Timestamp = r.prevStamps[b.Id]
	}
}

// InsertLineAt inserts a new line so that it becomes the n-th active line
// of the block, 1 ≤ n ≤ activeCount+1 (edge cases prepend and append).
// The line is born as a hidden PRE_INSERTION plus a visible INSERTION one
// tick later, is claimed by every block that claims a neighboring line,
// and only the editing block's cursor advances past the insertion: in
// sibling views the new line stays hidden until they scrub forward.
func (b *Block) InsertLineAt(n int, content string) (*doc.Line, *EditResult, error) {
	result := b.newEditResult()
	line, err := b.insertLineAt(n, content, result)
	if err != nil {
		return nil, nil, err
	}
	return line, result, nil
}

func (b *Block) insertLineAt(n int, content string, result *EditResult) (*doc.Line, error) {
	active := b.ActiveLines()
	if n < 1 || n > len(active)+1 {
		return nil, exception.NewOutOfRangeError("line number", n, len(active)+1)
	}

	var prev, next *doc.Line
	if n >= 2 {
		prev = active[n-2].Line
	}
	if n <= len(active) {
		next = active[n-1].Line
	}

	line := doc.NewInsertedLine(b.provider, uuid.NewString(), b.File.Id, b.Id, content)
	result.NewLines = append(result.NewLines, line)
	result.Reordered = append(result.Reordered, b.File.InsertBetween(line, prev, next)...)
	for _, v := range line.Versions() {
		result.addVersion(v)
	}

	claimers := map[string]*Block{b.Id: b}
	for _, neighbor := range []*doc.Line{prev, next} {
		if neighbor == nil {
			continue
		}
		for _, blockId := range neighbor.Blocks() {
			if claimer, ok := b.registry.Get(blockId); ok {
				claimers[claimer.Id] = claimer
			}
		}
	}
	for _, claimer := range claimers {
		claimer.claim(line)
		result.addClaim(claimer, line.Id)
	}

	result.advanceBlock(b, line.Head().Timestamp)
	result.touch(line)
	return line, nil
}

// UpdateLine replaces the content of the n-th active line with a CHANGE
// version and advances the block's cursor to it.
func (b *Block) UpdateLine(n int, content string) (*doc.Line, *EditResult, error) {
	active := b.ActiveLines()
	if n < 1 || n > len(active) {
		return nil, nil, exception.NewOutOfRangeError("line number", n, len(active))
	}

	result := b.newEditResult()
	line := active[n-1].Line
	v := line.UpdateContent(b.provider, b.Id, content)
	result.addVersion(v)
	result.advanceBlock(b, v.Timestamp)
	result.touch(line)
	return line, result, nil
}

// changeClass captures the shape of one multi-line change.
type changeClass struct {
	startsWithEol              bool
	endsWithEol                bool
	insertedAtStartOfStartLine bool
	insertedAtEndOfStartLine   bool
	oneLineInsertOnly          bool
	pushStartLineDown          bool
	pushStartLineUp            bool
}

// classifyChange inspects the change against the current start-line text.
// endsWithEol is a strict suffix check; trailing whitespace does not
// count as an eol boundary.
func classifyChange(change blockModels.MultiLineChange, eol string, startLineText string) changeClass {
	cls := changeClass{
		startsWithEol: strings.HasPrefix(change.InsertedText, eol),
		endsWithEol:   strings.HasSuffix(change.InsertedText, eol),
		oneLineInsertOnly: change.StartLine == change.EndLine &&
			change.StartCol == change.EndCol,
	}

	indent := len(startLineText) - len(strings.TrimLeft(startLineText, " \t"))
	cls.insertedAtStartOfStartLine = change.StartCol <= indent+1
	cls.insertedAtEndOfStartLine = change.StartCol > len(strings.TrimRight(startLineText, " \t"))

	// an insertion before the start of the line that closes with an eol
	// floats the existing start line down; its mirror image floats it up
	cls.pushStartLineDown = cls.oneLineInsertOnly && cls.insertedAtStartOfStartLine && cls.endsWithEol
	cls.pushStartLineUp = cls.oneLineInsertOnly && cls.insertedAtEndOfStartLine && cls.startsWithEol

	return cls
}

// ChangeLines translates one user edit into version writes: surplus old
// lines get DELETION versions, overlapping lines CHANGE versions with the
// new content, surplus new lines are inserted. The block's cursor advances
// to the latest stamp written and the ids of every block claiming a
// touched line are reported so the caller can refresh decorations.
func (b *Block) ChangeLines(change blockModels.MultiLineChange) (*EditResult, error) {
	active := b.ActiveLines()
	if change.StartLine < 1 || change.EndLine < change.StartLine {
		return nil, exception.NewOutOfRangeError("start line", change.StartLine, len(active))
	}

	var startLineText string
	if change.StartLine-1 < len(active) {
		startLineText = active[change.StartLine-1].Head.Content
	}
	cls := classifyChange(change, b.File.Eol, startLineText)

	startLine := change.StartLine
	endLine := change.EndLine
	modified := strings.Split(change.LineText, b.File.Eol)
	if cls.pushStartLineUp {
		modified = modified[1:]
		startLine++
	}
	if cls.pushStartLineDown {
		modified = modified[:len(modified)-1]
		endLine--
	}

	var vcsLines []doc.ActiveLine
	for i := startLine; i <= endLine && i-1 < len(active); i++ {
		vcsLines = append(vcsLines, active[i-1])
	}

	result := b.newEditResult()
	var latest int64

	for i := len(modified); i < len(vcsLines); i++ {
		v := vcsLines[i].Line.Delete(b.provider, b.Id)
		result.addVersion(v)
		result.touch(vcsLines[i].Line)
		latest = v.Timestamp
	}

	for i := 0; i < len(vcsLines) && i < len(modified); i++ {
		v := vcsLines[i].Line.UpdateContent(b.provider, b.Id, modified[i])
		result.addVersion(v)
		result.touch(vcsLines[i].Line)
		latest = v.Timestamp
	}

	if latest > 0 {
		result.advanceBlock(b, latest)
	}

	for j, content := range modified[min(len(vcsLines), len(modified)):] {
		if _, err := b.insertLineAt(startLine+len(vcsLines)+j, content, result); err != nil {
			result.Revert()
			return nil, err
		}
	}

	return result, nil
}
