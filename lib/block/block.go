package block

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ether/blockpad-go/lib/clock"
	"github.com/ether/blockpad-go/lib/doc"
	"github.com/ether/blockpad-go/lib/exception"
	blockModels "github.com/ether/blockpad-go/lib/models/block"
)

// Type distinguishes the block variants. Shared behavior lives on Block
// itself; the few type-specific branches switch on the tag.
type Type int

const (
	// Root blocks claim every line ever belonging to their file.
	Root Type = iota
	// Inline blocks claim a contiguous subrange of their parent's lines at
	// the moment of creation. Membership never shrinks afterwards.
	Inline
	// Clone blocks are forked from an origin block and share its lines
	// while carrying their own timestamp cursor.
	Clone
)

func (t Type) String() string {
	switch t {
	case Root:
		return "ROOT"
	case Inline:
		return "INLINE"
	case Clone:
		return "CLONE"
	default:
		return "UNKNOWN"
	}
}

func ParseType(s string) (Type, bool) {
	switch s {
	case "ROOT":
		return Root, true
	case "INLINE":
		return Inline, true
	case "CLONE":
		return Clone, true
	default:
		return 0, false
	}
}

// Block is a named region of a file with its own timestamp cursor. What the
// user sees inside a block is a pure function of its claimed line set and
// its timestamp; scrubbing a block never disturbs its siblings.
type Block struct {
	Id        string
	Type      Type
	File      *doc.File
	Parent    *Block
	Origin    *Block
	Timestamp int64
	Deleted   bool

	provider *clock.Provider
	registry *Registry

	children map[string]*Block
	claimed  map[string]struct{}
	childSeq int
	cloneSeq int
}

func newBlock(id string, blockType Type, file *doc.File, provider *clock.Provider, registry *Registry) *Block {
	return &Block{
		Id:       id,
		Type:     blockType,
		File:     file,
		provider: provider,
		registry: registry,
		children: make(map[string]*Block),
		claimed:  make(map[string]struct{}),
	}
}

// claims reports whether the block claims the given line. Root blocks claim
// every line of their file.
func (b *Block) claims(line *doc.Line) bool {
	if b.Type == Root {
		return true
	}
	_, ok := b.claimed[line.Id]
	return ok
}

func (b *Block) claimsLineId(lineId string) bool {
	if b.Type == Root {
		return b.File.Line(lineId) != nil
	}
	_, ok := b.claimed[lineId]
	return ok
}

// claim adds a line to the block's claimed set and records the membership
// on the line itself.
func (b *Block) claim(line *doc.Line) {
	b.claimed[line.Id] = struct{}{}
	line.AddBlock(b.Id)
}

func (b *Block) unclaim(lineId string) {
	delete(b.claimed, lineId)
}

// claimedLines returns the claimed lines in file order, inactive ones
// included.
func (b *Block) claimedLines() []*doc.Line {
	var lines []*doc.Line
	for _, line := range b.File.Lines() {
		if b.claims(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// ActiveLines returns the block's visible lines at its current timestamp,
// order-ascending.
func (b *Block) ActiveLines() []doc.ActiveLine {
	return b.File.ActiveLines(b.Timestamp, b.claims)
}

// GetActiveLineCount returns the number of visible lines at the block's
// current timestamp.
func (b *Block) GetActiveLineCount() int {
	return len(b.ActiveLines())
}

// GetText concatenates the active line contents at the block's timestamp
// using the file's eol. Clones of this block passed in clonesToConsider
// override the head of every line they claim: their timestamp wins over
// the rendered block's own cursor.
func (b *Block) GetText(clonesToConsider ...*Block) string {
	var contents []string
	for _, line := range b.File.Lines() {
		if !b.claims(line) {
			continue
		}
		t := b.Timestamp
		for _, c := range clonesToConsider {
			if c != nil && c.Type == Clone && c.Origin == b && c.claimsLineId(line.Id) {
				t = c.Timestamp
			}
		}
		head := line.HeadAt(t)
		if head.Active {
			contents = append(contents, head.Content)
		}
	}
	return strings.Join(contents, b.File.Eol)
}

// CreateChild creates an INLINE child claiming the active lines of the
// given 1-based inclusive range. A range touching a sibling's lines is
// refused with an OverlapError, leaving all state unchanged; the session
// surface renders that as a null block id.
func (b *Block) CreateChild(r blockModels.Range) (*Block, error) {
	active := b.ActiveLines()
	if r.StartLine < 1 || r.StartLine > len(active) {
		return nil, exception.NewOutOfRangeError("start line", r.StartLine, len(active))
	}
	if r.EndLine < r.StartLine || r.EndLine > len(active) {
		return nil, exception.NewOutOfRangeError("end line", r.EndLine, len(active))
	}

	selected := active[r.StartLine-1 : r.EndLine]
	for _, sibling := range b.children {
		if sibling.Deleted || sibling.Type != Inline {
			continue
		}
		for _, al := range selected {
			if sibling.claimsLineId(al.Line.Id) {
				return nil, exception.NewOverlapError(sibling.Id)
			}
		}
	}

	b.childSeq++
	child := newBlock(b.Id+"/"+strconv.Itoa(b.childSeq), Inline, b.File, b.provider, b.registry)
	child.Parent = b
	child.Timestamp = b.Timestamp
	for _, al := range selected {
		child.claim(al.Line)
	}

	b.children[child.Id] = child
	b.registry.Add(child)
	return child, nil
}

// Copy forks the block into a CLONE sharing the same lines. The clone's
// timestamp is the maximum head timestamp currently in scope, so it starts
// out showing exactly what the original shows.
func (b *Block) Copy() *Block {
	b.cloneSeq++
	clone := newBlock(b.Id+"/clone-"+strconv.Itoa(b.cloneSeq), Clone, b.File, b.provider, b.registry)
	clone.Parent = b.Parent
	clone.Origin = b

	var maxStamp int64
	for _, line := range b.claimedLines() {
		clone.claim(line)
		if head := line.HeadAt(b.Timestamp); head.Timestamp <= b.Timestamp && head.Timestamp > maxStamp {
			maxStamp = head.Timestamp
		}
	}
	clone.Timestamp = maxStamp

	b.registry.Add(clone)
	return clone
}

// Delete removes the block from its parent's child map and marks it and
// all its children deleted. Claimed lines are untouched.
func (b *Block) Delete() {
	for _, child := range b.children {
		child.Delete()
	}
	if b.Parent != nil {
		delete(b.Parent.children, b.Id)
	}
	b.Deleted = true
}

// Children returns the block's live child blocks in id order.
func (b *Block) Children() []*Block {
	var children []*Block
	for _, child := range b.children {
		if !child.Deleted {
			children = append(children, child)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].Id < children[j].Id
	})
	return children
}

// RangeInParent locates the block inside its parent's current active view.
// Root blocks span the whole file. A block none of whose lines are visible
// in the parent reports the zero range.
func (b *Block) RangeInParent() blockModels.Range {
	if b.Type == Root || b.Parent == nil {
		count := b.GetActiveLineCount()
		if count == 0 {
			return blockModels.Range{}
		}
		return blockModels.Range{StartLine: 1, EndLine: count}
	}

	start, end := 0, 0
	for position, al := range b.Parent.ActiveLines() {
		if !b.claimsLineId(al.Line.Id) {
			continue
		}
		if start == 0 {
			start = position + 1
		}
		end = position + 1
	}
	return blockModels.Range{StartLine: start, EndLine: end}
}

// AsBlockInfo assembles the scrubber state the editor surface renders for
// this block.
func (b *Block) AsBlockInfo(tags []blockModels.TagInfo) (*blockModels.Info, error) {
	index, err := b.CurrentIndex()
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = make([]blockModels.TagInfo, 0)
	}
	return &blockModels.Info{
		Id:                  b.Id,
		FileId:              b.File.Id,
		Range:               b.RangeInParent(),
		UserVersionCount:    b.UserVersionCount(),
		CurrentVersionIndex: index,
		Tags:                tags,
	}, nil
}

