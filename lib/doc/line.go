package doc

import (
	"fmt"

	"github.com/ether/blockpad-go/lib/clock"
	"github.com/ether/blockpad-go/lib/exception"
	"github.com/ether/blockpad-go/lib/models/version"
)

// Line is one node in a file's line list. It owns an append-only,
// timestamp-ordered version history and remembers which blocks claim it.
// Lines are never physically removed; deleting a line appends an inactive
// version.
type Line struct {
	Id     string
	FileId string
	Order  int64

	versions []version.Version
	blocks   map[string]struct{}
}

// NewImportedLine creates a line for file import. Every line of one import
// shares the same timestamp.
func NewImportedLine(id string, fileId string, timestamp int64, content string) *Line {
	l := &Line{
		Id:     id,
		FileId: fileId,
		blocks: make(map[string]struct{}),
	}
	l.versions = append(l.versions, version.Version{
		LineId:    id,
		Timestamp: timestamp,
		Content:   content,
		Active:    true,
		Kind:      version.Imported,
	})
	return l
}

// NewInsertedLine creates a line born mid-editing. Its first version is a
// hidden PRE_INSERTION placeholder, its second the visible INSERTION
// content one tick later. Scrubbing backward across the insertion moment
// lands on the placeholder and hides the line.
func NewInsertedLine(provider *clock.Provider, id string, fileId string, blockId string, content string) *Line {
	l := &Line{
		Id:     id,
		FileId: fileId,
		blocks: make(map[string]struct{}),
	}
	preStamp := provider.Next()
	l.versions = append(l.versions, version.Version{
		LineId:      id,
		Timestamp:   preStamp,
		Active:      false,
		Kind:        version.PreInsertion,
		SourceBlock: blockId,
	})
	l.versions = append(l.versions, version.Version{
		LineId:      id,
		Timestamp:   provider.Next(),
		Content:     content,
		Active:      true,
		Kind:        version.Insertion,
		SourceBlock: blockId,
	})
	return l
}

// NewEmptyLine creates a bare line for store hydration; versions are
// appended afterwards in timestamp order.
func NewEmptyLine(id string, fileId string, order int64) *Line {
	return &Line{
		Id:     id,
		FileId: fileId,
		Order:  order,
		blocks: make(map[string]struct{}),
	}
}

func (l *Line) Versions() []version.Version {
	return l.versions
}

// Head returns the latest version of the line.
func (l *Line) Head() version.Version {
	return l.versions[len(l.versions)-1]
}

// HeadAt returns the last version with a timestamp at or before t. If the
// line was not yet born at t, the earliest version is returned instead:
// for inserted lines that is the hidden PRE_INSERTION placeholder, so
// "before I existed" is observable as "hidden".
func (l *Line) HeadAt(t int64) version.Version {
	head := l.versions[0]
	for _, v := range l.versions {
		if v.Timestamp > t {
			break
		}
		head = v
	}
	return head
}

// VersionAfter returns the version following v on this line, or false if v
// is the head.
func (l *Line) VersionAfter(v version.Version) (version.Version, bool) {
	for i, candidate := range l.versions {
		if candidate.Timestamp == v.Timestamp {
			if i+1 < len(l.versions) {
				return l.versions[i+1], true
			}
			return version.Version{}, false
		}
	}
	return version.Version{}, false
}

// Append adds a version to the history. Timestamps must be strictly
// increasing; violating that is a programmer error.
func (l *Line) Append(v version.Version) error {
	if len(l.versions) > 0 && v.Timestamp <= l.Head().Timestamp {
		return exception.NewInvariantViolationError(
			fmt.Sprintf("line %s: version timestamp %d is not after head %d", l.Id, v.Timestamp, l.Head().Timestamp))
	}
	l.versions = append(l.versions, v)
	return nil
}

// UpdateContent appends a CHANGE version with a fresh stamp on behalf of
// the given block.
func (l *Line) UpdateContent(provider *clock.Provider, blockId string, content string) version.Version {
	v := version.Version{
		LineId:      l.Id,
		Timestamp:   provider.Next(),
		Content:     content,
		Active:      true,
		Kind:        version.Change,
		SourceBlock: blockId,
	}
	l.versions = append(l.versions, v)
	return v
}

// Delete appends a DELETION version hiding the line at and after the fresh
// stamp. The history before it stays recoverable.
func (l *Line) Delete(provider *clock.Provider, blockId string) version.Version {
	v := version.Version{
		LineId:      l.Id,
		Timestamp:   provider.Next(),
		Content:     l.Head().Content,
		Active:      false,
		Kind:        version.Deletion,
		SourceBlock: blockId,
	}
	l.versions = append(l.versions, v)
	return v
}

// TruncateAfter drops every version stamped after t. Only the edit engine
// uses this, to unwind an edit whose store transaction failed to commit.
func (l *Line) TruncateAfter(t int64) {
	for len(l.versions) > 0 && l.Head().Timestamp > t {
		l.versions = l.versions[:len(l.versions)-1]
	}
}

// AddBlock records that the given block claims this line. Membership never
// shrinks: lines keep their blocks even when they become inactive.
func (l *Line) AddBlock(blockId string) {
	l.blocks[blockId] = struct{}{}
}

func (l *Line) InBlock(blockId string) bool {
	_, ok := l.blocks[blockId]
	return ok
}

func (l *Line) Blocks() []string {
	blockIds := make([]string, 0, len(l.blocks))
	for id := range l.blocks {
		blockIds = append(blockIds, id)
	}
	return blockIds
}
