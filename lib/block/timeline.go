package block

import (
	"sort"

	"github.com/ether/blockpad-go/lib/exception"
	"github.com/ether/blockpad-go/lib/models/version"
)

// Timeline returns the block's selectable versions, ascending by
// timestamp: every version on a claimed line except IMPORTED and CLONE
// kinds, plus the most recent IMPORTED version as the single anchor for
// the original state. Import stamps all lines at once, so the per-line
// origin collapses into one step.
func (b *Block) Timeline() []version.Version {
	var timeline []version.Version
	var anchor *version.Version

	for _, line := range b.claimedLines() {
		for _, v := range line.Versions() {
			switch v.Kind {
			case version.Imported:
				if anchor == nil || v.Timestamp >= anchor.Timestamp {
					copied := v
					anchor = &copied
				}
			case version.Clone:
				// clone markers are bookkeeping, not user steps
			default:
				timeline = append(timeline, v)
			}
		}
	}

	if anchor != nil {
		timeline = append(timeline, *anchor)
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].Timestamp < timeline[j].Timestamp
	})
	return timeline
}

// CurrentVersion returns, among the claimed lines' heads at the block's
// timestamp, the one with the maximum timestamp that is not a
// PRE_INSERTION placeholder. That version is the block's cursor on its
// timeline.
func (b *Block) CurrentVersion() (version.Version, error) {
	var current *version.Version
	for _, line := range b.claimedLines() {
		head := line.HeadAt(b.Timestamp)
		if head.Kind == version.PreInsertion {
			continue
		}
		if current == nil || head.Timestamp > current.Timestamp {
			copied := head
			current = &copied
		}
	}
	if current == nil {
		return version.Version{}, exception.NewInvariantViolationError(
			"block " + b.Id + " has no current version at timestamp cursor")
	}
	return *current, nil
}

// CurrentIndex returns the rank of the current version in the timeline.
// When the current head is the INSERTION after a PRE_INSERTION, the index
// points at the placeholder entry, so that one scrub step to the left
// hides the line again.
func (b *Block) CurrentIndex() (int, error) {
	current, err := b.CurrentVersion()
	if err != nil {
		return 0, err
	}
	timeline := b.Timeline()

	if current.Kind == version.Insertion {
		if pre, ok := b.preInsertionOf(current); ok {
			current = pre
		}
	}
	if current.Kind == version.Imported {
		// every imported head maps onto the collapsed anchor entry
		for i, v := range timeline {
			if v.Kind == version.Imported {
				return i, nil
			}
		}
	}

	for i, v := range timeline {
		if sameVersion(v, current) {
			return i, nil
		}
	}
	return 0, exception.NewInvariantViolationError(
		"block " + b.Id + ": current version is not on the timeline")
}

// UserVersionCount is the scrubber length shown to the user: every version
// on the claimed lines, with the per-line import collapsed into a single
// original step.
func (b *Block) UserVersionCount() int {
	total := 0
	imported := 0
	for _, line := range b.claimedLines() {
		for _, v := range line.Versions() {
			if v.Kind == version.Clone {
				continue
			}
			if v.Kind == version.Imported {
				imported++
			}
			total++
		}
	}
	count := total - imported
	if imported > 0 {
		count++
	}
	return count
}

// ApplyTimestamp moves the block's cursor. Reads re-derive content from
// the per-line heads; nothing is rewritten eagerly.
func (b *Block) ApplyTimestamp(t int64) {
	b.Timestamp = t
}

// ApplyIndex snaps the block to the i-th timeline entry. PRE_INSERTION
// entries need special handling so an insertion step behaves intuitively
// whether the user arrives from the left, from the right, or jumps
// directly:
//
//  1. moving right past an engaged placeholder reveals the line,
//  2. moving left onto the current placeholder hides it,
//  3. landing on a placeholder that is (or precedes) the cursor skips the
//     invisible state,
//  4. everything else applies the selected version as-is.
func (b *Block) ApplyIndex(i int) error {
	timeline := b.Timeline()
	if i < 0 || i >= len(timeline) {
		return exception.NewOutOfRangeError("timeline index", i, len(timeline)-1)
	}

	currentIndex, err := b.CurrentIndex()
	if err != nil {
		return err
	}
	latest := timeline[currentIndex]
	sel := timeline[i]

	var prev, next *version.Version
	if i > 0 {
		prev = &timeline[i-1]
	}
	if i+1 < len(timeline) {
		next = &timeline[i+1]
	}

	var target version.Version
	switch {
	case prev != nil && sameVersion(*prev, latest) &&
		prev.Kind == version.PreInsertion && b.placeholderEngaged(*prev):
		target = b.versionAfter(*prev)
	case next != nil && sameVersion(*next, latest) &&
		next.Kind == version.PreInsertion && !b.placeholderEngaged(*next):
		target = *next
	case sel.Kind == version.PreInsertion &&
		(sameVersion(sel, latest) || (next != nil && sameVersion(*next, latest))):
		target = b.versionAfter(sel)
	default:
		target = sel
	}

	b.ApplyTimestamp(target.Timestamp)
	return nil
}

// placeholderEngaged reports whether the line of a PRE_INSERTION version is
// currently hidden in this block's view.
func (b *Block) placeholderEngaged(pre version.Version) bool {
	line := b.File.Line(pre.LineId)
	if line == nil {
		return false
	}
	return !line.HeadAt(b.Timestamp).Active
}

// versionAfter resolves the version following v on its line, i.e. the
// INSERTION paired with a PRE_INSERTION placeholder.
func (b *Block) versionAfter(v version.Version) version.Version {
	line := b.File.Line(v.LineId)
	if line == nil {
		return v
	}
	if after, ok := line.VersionAfter(v); ok {
		return after
	}
	return v
}

// preInsertionOf finds the placeholder paired with an INSERTION version.
func (b *Block) preInsertionOf(ins version.Version) (version.Version, bool) {
	line := b.File.Line(ins.LineId)
	if line == nil {
		return version.Version{}, false
	}
	versions := line.Versions()
	for i, v := range versions {
		if v.Timestamp == ins.Timestamp && i > 0 && versions[i-1].Kind == version.PreInsertion {
			return versions[i-1], true
		}
	}
	return version.Version{}, false
}

func sameVersion(a version.Version, b version.Version) bool {
	return a.LineId == b.LineId && a.Timestamp == b.Timestamp && a.Kind == b.Kind
}
