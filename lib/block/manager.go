package block

import (
	goerrors "errors"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ether/blockpad-go/lib/clock"
	"github.com/ether/blockpad-go/lib/db"
	"github.com/ether/blockpad-go/lib/doc"
	"github.com/ether/blockpad-go/lib/exception"
	blockModels "github.com/ether/blockpad-go/lib/models/block"
	dbModels "github.com/ether/blockpad-go/lib/models/db"
	"github.com/ether/blockpad-go/lib/models/version"
	"github.com/ether/blockpad-go/lib/utils"
)

// Manager is the session-oriented entry point the editor surface talks to.
// It owns the in-memory model, allocates all ids and timestamps, and
// writes every mutation through to the store. All ids it hands out are
// opaque strings; ranges are 1-based and inclusive.
type Manager struct {
	store    db.DataStore
	logger   *zap.SugaredLogger
	provider *clock.Provider
	registry *Registry

	files       map[string]*doc.File
	rootByFile  map[string]string
	tags        map[string]*Tag
	tagsByBlock map[string][]string
}

func NewManager(store db.DataStore, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		store:       store,
		logger:      logger,
		provider:    clock.NewProvider(),
		registry:    NewRegistry(),
		files:       make(map[string]*doc.File),
		rootByFile:  make(map[string]string),
		tags:        make(map[string]*Tag),
		tagsByBlock: make(map[string][]string),
	}
}

func (m *Manager) Provider() *clock.Provider {
	return m.provider
}

// Block resolves an opaque block id to a live block.
func (m *Manager) Block(blockId string) (*Block, error) {
	b, ok := m.registry.Get(blockId)
	if !ok {
		return nil, exception.NewNotFoundError("block", blockId)
	}
	return b, nil
}

// LoadFile imports content. Every line becomes a line node with one
// IMPORTED version at a shared timestamp and a ROOT block is created at
// that same timestamp.
func (m *Manager) LoadFile(path string, eol string, content string) (string, error) {
	if eol == "" {
		eol = "\n"
	}
	cleaned := utils.CleanText(content)

	fileId := uuid.NewString()
	file := doc.NewFile(fileId, path, eol)
	stamp := m.provider.Next()

	root := newBlock(fileId+"/root", Root, file, m.provider, m.registry)
	root.Timestamp = stamp

	var lineRows []dbModels.LineDB
	var versionRows []dbModels.VersionDB
	var claims []dbModels.BlockLineDB

	for _, lineContent := range strings.Split(*cleaned, "\n") {
		line := doc.NewImportedLine(uuid.NewString(), fileId, stamp, lineContent)
		file.AddImported(line)
		root.claim(line)
		lineRows = append(lineRows, lineRow(line))
		versionRows = append(versionRows, versionRow(line.Versions()[0]))
		claims = append(claims, dbModels.BlockLineDB{BlockId: root.Id, LineId: line.Id})
	}

	if err := m.store.SaveFile(dbModels.FileDB{Id: fileId, Path: path, Eol: eol}); err != nil {
		return "", exception.NewStorageError("failed to persist file", err)
	}
	batch := dbModels.EditBatch{
		Lines:      lineRows,
		Versions:   versionRows,
		BlockLines: claims,
		Blocks:     []dbModels.BlockDB{blockRow(root)},
	}
	if err := m.store.SaveEdit(batch); err != nil {
		return "", exception.NewStorageError("failed to persist import", err)
	}

	m.files[fileId] = file
	m.registry.Add(root)
	m.rootByFile[fileId] = root.Id
	m.logger.Infof("loaded file %s as %s with %d lines", path, fileId, len(lineRows))
	return fileId, nil
}

// GetRootBlock returns the id of the file's ROOT block.
func (m *Manager) GetRootBlock(fileId string) (string, error) {
	rootId, ok := m.rootByFile[fileId]
	if !ok {
		return "", exception.NewNotFoundError("file", fileId)
	}
	return rootId, nil
}

// GetText returns the block's visible text. Ids of clones of this block
// may be passed to let their cursors override the line heads they claim.
func (m *Manager) GetText(blockId string, clonesToConsider ...string) (string, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return "", err
	}
	return b.GetText(m.registry.Resolve(clonesToConsider)...), nil
}

// GetActiveLineCount returns the number of visible lines of the block.
func (m *Manager) GetActiveLineCount(blockId string) (int, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return 0, err
	}
	return b.GetActiveLineCount(), nil
}

// GetBlockInfo returns the scrubber state of one block.
func (m *Manager) GetBlockInfo(blockId string) (*blockModels.Info, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return nil, err
	}
	return b.AsBlockInfo(m.tagInfos(blockId))
}

// GetChildrenInfo returns the scrubber state of every live child.
func (m *Manager) GetChildrenInfo(blockId string) ([]blockModels.Info, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return nil, err
	}
	infos := make([]blockModels.Info, 0)
	for _, child := range b.Children() {
		info, err := child.AsBlockInfo(m.tagInfos(child.Id))
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// CreateChild creates an INLINE child on the given range. It returns nil
// without an error when the range overlaps a sibling.
func (m *Manager) CreateChild(blockId string, r blockModels.Range) (*string, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return nil, err
	}
	child, err := b.CreateChild(r)
	if err != nil {
		var overlap *exception.OverlapError
		if goerrors.As(err, &overlap) {
			return nil, nil
		}
		return nil, err
	}

	var claims []dbModels.BlockLineDB
	for lineId := range child.claimed {
		claims = append(claims, dbModels.BlockLineDB{BlockId: child.Id, LineId: lineId})
	}
	if err := m.store.SaveBlock(blockRow(child)); err != nil {
		child.Delete()
		return nil, exception.NewStorageError("failed to persist child block", err)
	}
	if err := m.store.SaveBlockLines(claims); err != nil {
		child.Delete()
		return nil, exception.NewStorageError("failed to persist child block lines", err)
	}
	return &child.Id, nil
}

// Copy forks a block into a CLONE and returns its id.
func (m *Manager) Copy(blockId string) (string, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return "", err
	}
	clone := b.Copy()

	var claims []dbModels.BlockLineDB
	for lineId := range clone.claimed {
		claims = append(claims, dbModels.BlockLineDB{BlockId: clone.Id, LineId: lineId})
	}
	if err := m.store.SaveBlock(blockRow(clone)); err != nil {
		clone.Delete()
		return "", exception.NewStorageError("failed to persist clone", err)
	}
	if err := m.store.SaveBlockLines(claims); err != nil {
		clone.Delete()
		return "", exception.NewStorageError("failed to persist clone lines", err)
	}
	return clone.Id, nil
}

// DeleteBlock deletes a block and its children. Claimed lines and their
// histories stay untouched.
func (m *Manager) DeleteBlock(blockId string) error {
	b, err := m.Block(blockId)
	if err != nil {
		return err
	}

	var subtree []string
	var collect func(*Block)
	collect = func(b *Block) {
		subtree = append(subtree, b.Id)
		for _, child := range b.Children() {
			collect(child)
		}
	}
	collect(b)

	b.Delete()
	for _, id := range subtree {
		if err := m.store.RemoveBlock(id); err != nil {
			return exception.NewStorageError("failed to remove block", err)
		}
		for _, tagId := range m.tagsByBlock[id] {
			delete(m.tags, tagId)
		}
		delete(m.tagsByBlock, id)
	}
	return nil
}

// ChangeLines applies one multi-line edit through the block and reports
// every block whose decoration needs a refresh.
func (m *Manager) ChangeLines(blockId string, change blockModels.MultiLineChange) ([]string, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return nil, err
	}
	result, err := b.ChangeLines(change)
	if err != nil {
		return nil, err
	}
	if err := m.persistEdit(result); err != nil {
		return nil, err
	}
	return result.Affected(), nil
}

// InsertLineAt inserts a line at the 1-based position n of the block.
func (m *Manager) InsertLineAt(blockId string, n int, content string) ([]string, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return nil, err
	}
	_, result, err := b.InsertLineAt(n, content)
	if err != nil {
		return nil, err
	}
	if err := m.persistEdit(result); err != nil {
		return nil, err
	}
	return result.Affected(), nil
}

// UpdateLine replaces the content of the n-th active line of the block.
func (m *Manager) UpdateLine(blockId string, n int, content string) ([]string, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return nil, err
	}
	_, result, err := b.UpdateLine(n, content)
	if err != nil {
		return nil, err
	}
	if err := m.persistEdit(result); err != nil {
		return nil, err
	}
	return result.Affected(), nil
}

// ApplyIndex snaps the block to a timeline position.
func (m *Manager) ApplyIndex(blockId string, index int) error {
	b, err := m.Block(blockId)
	if err != nil {
		return err
	}
	previous := b.Timestamp
	if err := b.ApplyIndex(index); err != nil {
		return err
	}
	if err := m.store.SaveBlock(blockRow(b)); err != nil {
		b.Timestamp = previous
		return exception.NewStorageError("failed to persist block cursor", err)
	}
	return nil
}

// ApplyTimestamp moves the block's cursor to an explicit timestamp.
func (m *Manager) ApplyTimestamp(blockId string, t int64) error {
	b, err := m.Block(blockId)
	if err != nil {
		return err
	}
	previous := b.Timestamp
	b.ApplyTimestamp(t)
	if err := m.store.SaveBlock(blockRow(b)); err != nil {
		b.Timestamp = previous
		return exception.NewStorageError("failed to persist block cursor", err)
	}
	return nil
}

// CreateTag captures the block's current timestamp and text under a name.
func (m *Manager) CreateTag(blockId string, name string) (string, error) {
	b, err := m.Block(blockId)
	if err != nil {
		return "", err
	}
	tag := &Tag{
		Id:        uuid.NewString(),
		BlockId:   blockId,
		Name:      name,
		Timestamp: b.Timestamp,
		Code:      b.GetText(),
	}
	if err := m.store.SaveTag(tagRow(tag)); err != nil {
		return "", exception.NewStorageError("failed to persist tag", err)
	}
	m.tags[tag.Id] = tag
	m.tagsByBlock[blockId] = append(m.tagsByBlock[blockId], tag.Id)
	return tag.Id, nil
}

// LoadTag reopens the tagged state: the block's cursor moves to the
// captured timestamp and the block text at that moment is returned.
func (m *Manager) LoadTag(tagId string) (string, error) {
	tag, ok := m.tags[tagId]
	if !ok {
		return "", exception.NewNotFoundError("tag", tagId)
	}
	if err := m.ApplyTimestamp(tag.BlockId, tag.Timestamp); err != nil {
		return "", err
	}
	return m.GetText(tag.BlockId)
}

// GetTextForVersion peeks at the tagged state without disturbing the
// block: the previous cursor is restored before returning.
func (m *Manager) GetTextForVersion(tagId string) (string, error) {
	tag, ok := m.tags[tagId]
	if !ok {
		return "", exception.NewNotFoundError("tag", tagId)
	}
	b, err := m.Block(tag.BlockId)
	if err != nil {
		return "", err
	}

	previous := b.Timestamp
	b.ApplyTimestamp(tag.Timestamp)
	text := b.GetText()
	b.ApplyTimestamp(previous)
	return text, nil
}

// persistEdit writes one edit result as a single transactional batch and
// unwinds the in-memory model when the commit fails.
func (m *Manager) persistEdit(result *EditResult) error {
	if err := m.store.SaveEdit(m.toBatch(result)); err != nil {
		result.Revert()
		return exception.NewStorageError("failed to persist edit", err)
	}
	return nil
}

func (m *Manager) toBatch(result *EditResult) dbModels.EditBatch {
	seen := make(map[string]struct{})
	var lineRows []dbModels.LineDB
	for _, line := range append(append([]*doc.Line{}, result.NewLines...), result.Reordered...) {
		if _, dup := seen[line.Id]; dup {
			continue
		}
		seen[line.Id] = struct{}{}
		lineRows = append(lineRows, lineRow(line))
	}

	var versionRows []dbModels.VersionDB
	for _, v := range result.Versions {
		versionRows = append(versionRows, versionRow(v))
	}

	var blockRows []dbModels.BlockDB
	for _, b := range result.Blocks {
		blockRows = append(blockRows, blockRow(b))
	}

	return dbModels.EditBatch{
		Lines:      lineRows,
		Versions:   versionRows,
		BlockLines: result.Claims,
		Blocks:     blockRows,
	}
}

func (m *Manager) tagInfos(blockId string) []blockModels.TagInfo {
	infos := make([]blockModels.TagInfo, 0)
	for _, tagId := range m.tagsByBlock[blockId] {
		tag := m.tags[tagId]
		infos = append(infos, blockModels.TagInfo{
			Id:        tag.Id,
			Name:      tag.Name,
			Timestamp: tag.Timestamp,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp < infos[j].Timestamp
	})
	return infos
}

// ============== ROW MAPPING ==============

func lineRow(line *doc.Line) dbModels.LineDB {
	return dbModels.LineDB{
		Id:     line.Id,
		FileId: line.FileId,
		Order:  line.Order,
	}
}

func versionRow(v version.Version) dbModels.VersionDB {
	row := dbModels.VersionDB{
		LineId:          v.LineId,
		Timestamp:       v.Timestamp,
		Kind:            v.Kind.String(),
		Active:          v.Active,
		Content:         v.Content,
		OriginTimestamp: v.OriginTimestamp,
	}
	if v.SourceBlock != "" {
		sourceBlock := v.SourceBlock
		row.SourceBlock = &sourceBlock
	}
	return row
}

func blockRow(b *Block) dbModels.BlockDB {
	row := dbModels.BlockDB{
		Id:        b.Id,
		Type:      b.Type.String(),
		FileId:    b.File.Id,
		Timestamp: b.Timestamp,
		Deleted:   b.Deleted,
	}
	if b.Parent != nil {
		parentId := b.Parent.Id
		row.ParentId = &parentId
	}
	if b.Origin != nil {
		originId := b.Origin.Id
		row.OriginId = &originId
	}
	return row
}

func tagRow(tag *Tag) dbModels.TagDB {
	return dbModels.TagDB{
		Id:        tag.Id,
		BlockId:   tag.BlockId,
		Name:      tag.Name,
		Timestamp: tag.Timestamp,
		Code:      tag.Code,
	}
}

// ============== HYDRATION ==============

// Hydrate rebuilds the in-memory model from the store and advances the
// timestamp provider past everything persisted.
func (m *Manager) Hydrate() error {
	fileIds, err := m.store.GetFileIds()
	if err != nil {
		return exception.NewStorageError("failed to list files", err)
	}

	for _, fileId := range *fileIds {
		if err := m.hydrateFile(fileId); err != nil {
			return err
		}
	}

	last, err := m.store.LastTimestamp()
	if err != nil {
		return exception.NewStorageError("failed to read last timestamp", err)
	}
	m.provider.AdvanceTo(*last)
	return nil
}

func (m *Manager) hydrateFile(fileId string) error {
	fileDB, err := m.store.GetFile(fileId)
	if err != nil {
		return exception.NewStorageError("failed to load file", err)
	}
	file := doc.NewFile(fileDB.Id, fileDB.Path, fileDB.Eol)

	lineRows, err := m.store.GetLinesOfFile(fileId)
	if err != nil {
		return exception.NewStorageError("failed to load lines", err)
	}
	for _, row := range *lineRows {
		file.AddHydrated(doc.NewEmptyLine(row.Id, row.FileId, row.Order))
	}
	file.Sort()

	versionRows, err := m.store.GetVersionsOfFile(fileId)
	if err != nil {
		return exception.NewStorageError("failed to load versions", err)
	}
	for _, row := range *versionRows {
		line := file.Line(row.LineId)
		if line == nil {
			return exception.NewInvariantViolationError("version references unknown line " + row.LineId)
		}
		kind, ok := version.ParseKind(row.Kind)
		if !ok {
			return exception.NewInvariantViolationError("unknown version kind " + row.Kind)
		}
		v := version.Version{
			LineId:          row.LineId,
			Timestamp:       row.Timestamp,
			Content:         row.Content,
			Active:          row.Active,
			Kind:            kind,
			OriginTimestamp: row.OriginTimestamp,
		}
		if row.SourceBlock != nil {
			v.SourceBlock = *row.SourceBlock
		}
		if err := line.Append(v); err != nil {
			return err
		}
	}

	blockRows, err := m.store.GetBlocksOfFile(fileId)
	if err != nil {
		return exception.NewStorageError("failed to load blocks", err)
	}

	blocks := make(map[string]*Block)
	for _, row := range *blockRows {
		blockType, ok := ParseType(row.Type)
		if !ok {
			return exception.NewInvariantViolationError("unknown block type " + row.Type)
		}
		b := newBlock(row.Id, blockType, file, m.provider, m.registry)
		b.Timestamp = row.Timestamp
		b.Deleted = row.Deleted
		blocks[row.Id] = b

		lineIds, err := m.store.GetBlockLineIds(row.Id)
		if err != nil {
			return exception.NewStorageError("failed to load block lines", err)
		}
		for _, lineId := range *lineIds {
			if line := file.Line(lineId); line != nil {
				b.claim(line)
			}
		}
	}

	for _, row := range *blockRows {
		b := blocks[row.Id]
		if row.ParentId != nil {
			if parent, ok := blocks[*row.ParentId]; ok {
				b.Parent = parent
				if b.Type == Inline {
					parent.children[b.Id] = b
				}
			}
		}
		if row.OriginId != nil {
			if origin, ok := blocks[*row.OriginId]; ok {
				b.Origin = origin
			}
		}
	}

	for _, b := range blocks {
		b.childSeq = maxChildSeq(blocks, b.Id, "/")
		b.cloneSeq = maxChildSeq(blocks, b.Id, "/clone-")
		m.registry.Add(b)
		if b.Type == Root && !b.Deleted {
			m.rootByFile[fileId] = b.Id
		}

		tagRows, err := m.store.GetTagsOfBlock(b.Id)
		if err != nil {
			return exception.NewStorageError("failed to load tags", err)
		}
		for _, row := range *tagRows {
			tag := &Tag{
				Id:        row.Id,
				BlockId:   row.BlockId,
				Name:      row.Name,
				Timestamp: row.Timestamp,
				Code:      row.Code,
			}
			m.tags[tag.Id] = tag
			m.tagsByBlock[b.Id] = append(m.tagsByBlock[b.Id], tag.Id)
		}
	}

	m.files[fileId] = file
	return nil
}

// maxChildSeq recovers an id sequence counter from persisted ids so that
// new children and clones never collide with blocks still in the store.
// DeleteBlock removes a block's row, so the id of a removed block with the
// highest sequence number can be handed out again after hydration.
func maxChildSeq(blocks map[string]*Block, parentId string, separator string) int {
	maxSeq := 0
	prefix := parentId + separator
	for id := range blocks {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(id, prefix)); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return maxSeq
}
