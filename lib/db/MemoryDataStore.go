package db

import (
	"errors"
	"sort"

	dbModels "github.com/ether/blockpad-go/lib/models/db"
)

// MemoryDataStore keeps everything in maps. Data is lost on restart; it
// backs tests and throwaway sessions.
type MemoryDataStore struct {
	fileStore      map[string]dbModels.FileDB
	fileOrder      []string
	lineStore      map[string]dbModels.LineDB
	versionStore   map[string][]dbModels.VersionDB
	blockStore     map[string]dbModels.BlockDB
	blockLineStore map[string]map[string]struct{}
	tagStore       map[string]dbModels.TagDB
}

func NewMemoryDataStore() *MemoryDataStore {
	return &MemoryDataStore{
		fileStore:      make(map[string]dbModels.FileDB),
		lineStore:      make(map[string]dbModels.LineDB),
		versionStore:   make(map[string][]dbModels.VersionDB),
		blockStore:     make(map[string]dbModels.BlockDB),
		blockLineStore: make(map[string]map[string]struct{}),
		tagStore:       make(map[string]dbModels.TagDB),
	}
}

// ============== FILE METHODS ==============

func (m *MemoryDataStore) SaveFile(file dbModels.FileDB) error {
	if _, exists := m.fileStore[file.Id]; !exists {
		m.fileOrder = append(m.fileOrder, file.Id)
	}
	m.fileStore[file.Id] = file
	return nil
}

func (m *MemoryDataStore) GetFile(fileId string) (*dbModels.FileDB, error) {
	file, ok := m.fileStore[fileId]
	if !ok {
		return nil, errors.New(FileDoesNotExistError)
	}
	return &file, nil
}

func (m *MemoryDataStore) GetFileIds() (*[]string, error) {
	fileIds := make([]string, len(m.fileOrder))
	copy(fileIds, m.fileOrder)
	return &fileIds, nil
}

func (m *MemoryDataStore) DoesFileExist(fileId string) (*bool, error) {
	_, ok := m.fileStore[fileId]
	return &ok, nil
}

func (m *MemoryDataStore) RemoveFile(fileId string) error {
	delete(m.fileStore, fileId)
	for i, id := range m.fileOrder {
		if id == fileId {
			m.fileOrder = append(m.fileOrder[:i], m.fileOrder[i+1:]...)
			break
		}
	}
	for lineId, line := range m.lineStore {
		if line.FileId == fileId {
			delete(m.lineStore, lineId)
			delete(m.versionStore, lineId)
		}
	}
	for blockId, block := range m.blockStore {
		if block.FileId == fileId {
			delete(m.blockStore, blockId)
			delete(m.blockLineStore, blockId)
			for tagId, tag := range m.tagStore {
				if tag.BlockId == blockId {
					delete(m.tagStore, tagId)
				}
			}
		}
	}
	return nil
}

// ============== LINE METHODS ==============

func (m *MemoryDataStore) SaveLines(lines []dbModels.LineDB) error {
	for _, line := range lines {
		m.lineStore[line.Id] = line
	}
	return nil
}

func (m *MemoryDataStore) GetLinesOfFile(fileId string) (*[]dbModels.LineDB, error) {
	var lines []dbModels.LineDB
	for _, line := range m.lineStore {
		if line.FileId == fileId {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Order < lines[j].Order
	})
	return &lines, nil
}

// ============== VERSION METHODS ==============

func (m *MemoryDataStore) GetVersionsOfFile(fileId string) (*[]dbModels.VersionDB, error) {
	var versions []dbModels.VersionDB
	for lineId, lineVersions := range m.versionStore {
		line, ok := m.lineStore[lineId]
		if !ok || line.FileId != fileId {
			continue
		}
		versions = append(versions, lineVersions...)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Timestamp < versions[j].Timestamp
	})
	return &versions, nil
}

func (m *MemoryDataStore) LastTimestamp() (*int64, error) {
	var last int64
	for _, lineVersions := range m.versionStore {
		for _, v := range lineVersions {
			if v.Timestamp > last {
				last = v.Timestamp
			}
		}
	}
	return &last, nil
}

// ============== BLOCK METHODS ==============

func (m *MemoryDataStore) SaveBlock(block dbModels.BlockDB) error {
	m.blockStore[block.Id] = block
	return nil
}

func (m *MemoryDataStore) SaveBlockLines(blockLines []dbModels.BlockLineDB) error {
	for _, blockLine := range blockLines {
		claims, ok := m.blockLineStore[blockLine.BlockId]
		if !ok {
			claims = make(map[string]struct{})
			m.blockLineStore[blockLine.BlockId] = claims
		}
		claims[blockLine.LineId] = struct{}{}
	}
	return nil
}

func (m *MemoryDataStore) GetBlocksOfFile(fileId string) (*[]dbModels.BlockDB, error) {
	var blocks []dbModels.BlockDB
	for _, block := range m.blockStore {
		if block.FileId == fileId {
			blocks = append(blocks, block)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Id < blocks[j].Id
	})
	return &blocks, nil
}

func (m *MemoryDataStore) GetBlockLineIds(blockId string) (*[]string, error) {
	var lineIds []string
	for lineId := range m.blockLineStore[blockId] {
		lineIds = append(lineIds, lineId)
	}
	sort.Strings(lineIds)
	return &lineIds, nil
}

func (m *MemoryDataStore) RemoveBlock(blockId string) error {
	if _, ok := m.blockStore[blockId]; !ok {
		return errors.New(BlockDoesNotExistError)
	}
	delete(m.blockStore, blockId)
	delete(m.blockLineStore, blockId)
	for tagId, tag := range m.tagStore {
		if tag.BlockId == blockId {
			delete(m.tagStore, tagId)
		}
	}
	return nil
}

// ============== TAG METHODS ==============

func (m *MemoryDataStore) SaveTag(tag dbModels.TagDB) error {
	m.tagStore[tag.Id] = tag
	return nil
}

func (m *MemoryDataStore) GetTag(tagId string) (*dbModels.TagDB, error) {
	tag, ok := m.tagStore[tagId]
	if !ok {
		return nil, errors.New(TagDoesNotExistError)
	}
	return &tag, nil
}

func (m *MemoryDataStore) GetTagsOfBlock(blockId string) (*[]dbModels.TagDB, error) {
	var tags []dbModels.TagDB
	for _, tag := range m.tagStore {
		if tag.BlockId == blockId {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Timestamp < tags[j].Timestamp
	})
	return &tags, nil
}

// ============== EDIT BATCH ==============

func (m *MemoryDataStore) SaveEdit(batch dbModels.EditBatch) error {
	if err := m.SaveLines(batch.Lines); err != nil {
		return err
	}
	for _, versionDB := range batch.Versions {
		existing := m.versionStore[versionDB.LineId]
		duplicate := false
		for _, v := range existing {
			if v.Timestamp == versionDB.Timestamp {
				duplicate = true
				break
			}
		}
		if !duplicate {
			m.versionStore[versionDB.LineId] = append(existing, versionDB)
		}
	}
	if err := m.SaveBlockLines(batch.BlockLines); err != nil {
		return err
	}
	for _, blockDB := range batch.Blocks {
		m.blockStore[blockDB.Id] = blockDB
	}
	return nil
}

func (m *MemoryDataStore) Close() error {
	return nil
}

var _ DataStore = (*MemoryDataStore)(nil)
