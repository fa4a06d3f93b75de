package block

// Registry indexes every block of the workspace by id. Blocks reference it
// to register the children and clones they create; the manager uses it to
// resolve opaque ids coming in over the session API.
type Registry struct {
	blocks map[string]*Block
}

func NewRegistry() *Registry {
	return &Registry{
		blocks: make(map[string]*Block),
	}
}

func (r *Registry) Add(b *Block) {
	r.blocks[b.Id] = b
}

// Get resolves a block id. Deleted blocks resolve to not-found.
func (r *Registry) Get(id string) (*Block, bool) {
	b, ok := r.blocks[id]
	if !ok || b.Deleted {
		return nil, false
	}
	return b, true
}

// Resolve maps block ids to live blocks, silently skipping unknown and
// deleted ones. Used for the clones-to-consider set of text reads.
func (r *Registry) Resolve(ids []string) []*Block {
	var blocks []*Block
	for _, id := range ids {
		if b, ok := r.Get(id); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
