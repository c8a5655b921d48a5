package ecsloop

// Entity is an opaque, generational handle to a row in the World. The low
// 32 bits are a recyclable index; the high 32 bits are a generation counter
// bumped every time the index is freed, so a stale handle to a despawned
// and recycled slot compares unequal to the new occupant.
type Entity uint64

func newEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index returns the recyclable slot this handle refers to.
func (e Entity) Index() uint32 { return uint32(e) }

// Generation returns the handle's generation counter.
func (e Entity) Generation() uint32 { return uint32(e >> 32) }

// IsZero reports whether e is the zero value (never returned by Spawn).
func (e Entity) IsZero() bool { return e == 0 }

// entityPool hands out and recycles Entity indices, matching generations so
// a despawned slot's old handles can be detected as stale.
type entityPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func newEntityPool() *entityPool {
	return &entityPool{}
}

// create allocates a fresh or recycled Entity.
func (p *entityPool) create() Entity {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return newEntity(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	p.generations = append(p.generations, 1)
	return newEntity(idx, 1)
}

// alive reports whether e still refers to the slot it was issued for.
func (p *entityPool) alive(e Entity) bool {
	idx := e.Index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.generations[idx] == e.Generation()
}

// destroy retires e, bumping its slot's generation and returning it to the
// free list. Destroying an already-stale handle is a silent no-op.
func (p *entityPool) destroy(e Entity) {
	if !p.alive(e) {
		return
	}
	idx := e.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

// count returns the number of currently live entities.
func (p *entityPool) count() int {
	return int(p.nextIndex) - len(p.freeList)
}
