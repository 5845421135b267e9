package book

// arenaBlockSize is the number of order records carved from one block.
// Steady-state traffic costs one block allocation per this many live orders;
// everything after that is free-list recycling.
const arenaBlockSize = 1024

// arena hands out storage for order records without touching the general
// allocator on the hot path. Blocks are allocated once and never resized or
// returned, so every *orderNode it produces stays valid for the arena's
// lifetime and can be linked into queues directly.
//
// Lifetime is caller-enforced: release must not be called twice for the same
// node before allocate hands it out again, and a released node must not be
// used. Neither operation signals errors.
type arena struct {
	blocks [][]orderNode
	free   []*orderNode
	next   int // carve position in the newest block
}

func newArena() *arena {
	a := &arena{}
	a.grow()
	return a
}

func (a *arena) grow() {
	a.blocks = append(a.blocks, make([]orderNode, arenaBlockSize))
	a.next = 0
}

// allocate returns an uninitialized record: free list first, then the current
// block, then a fresh block.
func (a *arena) allocate() *orderNode {
	if n := len(a.free); n > 0 {
		node := a.free[n-1]
		a.free = a.free[:n-1]
		return node
	}
	if a.next == arenaBlockSize {
		a.grow()
	}
	node := &a.blocks[len(a.blocks)-1][a.next]
	a.next++
	return node
}

// release resets the record and queues its slot for reuse.
func (a *arena) release(node *orderNode) {
	*node = orderNode{}
	a.free = append(a.free, node)
}
