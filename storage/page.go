package storage

// PageSize is the fixed size in bytes of every page frame.
const PageSize = 4096

// InvalidPageID is the sentinel that never names a real page. Allocators
// must never return it; operations issued against it fail fast.
const InvalidPageID uint32 = ^uint32(0)

// Page is a frame's resident bytes plus the metadata describing what it
// currently holds. The byte block belongs to the frame; PageID is the
// logical address that outlives frame occupancy.
type Page struct {
	PageID   uint32
	PinCount int32
	IsDirty  bool
	Data     [PageSize]byte
}

func newPage() *Page {
	return &Page{PageID: InvalidPageID}
}

// reset restores a frame to its unoccupied state, ready to hold a new
// resident page or sit on the free list.
func (p *Page) reset() {
	p.PageID = InvalidPageID
	p.PinCount = 0
	p.IsDirty = false
	p.Data = [PageSize]byte{}
}
