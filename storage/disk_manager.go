package storage

// DiskManager is the external collaborator that moves page-sized byte
// blocks between the pool and durable storage. The pool holds no opinion
// on how bytes reach disk; it only requires that reads and writes are
// atomic with respect to a single page.
type DiskManager interface {
	ReadPage(pageID uint32, dst []byte) error
	WritePage(pageID uint32, src []byte) error
	DeallocatePage(pageID uint32) error
	Close() error
}
