package storage

import (
	"fmt"
	"sync"

	"github.com/dsnet/golib/memfile"
)

// MemDiskManager is an in-memory DiskManager backed by a growable byte
// buffer through github.com/dsnet/golib/memfile. It gives tests a real
// io.ReaderAt/io.WriterAt-shaped backing store, including page
// deallocation accounting, without touching the filesystem.
type MemDiskManager struct {
	mu          sync.Mutex
	file        *memfile.File
	deallocated map[uint32]bool
}

// NewMemDiskManager creates an empty in-memory disk manager.
func NewMemDiskManager() *MemDiskManager {
	return &MemDiskManager{
		file:        memfile.New(nil),
		deallocated: make(map[uint32]bool),
	}
}

// ReadPage reads PageSize bytes at pageID's offset into dst. Reading a
// page past the current backing size or a deallocated page yields zeros,
// matching a sparse file's semantics.
func (m *MemDiskManager) ReadPage(pageID uint32, dst []byte) error {
	if len(dst) != PageSize {
		return errDiskOperation("ReadPage", fmt.Errorf("dst must be %d bytes, got %d", PageSize, len(dst)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deallocated[pageID] {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}

	offset := int64(pageID) * PageSize
	n, err := m.file.ReadAt(dst, offset)
	if n == PageSize {
		return nil
	}
	if err != nil {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}
	return nil
}

// WritePage writes src's PageSize bytes at pageID's offset, growing the
// backing buffer if necessary.
func (m *MemDiskManager) WritePage(pageID uint32, src []byte) error {
	if len(src) != PageSize {
		return errDiskOperation("WritePage", fmt.Errorf("src must be %d bytes, got %d", PageSize, len(src)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.deallocated, pageID)

	offset := int64(pageID) * PageSize
	n, err := m.file.WriteAt(src, offset)
	if err != nil {
		return NewPoolError(ErrCodeDiskWriteFailed, "WritePage", "failed to write page", err)
	}
	if n != PageSize {
		return NewPoolError(ErrCodeDiskWriteFailed, "WritePage",
			fmt.Sprintf("short write: wrote %d bytes, expected %d", n, PageSize), nil)
	}
	return nil
}

// DeallocatePage marks pageID's block as free; subsequent reads return
// zeros until the id is written again.
func (m *MemDiskManager) DeallocatePage(pageID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deallocated[pageID] = true
	return nil
}

// Close is a no-op for an in-memory backing store.
func (m *MemDiskManager) Close() error {
	return nil
}
