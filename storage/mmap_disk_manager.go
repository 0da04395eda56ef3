package storage

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// mmapGrowth is the chunk size the backing file grows by when a write
// lands past the current mapping. Growing in large steps amortizes the
// cost of unmap/truncate/remap across many page writes.
const mmapGrowth = 64 * 1024 * 1024

// MmapDiskManager is a memory-mapped DiskManager, favorable for read-heavy
// workloads that want the kernel's readahead rather than directio's
// bypass. Uses golang.org/x/sys/unix directly so it builds on every unix
// target instead of hard-depending on a single platform's syscall package.
type MmapDiskManager struct {
	mu       sync.Mutex
	file     *os.File
	mmapData []byte
	mmapSize int64
}

// NewMmapDiskManager opens path and maps it, growing the backing file to
// at least mmapGrowth bytes if it is empty.
func NewMmapDiskManager(path string) (*MmapDiskManager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errDiskOperation("NewMmapDiskManager", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errDiskOperation("NewMmapDiskManager", err)
	}

	size := info.Size()
	if size == 0 {
		size = mmapGrowth
		if err := file.Truncate(size); err != nil {
			file.Close()
			return nil, errDiskOperation("NewMmapDiskManager", err)
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, errDiskOperation("NewMmapDiskManager", err)
	}

	return &MmapDiskManager{file: file, mmapData: data, mmapSize: size}, nil
}

func (m *MmapDiskManager) growLocked(minSize int64) error {
	newSize := ((minSize + mmapGrowth - 1) / mmapGrowth) * mmapGrowth

	if err := unix.Munmap(m.mmapData); err != nil {
		return err
	}
	if err := m.file.Truncate(newSize); err != nil {
		return err
	}

	data, err := unix.Mmap(int(m.file.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}

	m.mmapData = data
	m.mmapSize = newSize
	return nil
}

// ReadPage copies PageSize bytes at pageID's offset into dst.
func (m *MmapDiskManager) ReadPage(pageID uint32, dst []byte) error {
	if len(dst) != PageSize {
		return errDiskOperation("ReadPage", fmt.Errorf("dst must be %d bytes, got %d", PageSize, len(dst)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(pageID) * PageSize
	if offset+PageSize > m.mmapSize {
		// Unwritten region reads as zeros, matching a sparse file's semantics.
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}

	copy(dst, m.mmapData[offset:offset+PageSize])
	return nil
}

// WritePage copies src's PageSize bytes into the mapping at pageID's
// offset, growing the mapping first if necessary.
func (m *MmapDiskManager) WritePage(pageID uint32, src []byte) error {
	if len(src) != PageSize {
		return errDiskOperation("WritePage", fmt.Errorf("src must be %d bytes, got %d", PageSize, len(src)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(pageID) * PageSize
	if offset+PageSize > m.mmapSize {
		if err := m.growLocked(offset + PageSize); err != nil {
			return NewPoolError(ErrCodeDiskWriteFailed, "WritePage", "failed to grow mapping", err)
		}
	}

	copy(m.mmapData[offset:offset+PageSize], src)
	return nil
}

// DeallocatePage is a no-op; the mapped region is left as-is for reuse.
func (m *MmapDiskManager) DeallocatePage(pageID uint32) error {
	return nil
}

// Close unmaps the region and closes the backing file.
func (m *MmapDiskManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mmapData != nil {
		if err := unix.Munmap(m.mmapData); err != nil {
			return err
		}
		m.mmapData = nil
	}
	return m.file.Close()
}
