package storage

import (
	"runtime"
	"sync/atomic"
)

// RWLatch is the synchronization primitive a PoolInstance uses as its
// instanceLatch: a lock-free reader-writer latch built on a single
// atomic word instead of sync.RWMutex. Every buffer pool operation in
// this package takes the latch exclusively (via Lock/Unlock) for its
// full duration, disk I/O included, so in practice PoolInstance never
// exercises the reader side — RLock/RUnlock exist so the type is a
// complete RWMutex-shaped primitive on its own, independent of how the
// pool happens to use it today.
//
// The 64-bit state word is packed as:
//
//	bits 0-30:  active reader count
//	bit 31:     a writer holds or is about to hold the latch
//	bits 32-63: writer count, raised together with bit 31 when a writer
//	            claims the latch and lowered by Unlock; it is 0 or 1, and
//	            writers still spinning in Lock are not counted
const (
	readerCountMask  uint64 = 0x7FFFFFFF
	writerActiveBit  uint64 = 0x80000000
	writerQueueMask  uint64 = 0xFFFFFFFF00000000
	writerQueueDelta uint64 = 0x100000000
)

// RWLatch is a lock-free reader-writer latch.
type RWLatch struct {
	state uint64
}

// NewRWLatch returns an unheld latch.
func NewRWLatch() *RWLatch {
	return &RWLatch{}
}

// RLock blocks until a shared hold is granted. A writer that holds the
// latch, or has claimed it and is waiting for readers to drain, takes
// priority: a reader arriving then spins. Writers still spinning in Lock
// for another writer to release are not registered, so a reader can
// acquire between one writer's Unlock and the next writer's claim.
func (rw *RWLatch) RLock() {
	backoff := 1
	for {
		state := atomic.LoadUint64(&rw.state)
		if state&writerActiveBit != 0 || state&writerQueueMask != 0 {
			rw.spin(backoff)
			backoff = rw.nextBackoff(backoff)
			continue
		}
		if atomic.CompareAndSwapUint64(&rw.state, state, state+1) {
			return
		}
		rw.spin(backoff)
		backoff = rw.nextBackoff(backoff)
	}
}

// RUnlock releases one shared hold.
func (rw *RWLatch) RUnlock() {
	for {
		state := atomic.LoadUint64(&rw.state)
		if state&readerCountMask == 0 {
			panic("RWLatch: RUnlock with no matching RLock")
		}
		if atomic.CompareAndSwapUint64(&rw.state, state, state-1) {
			return
		}
		runtime.Gosched()
	}
}

// Lock blocks until this goroutine holds the latch exclusively. This is
// the method every buffer pool operation calls on instanceLatch before
// touching its frames, page table, free list or replacer.
func (rw *RWLatch) Lock() {
	backoff := 1
	for {
		state := atomic.LoadUint64(&rw.state)
		if state&writerActiveBit != 0 {
			rw.spin(backoff)
			backoff = rw.nextBackoff(backoff)
			continue
		}
		next := (state + writerQueueDelta) | writerActiveBit
		if atomic.CompareAndSwapUint64(&rw.state, state, next) {
			break
		}
		rw.spin(backoff)
		backoff = rw.nextBackoff(backoff)
	}

	backoff = 1
	for {
		if atomic.LoadUint64(&rw.state)&readerCountMask == 0 {
			return
		}
		rw.spin(backoff)
		backoff = rw.nextBackoff(backoff)
	}
}

// Unlock releases the exclusive hold acquired by Lock. Every operation
// on PoolInstance defers this immediately after Lock succeeds.
func (rw *RWLatch) Unlock() {
	for {
		state := atomic.LoadUint64(&rw.state)
		if state&writerActiveBit == 0 {
			panic("RWLatch: Unlock with no matching Lock")
		}
		next := (state &^ writerActiveBit) - writerQueueDelta
		if atomic.CompareAndSwapUint64(&rw.state, state, next) {
			return
		}
		runtime.Gosched()
	}
}

// TryRLock attempts a non-blocking shared hold.
func (rw *RWLatch) TryRLock() bool {
	state := atomic.LoadUint64(&rw.state)
	if state&writerActiveBit != 0 || state&writerQueueMask != 0 {
		return false
	}
	return atomic.CompareAndSwapUint64(&rw.state, state, state+1)
}

// TryLock attempts a non-blocking exclusive hold.
func (rw *RWLatch) TryLock() bool {
	state := atomic.LoadUint64(&rw.state)
	if state&writerActiveBit != 0 || state&readerCountMask != 0 {
		return false
	}
	return atomic.CompareAndSwapUint64(&rw.state, state, state|writerActiveBit|writerQueueDelta)
}

// GetReaderCount reports the current shared-hold count.
func (rw *RWLatch) GetReaderCount() uint32 {
	return uint32(atomic.LoadUint64(&rw.state) & readerCountMask)
}

// IsWriterActive reports whether a goroutine currently holds the latch
// exclusively.
func (rw *RWLatch) IsWriterActive() bool {
	return atomic.LoadUint64(&rw.state)&writerActiveBit != 0
}

// GetWriterWaitingCount reports the writer count from bits 32-63: 1 while
// a writer has claimed or holds the latch, 0 otherwise. Goroutines still
// spinning in Lock are not counted.
func (rw *RWLatch) GetWriterWaitingCount() uint32 {
	return uint32((atomic.LoadUint64(&rw.state) & writerQueueMask) >> 32)
}

func (rw *RWLatch) spin(iterations int) {
	for i := 0; i < iterations; i++ {
		runtime.Gosched()
	}
}

// nextBackoff doubles the spin budget, capped to bound worst-case latency
// under sustained contention.
func (rw *RWLatch) nextBackoff(current int) int {
	if doubled := current * 2; doubled <= 1024 {
		return doubled
	}
	return 1024
}

// GetStats snapshots the latch's current occupancy.
func (rw *RWLatch) GetStats() RWLatchStats {
	state := atomic.LoadUint64(&rw.state)
	return RWLatchStats{
		ReaderCount:        uint32(state & readerCountMask),
		WriterActive:       state&writerActiveBit != 0,
		WriterWaitingCount: uint32((state & writerQueueMask) >> 32),
	}
}

// RWLatchStats is a point-in-time read of an RWLatch's state.
type RWLatchStats struct {
	ReaderCount        uint32
	WriterActive       bool
	WriterWaitingCount uint32
}
