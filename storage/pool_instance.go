package storage

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// PoolInstance owns a fixed array of frames, a page table, a free list
// and a replacer, and answers fetch/new/unpin/flush/delete against one
// shard of the page-id space. Every operation holds instanceLatch for
// its whole duration, including any disk I/O — the pool's throughput is
// gated by per-shard I/O latency by design; a ParallelPool exists to
// turn that into N concurrent shards.
type PoolInstance struct {
	instanceIndex uint32
	shardCount    uint32
	nextPageID    uint32

	frames    []*Page
	pageTable map[uint32]uint32 // pageID -> frameID
	freeList  []uint32
	replacer  Replacer

	diskManager DiskManager
	logManager  LogManager
	metrics     *Metrics
	logger      Logger

	instanceLatch *RWLatch
}

// NewPoolInstance builds a pool instance of poolSize frames, the
// instanceIndex'th of shardCount total shards sharing a page-id space.
// diskManager must be non-nil; a nil metrics or logger is replaced by a
// fresh Metrics or a no-op logger. logManager may be nil, matching the
// ambient logManager-accepted-but-unused contract.
func NewPoolInstance(
	poolSize uint32,
	instanceIndex uint32,
	shardCount uint32,
	replacerAlgorithm string,
	diskManager DiskManager,
	logManager LogManager,
	metrics *Metrics,
	logger Logger,
) (*PoolInstance, error) {
	if poolSize == 0 {
		return nil, errInvalidConfig("NewPoolInstance", "pool size must be greater than 0")
	}
	if shardCount == 0 {
		return nil, errInvalidConfig("NewPoolInstance", "shard count must be greater than 0")
	}
	if diskManager == nil {
		return nil, errInvalidConfig("NewPoolInstance", "disk manager must not be nil")
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	frames := make([]*Page, poolSize)
	freeList := make([]uint32, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		frames[i] = newPage()
		freeList[i] = i
	}

	return &PoolInstance{
		instanceIndex: instanceIndex,
		shardCount:    shardCount,
		nextPageID:    instanceIndex,
		frames:        frames,
		pageTable:     make(map[uint32]uint32, poolSize),
		freeList:      freeList,
		replacer:      NewReplacer(replacerAlgorithm, poolSize),
		diskManager:   diskManager,
		logManager:    logManager,
		metrics:       metrics,
		logger:        logger,
		instanceLatch: NewRWLatch(),
	}, nil
}

// Fetch returns the pinned frame for pageID, reading it from disk on a
// miss. Returns nil for the sentinel id, when no victim frame is
// available, or when the disk read fails (the frame then goes back to
// the free list).
func (p *PoolInstance) Fetch(pageID uint32) *Page {
	if pageID == InvalidPageID {
		return nil
	}

	p.instanceLatch.Lock()
	defer p.instanceLatch.Unlock()

	if fid, ok := p.pageTable[pageID]; ok {
		frame := p.frames[fid]
		frame.PinCount++
		p.replacer.Pin(fid)
		p.metrics.RecordCacheHit()
		return frame
	}

	p.metrics.RecordCacheMiss()

	start := time.Now()
	fid, ok := p.findReplacement()
	if !ok {
		return nil
	}

	frame := p.frames[fid]
	frame.reset()

	if err := p.diskManager.ReadPage(pageID, frame.Data[:]); err != nil {
		p.logger.Error("disk read failed", "page_id", pageID, "frame_id", fid, "err", err)
		p.freeList = append(p.freeList, fid)
		return nil
	}

	frame.PageID = pageID
	frame.PinCount = 1
	frame.IsDirty = false
	p.pageTable[pageID] = fid
	p.replacer.Pin(fid)
	p.metrics.RecordPageFetchLatency(time.Since(start))

	return frame
}

// NewPage allocates a fresh page-id and returns its pinned, empty frame.
// Returns (InvalidPageID, nil) when every frame is pinned.
func (p *PoolInstance) NewPage() (uint32, *Page) {
	p.instanceLatch.Lock()
	defer p.instanceLatch.Unlock()

	if len(p.freeList) == 0 && p.replacer.Size() == 0 {
		p.metrics.RecordSaturationEvent()
		p.logger.Error("buffer pool saturated", "err", errNoFreePages("NewPage"))
		return InvalidPageID, nil
	}

	fid, ok := p.findReplacement()
	if !ok {
		p.metrics.RecordSaturationEvent()
		p.logger.Error("buffer pool saturated", "err", errNoFreePages("NewPage"))
		return InvalidPageID, nil
	}

	pageID := p.nextPageID
	p.nextPageID += p.shardCount

	frame := p.frames[fid]
	frame.reset()
	frame.PageID = pageID
	frame.PinCount = 1
	frame.IsDirty = false
	p.pageTable[pageID] = fid
	p.replacer.Pin(fid)

	if err := p.diskManager.WritePage(pageID, frame.Data[:]); err != nil {
		p.logger.Error("disk write failed for new page", "page_id", pageID, "frame_id", fid, "err", err)
	}

	p.metrics.RecordNewPageAlloc()
	return pageID, frame
}

// Unpin decrements pageID's pin count. A double-unpin (pin count already
// zero) is a no-op returning false; the count is never allowed negative.
func (p *PoolInstance) Unpin(pageID uint32, isDirty bool) bool {
	p.instanceLatch.Lock()
	defer p.instanceLatch.Unlock()

	fid, ok := p.pageTable[pageID]
	if !ok {
		return false
	}

	frame := p.frames[fid]
	if isDirty {
		frame.IsDirty = true
	}

	if frame.PinCount <= 0 {
		return false
	}

	frame.PinCount--
	if frame.PinCount == 0 {
		p.replacer.Unpin(fid)
	}
	return true
}

// Flush writes pageID's resident bytes through the disk manager.
func (p *PoolInstance) Flush(pageID uint32) bool {
	if pageID == InvalidPageID {
		return false
	}

	p.instanceLatch.Lock()
	defer p.instanceLatch.Unlock()

	fid, ok := p.pageTable[pageID]
	if !ok {
		return false
	}

	frame := p.frames[fid]
	start := time.Now()
	if err := p.diskManager.WritePage(pageID, frame.Data[:]); err != nil {
		p.logger.Error("disk write failed on flush", "page_id", pageID, "frame_id", fid, "err", err)
		return false
	}
	p.metrics.RecordPageFlushLatency(time.Since(start))
	p.metrics.RecordDirtyPageFlush()
	frame.IsDirty = false
	return true
}

// Delete removes pageID from the pool. Absence is treated as already
// deleted (returns true); a pinned page cannot be deleted (returns false).
func (p *PoolInstance) Delete(pageID uint32) bool {
	p.instanceLatch.Lock()
	defer p.instanceLatch.Unlock()

	fid, ok := p.pageTable[pageID]
	if !ok {
		return true
	}

	frame := p.frames[fid]
	if frame.PinCount > 0 {
		p.logger.Error("delete refused", "err", errPagePinned("Delete", pageID, frame.PinCount))
		return false
	}

	if frame.IsDirty {
		if err := p.diskManager.WritePage(pageID, frame.Data[:]); err != nil {
			p.logger.Error("disk write failed before delete", "page_id", pageID, "frame_id", fid, "err", err)
			return false
		}
	}

	if err := p.diskManager.DeallocatePage(pageID); err != nil {
		p.logger.Error("deallocate failed", "page_id", pageID, "err", err)
	}

	delete(p.pageTable, pageID)
	frame.reset()
	p.replacer.Pin(fid) // remove from replacer candidacy if present; no-op otherwise
	p.freeList = append(p.freeList, fid)
	return true
}

// FlushAll writes every resident page's bytes through the disk manager,
// aggregating per-page failures instead of stopping at the first one.
func (p *PoolInstance) FlushAll() error {
	p.instanceLatch.Lock()
	defer p.instanceLatch.Unlock()

	var errs error
	for pageID, fid := range p.pageTable {
		frame := p.frames[fid]
		if err := p.diskManager.WritePage(pageID, frame.Data[:]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("page %d: %w", pageID, err))
			continue
		}
		p.metrics.RecordDirtyPageFlush()
		frame.IsDirty = false
	}
	return errs
}

// findReplacement is the only place a frame moves from free or
// unpinned-resident into caller ownership. Free list is always preferred
// over eviction. Must be called with instanceLatch held.
//
// A victim whose dirty bytes fail to write back is never evicted: the
// candidate is handed back to the replacer and the page table is left
// untouched, so the old page stays resident and the caller sees the same
// "no frame available" outcome it would see with an empty free list.
func (p *PoolInstance) findReplacement() (uint32, bool) {
	if len(p.freeList) > 0 {
		fid := p.freeList[0]
		p.freeList = p.freeList[1:]
		return fid, true
	}

	fid, ok := p.replacer.Victim()
	if !ok {
		return 0, false
	}

	frame := p.frames[fid]
	if frame.PageID == InvalidPageID {
		return fid, true
	}

	if frame.IsDirty {
		if err := p.diskManager.WritePage(frame.PageID, frame.Data[:]); err != nil {
			p.logger.Error("disk write failed on eviction, rolling back", "page_id", frame.PageID, "frame_id", fid, "err", err)
			p.replacer.Unpin(fid)
			return 0, false
		}
		p.metrics.RecordDirtyPageFlush()
	}

	delete(p.pageTable, frame.PageID)
	p.metrics.RecordPageEviction()
	return fid, true
}
