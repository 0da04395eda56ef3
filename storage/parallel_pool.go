package storage

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// ParallelPool owns N independently-latched PoolInstances and partitions
// the page-id space across them by residue. Point operations route to
// the owning instance and delegate without further coordination; only
// NewPage's round-robin starting index needs a mutex of its own.
type ParallelPool struct {
	instances  []*PoolInstance
	startMutex sync.Mutex
	startIndex uint32
	logger     Logger
}

// NewParallelPool builds numInstances PoolInstances of poolSize frames
// each, sharing one disk manager and log manager.
func NewParallelPool(
	numInstances uint32,
	poolSize uint32,
	replacerAlgorithm string,
	diskManager DiskManager,
	logManager LogManager,
	metrics *Metrics,
	logger Logger,
) (*ParallelPool, error) {
	if numInstances == 0 {
		return nil, errInvalidConfig("NewParallelPool", "instance count must be greater than 0")
	}
	if logger == nil {
		logger = NewNopLogger()
	}

	instances := make([]*PoolInstance, numInstances)
	for i := uint32(0); i < numInstances; i++ {
		instance, err := NewPoolInstance(poolSize, i, numInstances, replacerAlgorithm, diskManager, logManager, metrics, logger)
		if err != nil {
			return nil, err
		}
		instances[i] = instance
	}

	return &ParallelPool{instances: instances, logger: logger}, nil
}

// instanceFor returns the instance that owns pageID.
func (pp *ParallelPool) instanceFor(pageID uint32) *PoolInstance {
	return pp.instances[pageID%uint32(len(pp.instances))]
}

// Fetch routes to pageID's owning instance.
func (pp *ParallelPool) Fetch(pageID uint32) *Page {
	if pageID == InvalidPageID {
		return nil
	}
	return pp.instanceFor(pageID).Fetch(pageID)
}

// Unpin routes to pageID's owning instance.
func (pp *ParallelPool) Unpin(pageID uint32, isDirty bool) bool {
	if pageID == InvalidPageID {
		return false
	}
	return pp.instanceFor(pageID).Unpin(pageID, isDirty)
}

// Flush routes to pageID's owning instance.
func (pp *ParallelPool) Flush(pageID uint32) bool {
	if pageID == InvalidPageID {
		return false
	}
	return pp.instanceFor(pageID).Flush(pageID)
}

// Delete routes to pageID's owning instance.
func (pp *ParallelPool) Delete(pageID uint32) bool {
	if pageID == InvalidPageID {
		return true
	}
	return pp.instanceFor(pageID).Delete(pageID)
}

// NewPage tries each instance starting at the rotating startIndex,
// advancing it after every attempt whether it succeeds or fails, and
// returns on the first success. Returns (InvalidPageID, nil) after a
// full cycle of failures.
func (pp *ParallelPool) NewPage() (uint32, *Page) {
	pp.startMutex.Lock()
	defer pp.startMutex.Unlock()

	n := uint32(len(pp.instances))
	for i := uint32(0); i < n; i++ {
		index := pp.startIndex % n
		instance := pp.instances[index]
		pp.startIndex = (pp.startIndex + 1) % n

		pageID, page := instance.NewPage()
		if page != nil {
			return pageID, page
		}
	}

	return InvalidPageID, nil
}

// FlushAll invokes FlushAll on every instance, aggregating per-instance
// failures instead of stopping at the first one. Order is unspecified.
func (pp *ParallelPool) FlushAll() error {
	var errs error
	for i, instance := range pp.instances {
		if err := instance.FlushAll(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("instance %d: %w", i, err))
		}
	}
	return errs
}

// Size returns the number of instances composing the pool.
func (pp *ParallelPool) Size() uint32 {
	return uint32(len(pp.instances))
}
