package winx

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/windexdb/winx/registry"
	"github.com/windexdb/winx/utils"
	"github.com/windexdb/winx/winxmetrics"
)

// runGC sweeps the registry on a fixed tick, pruning requests that have
// sat incomplete past GCPruneMaxSeconds — an abandoned upload whose
// producer crashed or disconnected before sending a terminal chunk.
func (idx *Indexer) runGC() {
	defer idx.wg.Done()

	ticker := time.NewTicker(idx.cfg.gcInterval())
	defer ticker.Stop()

	avgSweep := utils.NewAvgVal(0)

	for {
		select {
		case <-idx.ctx.Done():
			return
		case <-ticker.C:
		}

		// sweepID correlates this tick's log lines and metrics across a
		// sweep that spans several DeleteRange calls, the same way lockd
		// tags a whole backpressure cycle with one xid.
		sweepID := xid.New().String()

		start := time.Now()
		pruned, err := idx.gcSweep()
		elapsed := time.Since(start)
		avgSweep.Add(elapsed.Seconds())
		winxmetrics.GCSweepDuration.Observe(elapsed.Seconds())

		if err != nil {
			idx.log.Error("gc sweep had errors", "sweep_id", sweepID, "err", err, "pruned", pruned)
			continue
		}
		if pruned > 0 {
			idx.log.Info("gc sweep pruned abandoned requests",
				"sweep_id", sweepID,
				"pruned", pruned,
				"elapsed", elapsed,
				"avg_sweep", humanize.SIWithDigits(avgSweep.Val(), 2, "s"),
			)
		}
		idx.logMemoryPressure()
	}
}

// gcSweep builds an age-ordered heap of every incomplete request's id
// (req_id doubles as a logical start timestamp, see ReqID) and
// prunes from the oldest end while candidates are older than
// GCPruneMaxSeconds, stopping at the first one that isn't — entries are
// monotonically ordered, so nothing older remains once that happens.
func (idx *Indexer) gcSweep() (pruned int, errs error) {
	cutoff := time.Now().Add(-idx.cfg.gcPruneMax())

	ages := make(map[uint64]time.Time)
	var heap utils.Heap[uint64]

	idx.registry.SnapshotView(func(id uint64, rec *registry.Record) {
		if rec.IsComplete {
			return
		}
		ages[id] = rec.BatchBeginTS
		heap.Push(id)
	})

	for heap.Len() > 0 {
		id, ok := heap.Peek()
		if !ok {
			break
		}
		if ages[id].After(cutoff) {
			break
		}
		heap.Pop()

		if err := idx.kv.DeleteRange(ChunkKeyPrefixOnly(ReqID(id)), ChunkKeyRangeUpperBound(ReqID(id))); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "gc: delete chunk range for req_id %d", id))
			continue
		}
		idx.registry.Erase(id)
		winxmetrics.GCRequestsPruned.WithLabelValues("abandoned").Inc()
		pruned++
	}

	winxmetrics.RegistrySize.Set(float64(idx.registry.Len()))
	return pruned, errs
}

// logMemoryPressure reports host memory usage alongside GC activity so an
// operator can correlate registry growth with actual memory pressure
// rather than just request counts.
func (idx *Indexer) logMemoryPressure() {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	if vm.UsedPercent < 85 {
		return
	}
	idx.log.Warn("host memory pressure high",
		"used_percent", vm.UsedPercent,
		"used", humanize.Bytes(vm.Used),
		"total", humanize.Bytes(vm.Total),
		"registry_size", idx.registry.Len(),
	)
}
