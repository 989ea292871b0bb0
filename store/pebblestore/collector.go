package pebblestore

import (
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports pebble's own internal metrics (compaction, memtable,
// WAL) under the winx_store_* namespace, so an operator staring at the
// chunk store's Grafana board sees the same shape of numbers the teacher
// codebase exposes for its own replica database.
type Collector struct {
	db *pebble.DB

	compactionCount         *prometheus.Desc
	compactionDefaultCount  *prometheus.Desc
	compactionElisionOnly   *prometheus.Desc
	compactionMove          *prometheus.Desc
	compactionRead          *prometheus.Desc
	compactionRewrite       *prometheus.Desc
	compactionMultiLevel    *prometheus.Desc
	compactionEstimatedDebt *prometheus.Desc
	compactionInProgress    *prometheus.Desc
	compactionMarkedFiles   *prometheus.Desc

	memtableSize        *prometheus.Desc
	memtableCount       *prometheus.Desc
	memtableZombieSize  *prometheus.Desc
	memtableZombieCount *prometheus.Desc

	walFiles         *prometheus.Desc
	walObsoleteFiles *prometheus.Desc
	walSize          *prometheus.Desc
	walBytesIn       *prometheus.Desc
	walBytesWritten  *prometheus.Desc
}

// NewCollector builds a Collector for db. Register it once with a
// prometheus.Registerer (cmd/windexd does this at startup).
func NewCollector(db *pebble.DB) *Collector {
	return &Collector{
		db: db,

		compactionCount: prometheus.NewDesc(
			"winx_store_compaction_count_total",
			"Total number of compactions performed against the chunk store",
			nil, nil,
		),
		compactionDefaultCount: prometheus.NewDesc(
			"winx_store_compaction_default_count_total",
			"Total number of default compactions performed",
			nil, nil,
		),
		compactionElisionOnly: prometheus.NewDesc(
			"winx_store_compaction_elision_only_total",
			"Total number of elision-only compactions performed",
			nil, nil,
		),
		compactionMove: prometheus.NewDesc(
			"winx_store_compaction_move_total",
			"Total number of move compactions performed",
			nil, nil,
		),
		compactionRead: prometheus.NewDesc(
			"winx_store_compaction_read_total",
			"Total number of read compactions performed",
			nil, nil,
		),
		compactionRewrite: prometheus.NewDesc(
			"winx_store_compaction_rewrite_total",
			"Total number of rewrite compactions performed",
			nil, nil,
		),
		compactionMultiLevel: prometheus.NewDesc(
			"winx_store_compaction_multilevel_total",
			"Total number of multi-level compactions performed",
			nil, nil,
		),
		compactionEstimatedDebt: prometheus.NewDesc(
			"winx_store_compaction_estimated_debt_bytes",
			"Estimated number of bytes that need to be compacted to reach a stable state",
			nil, nil,
		),
		compactionInProgress: prometheus.NewDesc(
			"winx_store_compaction_in_progress_bytes",
			"Number of bytes being compacted currently",
			nil, nil,
		),
		compactionMarkedFiles: prometheus.NewDesc(
			"winx_store_compaction_marked_files_total",
			"Number of files marked for compaction",
			nil, nil,
		),

		memtableSize: prometheus.NewDesc(
			"winx_store_memtable_size_bytes",
			"Current size of the memtable in bytes",
			nil, nil,
		),
		memtableCount: prometheus.NewDesc(
			"winx_store_memtable_count_total",
			"Current count of memtables",
			nil, nil,
		),
		memtableZombieSize: prometheus.NewDesc(
			"winx_store_memtable_zombie_size_bytes",
			"Size of zombie memtables in bytes",
			nil, nil,
		),
		memtableZombieCount: prometheus.NewDesc(
			"winx_store_memtable_zombie_count_total",
			"Count of zombie memtables",
			nil, nil,
		),

		walFiles: prometheus.NewDesc(
			"winx_store_wal_files_total",
			"Number of live WAL files",
			nil, nil,
		),
		walObsoleteFiles: prometheus.NewDesc(
			"winx_store_wal_obsolete_files_total",
			"Number of obsolete WAL files",
			nil, nil,
		),
		walSize: prometheus.NewDesc(
			"winx_store_wal_size_bytes",
			"Size of live WAL data in bytes",
			nil, nil,
		),
		walBytesIn: prometheus.NewDesc(
			"winx_store_wal_bytes_in_total",
			"Total logical bytes written to the WAL",
			nil, nil,
		),
		walBytesWritten: prometheus.NewDesc(
			"winx_store_wal_bytes_written_total",
			"Total physical bytes written to the WAL",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.compactionCount
	ch <- c.compactionDefaultCount
	ch <- c.compactionElisionOnly
	ch <- c.compactionMove
	ch <- c.compactionRead
	ch <- c.compactionRewrite
	ch <- c.compactionMultiLevel
	ch <- c.compactionEstimatedDebt
	ch <- c.compactionInProgress
	ch <- c.compactionMarkedFiles

	ch <- c.memtableSize
	ch <- c.memtableCount
	ch <- c.memtableZombieSize
	ch <- c.memtableZombieCount

	ch <- c.walFiles
	ch <- c.walObsoleteFiles
	ch <- c.walSize
	ch <- c.walBytesIn
	ch <- c.walBytesWritten
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.db.Metrics()

	ch <- prometheus.MustNewConstMetric(c.compactionCount, prometheus.CounterValue, float64(m.Compact.Count))
	ch <- prometheus.MustNewConstMetric(c.compactionDefaultCount, prometheus.CounterValue, float64(m.Compact.DefaultCount))
	ch <- prometheus.MustNewConstMetric(c.compactionElisionOnly, prometheus.CounterValue, float64(m.Compact.ElisionOnlyCount))
	ch <- prometheus.MustNewConstMetric(c.compactionMove, prometheus.CounterValue, float64(m.Compact.MoveCount))
	ch <- prometheus.MustNewConstMetric(c.compactionRead, prometheus.CounterValue, float64(m.Compact.ReadCount))
	ch <- prometheus.MustNewConstMetric(c.compactionRewrite, prometheus.CounterValue, float64(m.Compact.RewriteCount))
	ch <- prometheus.MustNewConstMetric(c.compactionMultiLevel, prometheus.CounterValue, float64(m.Compact.MultiLevelCount))
	ch <- prometheus.MustNewConstMetric(c.compactionEstimatedDebt, prometheus.GaugeValue, float64(m.Compact.EstimatedDebt))
	ch <- prometheus.MustNewConstMetric(c.compactionInProgress, prometheus.GaugeValue, float64(m.Compact.InProgressBytes))
	ch <- prometheus.MustNewConstMetric(c.compactionMarkedFiles, prometheus.GaugeValue, float64(m.Compact.MarkedFiles))

	ch <- prometheus.MustNewConstMetric(c.memtableSize, prometheus.GaugeValue, float64(m.MemTable.Size))
	ch <- prometheus.MustNewConstMetric(c.memtableCount, prometheus.GaugeValue, float64(m.MemTable.Count))
	ch <- prometheus.MustNewConstMetric(c.memtableZombieSize, prometheus.GaugeValue, float64(m.MemTable.ZombieSize))
	ch <- prometheus.MustNewConstMetric(c.memtableZombieCount, prometheus.GaugeValue, float64(m.MemTable.ZombieCount))

	ch <- prometheus.MustNewConstMetric(c.walFiles, prometheus.GaugeValue, float64(m.WAL.Files))
	ch <- prometheus.MustNewConstMetric(c.walObsoleteFiles, prometheus.GaugeValue, float64(m.WAL.ObsoleteFiles))
	ch <- prometheus.MustNewConstMetric(c.walSize, prometheus.GaugeValue, float64(m.WAL.Size))
	ch <- prometheus.MustNewConstMetric(c.walBytesIn, prometheus.CounterValue, float64(m.WAL.BytesIn))
	ch <- prometheus.MustNewConstMetric(c.walBytesWritten, prometheus.CounterValue, float64(m.WAL.BytesWritten))
}
