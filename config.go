package winx

import "time"

// Config holds the tunables owned by the indexer itself. Everything about
// *how* these values get to the process (flags, a config file, hot-reload)
// lives in cmd/windexd; Config is just the shape they land in.
type Config struct {
	// Workers is the number of shard workers N (>=1). The shard count is
	// always equal to the worker count: one worker owns one shard.
	Workers int

	// GCIntervalSeconds is how often, in seconds, the GC loop sweeps the
	// registry for abandoned partial uploads.
	GCIntervalSeconds int

	// GCPruneMaxSeconds is the age horizon past which a request with no
	// terminal chunk is considered abandoned and pruned.
	GCPruneMaxSeconds int

	// LegacyCompat enables the req_id == 0 whole-instance-serializing
	// compatibility path for pre-batching producers. Deprecatable behind
	// this flag, per the reference implementation's design notes.
	LegacyCompat bool
}

// SetDefaults fills in zero fields with sensible production values,
// matching the teacher's Options.SetDefaults idiom (chotki.go).
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.GCIntervalSeconds <= 0 {
		c.GCIntervalSeconds = 60
	}
	if c.GCPruneMaxSeconds <= 0 {
		c.GCPruneMaxSeconds = 3600
	}
}

func (c *Config) gcInterval() time.Duration {
	return time.Duration(c.GCIntervalSeconds) * time.Second
}

func (c *Config) gcPruneMax() time.Duration {
	return time.Duration(c.GCPruneMaxSeconds) * time.Second
}
