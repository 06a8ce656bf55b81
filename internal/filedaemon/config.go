package filedaemon

import "time"

// Config is the File Daemon's configuration surface (spec §6). A zero
// value for any field falls back to its documented default via
// Config.withDefaults.
type Config struct {
	// FlushThresholdBytes is the aggregate pending-bytes boundary per
	// tier above which CheckFlush triggers a flush. Default 10 MiB.
	FlushThresholdBytes int64

	// SystemFastInterval is the SystemFast tier's heartbeat interval.
	// Default 5s.
	SystemFastInterval time.Duration
	// SystemSlowInterval is the SystemSlow tier's heartbeat interval.
	// Default 60s.
	SystemSlowInterval time.Duration
	// GameInterval is the Game tier's heartbeat interval. Default 30s.
	GameInterval time.Duration

	// PruneHorizon is the inactivity duration past which a clean entry
	// becomes eligible for pruning. Default 30m.
	PruneHorizon time.Duration
}

const (
	defaultFlushThresholdBytes = 10 * 1024 * 1024
	defaultSystemFastInterval  = 5 * time.Second
	defaultSystemSlowInterval  = 60 * time.Second
	defaultGameInterval        = 30 * time.Second
	defaultPruneHorizon        = 30 * time.Minute
)

// DefaultConfig returns the documented defaults for every option.
func DefaultConfig() Config {
	return Config{
		FlushThresholdBytes: defaultFlushThresholdBytes,
		SystemFastInterval:  defaultSystemFastInterval,
		SystemSlowInterval:  defaultSystemSlowInterval,
		GameInterval:        defaultGameInterval,
		PruneHorizon:        defaultPruneHorizon,
	}
}

// withDefaults fills any zero field of c with its documented default.
func (c Config) withDefaults() Config {
	if c.FlushThresholdBytes <= 0 {
		c.FlushThresholdBytes = defaultFlushThresholdBytes
	}
	if c.SystemFastInterval <= 0 {
		c.SystemFastInterval = defaultSystemFastInterval
	}
	if c.SystemSlowInterval <= 0 {
		c.SystemSlowInterval = defaultSystemSlowInterval
	}
	if c.GameInterval <= 0 {
		c.GameInterval = defaultGameInterval
	}
	if c.PruneHorizon <= 0 {
		c.PruneHorizon = defaultPruneHorizon
	}
	return c
}

func (c Config) intervalFor(p Priority) time.Duration {
	switch p {
	case SystemFast:
		return c.SystemFastInterval
	case SystemSlow:
		return c.SystemSlowInterval
	default:
		return c.GameInterval
	}
}
