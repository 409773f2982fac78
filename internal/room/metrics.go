package room

import "sync/atomic"

// Metrics are updated by the room goroutine and read from HTTP handlers.
type Metrics struct {
	CommandsApplied  atomic.Int64
	CommandsRejected atomic.Int64
	PhaseViolations  atomic.Int64
	Broadcasts       atomic.Int64
	SlowClientDrops  atomic.Int64
	TurnsCompleted   atomic.Int64
	ArchiveDrops     atomic.Int64
}

// Snapshot returns a read-only copy for JSON output.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"commands_applied":  m.CommandsApplied.Load(),
		"commands_rejected": m.CommandsRejected.Load(),
		"phase_violations":  m.PhaseViolations.Load(),
		"broadcasts":        m.Broadcasts.Load(),
		"slow_client_drops": m.SlowClientDrops.Load(),
		"turns_completed":   m.TurnsCompleted.Load(),
		"archive_drops":     m.ArchiveDrops.Load(),
	}
}
