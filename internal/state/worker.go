package state

// WorkerMemory is the per-worker bookkeeping the behavior loop and the
// manager-level stuck checker share. Blacklist keys are quantized tile
// coordinates mapped to an expiry tick; entries are purged lazily.
type WorkerMemory struct {
	Blacklist      map[string]uint64
	LastSample     Vec2
	StaticSamples  uint8
	NextSampleTick uint64
	PathGeneration uint64
	PathPending    bool
	NextActionTick uint64
}

// BlacklistTile records a tile key until the expiry tick.
func (m *WorkerMemory) BlacklistTile(key string, expiry uint64) {
	if m == nil {
		return
	}
	if m.Blacklist == nil {
		m.Blacklist = make(map[string]uint64)
	}
	m.Blacklist[key] = expiry
}

// Blacklisted reports whether the key is currently excluded.
func (m *WorkerMemory) Blacklisted(key string, tick uint64) bool {
	if m == nil || m.Blacklist == nil {
		return false
	}
	expiry, ok := m.Blacklist[key]
	if !ok {
		return false
	}
	if tick >= expiry {
		delete(m.Blacklist, key)
		return false
	}
	return true
}

// PurgeBlacklist drops expired entries and returns how many were removed.
func (m *WorkerMemory) PurgeBlacklist(tick uint64) int {
	if m == nil || len(m.Blacklist) == 0 {
		return 0
	}
	removed := 0
	for key, expiry := range m.Blacklist {
		if tick >= expiry {
			delete(m.Blacklist, key)
			removed++
		}
	}
	return removed
}
