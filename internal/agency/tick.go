package agency

import (
	"context"
	"time"
)

// ResourceYieldFunc supplies a planet's current weighted resource mix for
// the mining_rig building effect (internal/world owns the lookup; this
// package only consumes it, keeping the dependency one-directional).
type ResourceYieldFunc func(planetID uint64) map[string]float64

// Tick runs one pass of every agency's attribute rebuild, building-income
// generation, and per-building side effects (spec.md §4.5). It is driven
// on its own cadence, independent of the physics tick loop, since agency
// bookkeeping does not need 60Hz resolution.
func (m *Manager) Tick(dtSec float64, yield ResourceYieldFunc) {
	m.mu.Lock()
	ids := make([]uint64, 0, len(m.agencies))
	for id := range m.agencies {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.advanceConstruction(id, dtSec)
		m.RebuildAttributes(id)
		m.GenerateIncome(id)
		m.tickBuildingsWithLookup(id, dtSec, yield)
	}
}

// advanceConstruction steps every under-construction building's progress
// timer, completing it (level 0 -> 1) once BuildTimeSec elapses.
func (m *Manager) advanceConstruction(agencyID uint64, dtSec float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil || m.cat == nil {
		return
	}
	for _, buildings := range a.Buildings {
		for _, b := range buildings {
			if b.Constructed {
				continue
			}
			def := m.cat.Buildings[b.Type]
			if def == nil {
				continue
			}
			b.ConstructionProgressSec += dtSec
			if b.ConstructionProgressSec >= def.BuildTimeSec {
				b.Constructed = true
				b.Level = 1
			}
		}
	}
}

func (m *Manager) tickBuildingsWithLookup(agencyID uint64, dtSec float64, yield ResourceYieldFunc) {
	m.mu.Lock()
	a := m.agencies[agencyID]
	if a == nil {
		m.mu.Unlock()
		return
	}
	planets := make([]uint64, 0, len(a.Buildings))
	for planetID := range a.Buildings {
		planets = append(planets, planetID)
	}
	m.mu.Unlock()

	planetYield := make(map[uint64]map[string]float64, len(planets))
	if yield != nil {
		for _, planetID := range planets {
			planetYield[planetID] = yield(planetID)
		}
	}
	m.TickBuildings(agencyID, dtSec, planetYield)
}

// RunTickLoop drives Tick on the given interval until ctx is canceled,
// mirroring internal/world's RunTickLoop ticker-based background
// loop convention.
func (m *Manager) RunTickLoop(ctx context.Context, interval time.Duration, yield ResourceYieldFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	dtSec := interval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(dtSec, yield)
		}
	}
}
