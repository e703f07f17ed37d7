package agency

import (
	"github.com/everforgeworks/galaxyserver/internal/apierr"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// Player is a connected account: its starmap position, wallet, current
// galaxy/system, agency membership, and the vessel it controls, if any
// (spec.md §4.7 meta file fields).
type Player struct {
	ID       uint64
	Position world.Vec2
	Money    int

	Galaxy, System int

	AgencyID           uint64
	ControlledVesselID uint64
}

// RegisterPlayer adds a new player record, or returns the existing one.
func (m *Manager) RegisterPlayer(id uint64) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[id]; ok {
		return p
	}
	p := &Player{ID: id}
	m.players[id] = p
	return p
}

// Player returns the player by id, or nil.
func (m *Manager) Player(id uint64) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[id]
}

// PlayerMoney implements vessel.Ledger.
func (m *Manager) PlayerMoney(playerID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.players[playerID]; p != nil {
		return p.Money
	}
	return 0
}

// DeductPlayerMoney implements vessel.Ledger: atomically pays amount from
// the player's wallet, rejecting (no mutation) if insufficient.
func (m *Manager) DeductPlayerMoney(playerID uint64, amount int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.players[playerID]
	if p == nil || p.Money < amount {
		return false
	}
	p.Money -= amount
	return true
}

// BaseInventory implements vessel.Ledger, returning the live map so
// callers under the same external synchronization may read it; mutation
// must go through DeductBaseResources.
func (m *Manager) BaseInventory(bodyID uint64) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agencies {
		if inv, ok := a.BaseInventories[bodyID]; ok {
			return inv
		}
	}
	return nil
}

// DeductBaseResources implements vessel.Ledger: atomically pays need from
// whichever agency's base at bodyID holds the inventory.
func (m *Manager) DeductBaseResources(bodyID uint64, need map[string]int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agencies {
		inv, ok := a.BaseInventories[bodyID]
		if !ok {
			continue
		}
		for rid, qty := range need {
			if inv[rid] < qty {
				return false
			}
		}
		for rid, qty := range need {
			inv[rid] -= qty
		}
		return true
	}
	return false
}

// SellResource implements spec.md §4.5 "Resource sale": decrements the
// agency's inventory at fromBodyID and credits the player at the
// catalog's sale rate, scaled by the server's global cash multiplier.
func (m *Manager) SellResource(playerID, agencyID, fromBodyID uint64, resourceID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := m.agencies[agencyID]
	if a == nil {
		return apierr.Reject(apierr.ReasonNotMember, "unknown agency %d", agencyID)
	}
	isMember := false
	for _, id := range a.Members {
		if id == playerID {
			isMember = true
			break
		}
	}
	if !isMember {
		return apierr.Reject(apierr.ReasonNotMember, "player %d is not a member of agency %d", playerID, agencyID)
	}
	if count <= 0 {
		return apierr.Reject(apierr.ReasonInsufficientResource, "count must be positive")
	}
	inv := a.BaseInventories[fromBodyID]
	if inv == nil || inv[resourceID] < count {
		return apierr.Reject(apierr.ReasonInsufficientResource, "need %d of %s at base %d", count, resourceID, fromBodyID)
	}
	if m.cat == nil {
		return apierr.Reject(apierr.ReasonUnknownResource, "no catalog loaded")
	}
	res := m.cat.Resources[resourceID]
	if res == nil || res.Rate <= 0 {
		return apierr.Reject(apierr.ReasonUnknownResource, "%s has no sale rate", resourceID)
	}

	p := m.players[playerID]
	if p == nil {
		return apierr.Reject(apierr.ReasonNotMember, "player %d not registered", playerID)
	}

	inv[resourceID] -= count
	if inv[resourceID] <= 0 {
		delete(inv, resourceID)
	}
	p.Money += int(float64(count) * res.Rate * m.cat.Tuning.GlobalCashMultiplier)
	return nil
}
