// Package agency implements the agency subsystem (C7): membership,
// constructed buildings, base inventories, astronauts, and the per-tick
// attribute/networking-multiplier rebuilds described in spec.md §4.5. It
// satisfies vessel.Ledger and vessel.AgencyView, the narrow views
// internal/vessel and internal/payload read through, so those packages
// never import agency directly (spec.md §9's "define the interface on
// the consumer" pattern, generalized from the teacher's single global
// DataLock-guarded state to a per-instance Manager).
package agency

import (
	"math"
	"sync"

	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/idgen"
	"github.com/everforgeworks/galaxyserver/internal/vessel"
)

// Attributes holds the agency-wide tuning values rebuilt every tick from
// constructed buildings' unlock levels (spec.md §4.5 "Attribute rebuild").
type Attributes struct {
	SatelliteBonusIncome    float64
	SatelliteMaxUpgradeTier int
	ProbeMaxUpgradeTier     int
}

// Agency is one player organization: its membership, bases, buildings,
// astronauts, and the live vessel set it owns.
type Agency struct {
	ID             uint64
	Name           string
	IsPublic       bool
	PrimaryColor   uint32
	SecondaryColor uint32

	Members []uint64 // player ids

	Buildings               map[uint64][]*Building // planet id -> buildings
	BaseInventories         map[uint64]map[string]int
	BaseInventoryCapacities map[uint64]int
	BaseMultipliers         map[uint64]float64 // planet id -> networking multiplier, floor 1.0

	Astronauts       map[uint32]*Astronaut
	PlanetAstronauts map[uint64]map[uint32]bool
	astroSeq         uint32

	Vessels map[uint64]*vessel.Vessel

	Attributes Attributes

	discovered map[uint64]bool
}

func newAgency(id uint64, name string) *Agency {
	return &Agency{
		ID:                      id,
		Name:                    name,
		IsPublic:                true,
		Buildings:               make(map[uint64][]*Building),
		BaseInventories:         make(map[uint64]map[string]int),
		BaseInventoryCapacities: make(map[uint64]int),
		BaseMultipliers:         make(map[uint64]float64),
		Astronauts:              make(map[uint32]*Astronaut),
		PlanetAstronauts:        make(map[uint64]map[uint32]bool),
		Vessels:                 make(map[uint64]*vessel.Vessel),
	}
}

// Manager owns every agency and player in the server, guarded by a single
// mutex held for the duration of a membership change, a tick's attribute
// rebuild, or an income distribution pass (same convention as
// world.Manager: the lock is not held across blocking I/O).
type Manager struct {
	mu sync.Mutex

	cat *catalog.Catalog
	ids *idgen.Sequence

	agencies map[uint64]*Agency
	players  map[uint64]*Player
}

// NewManager constructs an empty agency/player registry.
func NewManager(cat *catalog.Catalog) *Manager {
	return &Manager{
		cat:      cat,
		ids:      &idgen.Sequence{},
		agencies: make(map[uint64]*Agency),
		players:  make(map[uint64]*Player),
	}
}

// CreateAgency registers a new agency and returns it.
func (m *Manager) CreateAgency(name string, isPublic bool) *Agency {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := newAgency(m.ids.Next(), name)
	a.IsPublic = isPublic
	m.agencies[a.ID] = a
	return a
}

// Agency returns the agency by id, or nil.
func (m *Manager) Agency(id uint64) *Agency {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agencies[id]
}

// PublicAgencies lists every agency flagged public, for the agency
// browser a new player sees before joining or founding one.
func (m *Manager) PublicAgencies() []*Agency {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Agency
	for _, a := range m.agencies {
		if a.IsPublic {
			out = append(out, a)
		}
	}
	return out
}

// AddMember appends playerID to the agency's membership if not already
// present (spec.md §4.5 "Membership").
func (m *Manager) AddMember(agencyID, playerID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return
	}
	for _, id := range a.Members {
		if id == playerID {
			return
		}
	}
	a.Members = append(a.Members, playerID)
}

// RemoveMember drops playerID from the agency's membership.
func (m *Manager) RemoveMember(agencyID, playerID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return
	}
	for i, id := range a.Members {
		if id == playerID {
			a.Members = append(a.Members[:i], a.Members[i+1:]...)
			return
		}
	}
}

// RegisterVessel records a vessel as belonging to its agency, for
// same-chunk payload proximity queries and networking-multiplier rebuilds.
func (m *Manager) RegisterVessel(v *vessel.Vessel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[v.AgencyID]
	if a == nil {
		return
	}
	a.Vessels[v.ID] = v
}

// UnregisterVessel removes a destroyed or transferred vessel from its
// agency's live set.
func (m *Manager) UnregisterVessel(agencyID, vesselID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.agencies[agencyID]; a != nil {
		delete(a.Vessels, vesselID)
	}
}

// CreditIncome distributes amount evenly across the agency's current
// members by ceiling division (spec.md §4.5 "distribute_money"); any
// member not currently registered as a player is skipped.
func (m *Manager) CreditIncome(agencyID uint64, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil || len(a.Members) == 0 || amount <= 0 {
		return
	}
	perMember := int(math.Ceil(amount / float64(len(a.Members))))
	for _, pid := range a.Members {
		if p := m.players[pid]; p != nil {
			p.Money += perMember
		}
	}
}

// GlobalCashMultiplier returns the server-wide income multiplier from
// catalog tuning (spec.md §4.5 "server global multiplier").
func (m *Manager) GlobalCashMultiplier() float64 {
	if m.cat == nil {
		return 1
	}
	return m.cat.Tuning.GlobalCashMultiplier
}

// PlanetIncomeMultiplier returns the agency's rebuilt networking
// multiplier for planetID, floor 1.0 (spec.md §4.5 "Networking
// multipliers").
func (m *Manager) PlanetIncomeMultiplier(agencyID, planetID uint64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return 1
	}
	if mult, ok := a.BaseMultipliers[planetID]; ok {
		return mult
	}
	return 1
}

// UpgradeTier reports the agency's rebuilt tier-gate ceiling for the
// named system ("satellite" or "probe"), used to cap which payload
// upgrades a player may unlock (spec.md §4.5).
func (m *Manager) UpgradeTier(agencyID uint64, system string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return 0
	}
	switch system {
	case "satellite":
		return a.Attributes.SatelliteMaxUpgradeTier
	case "probe":
		return a.Attributes.ProbeMaxUpgradeTier
	default:
		return 0
	}
}

// FriendlyDeployedPayloads returns every deployed (stage 0) vessel the
// agency owns in the given (galaxy, system), optionally filtered by
// payload kind (empty matches any), for the comms relay PING bonus
// (spec.md §4.4).
func (m *Manager) FriendlyDeployedPayloads(agencyID uint64, chunkKey [2]int, kind string) []vessel.PayloadLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return nil
	}
	var out []vessel.PayloadLocation
	for _, v := range a.Vessels {
		if v.Galaxy != chunkKey[0] || v.SystemCoord != chunkKey[1] {
			continue
		}
		if v.CurrentStage != 0 {
			continue
		}
		if kind != "" && v.PayloadKind != kind {
			continue
		}
		out = append(out, vessel.PayloadLocation{VesselID: v.ID, Pos: v.Position, BaseIncome: v.PayloadBaseIncome()})
	}
	return out
}

// RebuildAttributes implements spec.md §4.5's per-tick attribute rebuild:
// start from defaults, fold in every constructed building's unlock-level
// additives and tier-gate maxima, rebuild per-planet storage capacity
// from scratch, then rebuild the networking multipliers.
func (m *Manager) RebuildAttributes(agencyID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return
	}
	a.rebuildAttributesLocked(m.cat)
}

func (a *Agency) rebuildAttributesLocked(cat *catalog.Catalog) {
	attrs := Attributes{}
	capacities := make(map[uint64]int, len(a.Buildings))
	for planetID := range a.Buildings {
		capacities[planetID] = 0
		if a.BaseInventories[planetID] == nil {
			a.BaseInventories[planetID] = make(map[string]int)
		}
	}

	for planetID, buildings := range a.Buildings {
		for _, b := range buildings {
			if !b.Constructed || cat == nil {
				continue
			}
			def := cat.Buildings[b.Type]
			if def == nil {
				continue
			}
			for _, lvl := range def.Unlocks {
				if lvl.Level > b.Level {
					continue
				}
				if v, ok := lvl.Additive["satellite_bonus_income"]; ok {
					attrs.SatelliteBonusIncome += v
				}
				if v, ok := lvl.TierGate["satellite_max_upgrade_tier"]; ok && v > attrs.SatelliteMaxUpgradeTier {
					attrs.SatelliteMaxUpgradeTier = v
				}
				if v, ok := lvl.TierGate["probe_max_upgrade_tier"]; ok && v > attrs.ProbeMaxUpgradeTier {
					attrs.ProbeMaxUpgradeTier = v
				}
				if v, ok := lvl.Additive["add_base_storage"]; ok {
					capacities[planetID] += int(v)
				}
			}
		}
	}

	a.Attributes = attrs
	a.BaseInventoryCapacities = capacities
	a.rebuildNetworkingMultipliersLocked()
}

// rebuildNetworkingMultipliersLocked implements spec.md §4.5 "Networking
// multipliers": every deployed comms satellite with NETWORKING1/2
// contributes +0.01/+0.02 to the nearest same-system planet, provided it
// lies within 4x that planet's radius. Stacking is additive, floor 1.0.
func (a *Agency) rebuildNetworkingMultipliersLocked() {
	a.BaseMultipliers = make(map[uint64]float64)
	for _, v := range a.Vessels {
		if v.PayloadKind != "comms_satellite" || v.CurrentStage != 0 {
			continue
		}
		var pct float64
		switch {
		case v.HasUpgrade("NETWORKING2"):
			pct = 0.02
		case v.HasUpgrade("NETWORKING1"):
			pct = 0.01
		default:
			continue
		}
		nearest, dist := vessel.NearestBody(v.NearbyBodies, v.Position)
		if nearest == nil {
			continue
		}
		if nearest.RadiusKm <= 0 || dist > 4*nearest.RadiusKm {
			continue
		}
		if _, ok := a.BaseMultipliers[nearest.ID]; !ok {
			a.BaseMultipliers[nearest.ID] = 1.0
		}
		a.BaseMultipliers[nearest.ID] += pct
	}
}

// AddDiscovery records planetID as discovered by agencyID, returning true
// the first time (idempotent thereafter). Discoveries are tracked as
// unlocked buildings' sibling set would be; here a plain per-agency set
// since spec.md only requires idempotent membership, not a building tier.
func (m *Manager) AddDiscovery(agencyID, planetID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return false
	}
	if a.discovered == nil {
		a.discovered = make(map[uint64]bool)
	}
	if a.discovered[planetID] {
		return false
	}
	a.discovered[planetID] = true
	return true
}
