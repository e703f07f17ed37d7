package agency

import "github.com/everforgeworks/galaxyserver/internal/world"

// The types below are the serializable projection of a Manager's state
// for the meta JSON file (spec.md §4.7): "agencies (id, name, public
// flag, members, colors, inventories, capacities, vessel ids, base
// buildings with type/level/constructed/planet) and players (id,
// position, money, galaxy/system, agency id, controlled vessel id)".
// Live vessel objects themselves are not part of this snapshot -- they
// travel with their owning chunk's binary file and are re-registered
// with RegisterVessel after both halves of a load complete.

// BuildingSnapshot is one building entry in an AgencySnapshot.
type BuildingSnapshot struct {
	Type                    string
	PlanetID                uint64
	Level                   int
	Constructed             bool
	LongitudeDeg            float64
	ConstructionProgressSec float64
}

// AstronautSnapshot is one crew member entry in an AgencySnapshot.
type AstronautSnapshot struct {
	ID32         uint32
	Name         string
	SuitID       int
	AppearanceID int
	PlanetID     uint64
	OnPlanet     bool
	VesselID     uint64
	OnVessel     bool
	Level        int
	XP           float64
}

// AgencySnapshot is the serializable projection of one Agency.
type AgencySnapshot struct {
	ID                      uint64
	Name                    string
	IsPublic                bool
	PrimaryColor            uint32
	SecondaryColor          uint32
	Members                 []uint64
	Buildings               []BuildingSnapshot
	BaseInventories         map[uint64]map[string]int
	BaseInventoryCapacities map[uint64]int
	Astronauts              []AstronautSnapshot
	AstronautSeq            uint32
	VesselIDs               []uint64
	Discovered              []uint64
}

// PlayerSnapshot is the serializable projection of one Player.
type PlayerSnapshot struct {
	ID                 uint64
	PosX, PosY         float64
	Money              int
	Galaxy, System     int
	AgencyID           uint64
	ControlledVesselID uint64
}

// MetaSnapshot is the complete meta file payload (spec.md §4.7).
type MetaSnapshot struct {
	Agencies  []AgencySnapshot
	Players   []PlayerSnapshot
	IDWatermark uint64
}

// Snapshot captures every agency and player for the meta file. It records
// only the ids in a.Vessels, not the vessel bodies: those are reattached from the per-chunk
// load, and RegisterVessel repopulates this map afterward.
func (m *Manager) Snapshot() MetaSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetaSnapshot{IDWatermark: m.ids.Current()}
	for _, a := range m.agencies {
		as := AgencySnapshot{
			ID: a.ID, Name: a.Name, IsPublic: a.IsPublic,
			PrimaryColor: a.PrimaryColor, SecondaryColor: a.SecondaryColor,
			Members:                 append([]uint64{}, a.Members...),
			BaseInventories:         deepCopyInventories(a.BaseInventories),
			BaseInventoryCapacities: copyUint64IntMap(a.BaseInventoryCapacities),
			AstronautSeq:            a.astroSeq,
		}
		for planetID, buildings := range a.Buildings {
			for _, b := range buildings {
				as.Buildings = append(as.Buildings, BuildingSnapshot{
					Type: b.Type, PlanetID: planetID, Level: b.Level,
					Constructed: b.Constructed, LongitudeDeg: b.LongitudeDeg,
					ConstructionProgressSec: b.ConstructionProgressSec,
				})
			}
		}
		for _, astro := range a.Astronauts {
			as.Astronauts = append(as.Astronauts, AstronautSnapshot{
				ID32: astro.ID32, Name: astro.Name, SuitID: astro.SuitID,
				AppearanceID: astro.AppearanceID, PlanetID: astro.PlanetID,
				OnPlanet: astro.OnPlanet, VesselID: astro.VesselID,
				OnVessel: astro.OnVessel, Level: astro.Level, XP: astro.XP,
			})
		}
		for vesselID := range a.Vessels {
			as.VesselIDs = append(as.VesselIDs, vesselID)
		}
		for planetID, yes := range a.discovered {
			if yes {
				as.Discovered = append(as.Discovered, planetID)
			}
		}
		snap.Agencies = append(snap.Agencies, as)
	}
	for _, p := range m.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID: p.ID, PosX: p.Position.X, PosY: p.Position.Y, Money: p.Money,
			Galaxy: p.Galaxy, System: p.System, AgencyID: p.AgencyID,
			ControlledVesselID: p.ControlledVesselID,
		})
	}
	return snap
}

// Restore replaces the manager's agency/player set from a loaded
// MetaSnapshot. It must run before any chunk is loaded, since chunk
// load re-registers each vessel's agency membership by id via
// RegisterVessel.
func (m *Manager) Restore(snap MetaSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ids.Restore(snap.IDWatermark)
	m.agencies = make(map[uint64]*Agency, len(snap.Agencies))
	for _, as := range snap.Agencies {
		a := newAgency(as.ID, as.Name)
		a.IsPublic = as.IsPublic
		a.PrimaryColor = as.PrimaryColor
		a.SecondaryColor = as.SecondaryColor
		a.Members = append([]uint64{}, as.Members...)
		a.BaseInventories = deepCopyInventories(as.BaseInventories)
		a.BaseInventoryCapacities = copyUint64IntMap(as.BaseInventoryCapacities)
		a.astroSeq = as.AstronautSeq
		for _, bs := range as.Buildings {
			b := &Building{
				Type: bs.Type, PlanetID: bs.PlanetID, Level: bs.Level,
				Constructed: bs.Constructed, LongitudeDeg: bs.LongitudeDeg,
				ConstructionProgressSec: bs.ConstructionProgressSec,
			}
			a.Buildings[bs.PlanetID] = append(a.Buildings[bs.PlanetID], b)
		}
		for _, ast := range as.Astronauts {
			astro := &Astronaut{
				ID32: ast.ID32, Name: ast.Name, SuitID: ast.SuitID,
				AppearanceID: ast.AppearanceID, PlanetID: ast.PlanetID,
				OnPlanet: ast.OnPlanet, VesselID: ast.VesselID,
				OnVessel: ast.OnVessel, Level: ast.Level, XP: ast.XP,
			}
			a.Astronauts[astro.ID32] = astro
			if astro.OnPlanet {
				if a.PlanetAstronauts[astro.PlanetID] == nil {
					a.PlanetAstronauts[astro.PlanetID] = make(map[uint32]bool)
				}
				a.PlanetAstronauts[astro.PlanetID][astro.ID32] = true
			}
		}
		if len(as.Discovered) > 0 {
			a.discovered = make(map[uint64]bool, len(as.Discovered))
			for _, planetID := range as.Discovered {
				a.discovered[planetID] = true
			}
		}
		a.rebuildAttributesLocked(m.cat)
		m.agencies[a.ID] = a
	}

	m.players = make(map[uint64]*Player, len(snap.Players))
	for _, ps := range snap.Players {
		m.players[ps.ID] = &Player{
			ID:       ps.ID,
			Position: world.Vec2{X: ps.PosX, Y: ps.PosY},
			Money:    ps.Money, Galaxy: ps.Galaxy, System: ps.System,
			AgencyID: ps.AgencyID, ControlledVesselID: ps.ControlledVesselID,
		}
	}
}

func deepCopyInventories(src map[uint64]map[string]int) map[uint64]map[string]int {
	out := make(map[uint64]map[string]int, len(src))
	for k, v := range src {
		out[k] = copyStringIntMap(v)
	}
	return out
}

func copyStringIntMap(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func copyUint64IntMap(src map[uint64]int) map[uint64]int {
	out := make(map[uint64]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
