package agency

import (
	"math"
	"math/rand/v2"

	"github.com/everforgeworks/galaxyserver/internal/apierr"
	"github.com/everforgeworks/galaxyserver/internal/catalog"
)

// Building is one constructed (or under-construction) structure on a
// planet: its catalog type, level, and construction state (spec.md §4.7
// meta fields: "type/level/constructed/planet"). A freshly placed
// building starts at level 0 and un-constructed, accruing
// ConstructionProgressSec each agency tick until it reaches the
// catalog's BuildTimeSec and flips to level 1 (original_source/buildings.py's
// construction_progress/construction_time fields).
type Building struct {
	Type         string
	PlanetID     uint64
	Level        int
	Constructed  bool
	LongitudeDeg float64

	ConstructionProgressSec float64
}

// ConstructBuilding implements a player-initiated construction request:
// deducts moneyCost via payCost, then places the building at level 0,
// un-constructed, to be completed over BuildTimeSec by the agency's
// background tick (original_source/buildings.py's
// construction_progress/construction_time fields).
func (m *Manager) ConstructBuilding(agencyID, planetID uint64, buildingType string, longitudeDeg float64, payCost func(moneyCost int) bool) (*Building, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return nil, apierr.Reject(apierr.ReasonNotMember, "unknown agency %d", agencyID)
	}
	if m.cat == nil {
		return nil, apierr.Reject(apierr.ReasonNotFound, "no catalog loaded")
	}
	def := m.cat.Buildings[buildingType]
	if def == nil {
		return nil, apierr.Reject(apierr.ReasonNotFound, "unknown building type %q", buildingType)
	}
	if !payCost(def.MoneyCost) {
		return nil, apierr.Reject(apierr.ReasonInsufficientFunds, "cannot afford %q", buildingType)
	}
	b := &Building{Type: buildingType, PlanetID: planetID, Level: 0, LongitudeDeg: longitudeDeg}
	a.Buildings[planetID] = append(a.Buildings[planetID], b)
	a.rebuildAttributesLocked(m.cat)
	return b, nil
}

// ConstructBuildingOnLand implements vessel.AgencyView: the crewed
// payload's auto-build mission hook. Unlike a player-paid ConstructBuilding
// request, this places the building already fully constructed at level 1
// with no cost, matching original_source/payload_behavior.py's
// `_maybe_build_on_land` (`new_building.constructed = True` set
// immediately, no ledger deduction involved).
func (m *Manager) ConstructBuildingOnLand(agencyID, bodyID uint64, planetName, buildingType string, longitudeDeg float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil || m.cat == nil || m.cat.Buildings[buildingType] == nil {
		return false
	}
	for _, b := range a.Buildings[bodyID] {
		if b.Type == buildingType {
			return false
		}
	}
	b := &Building{Type: buildingType, PlanetID: bodyID, Level: 1, Constructed: true, LongitudeDeg: longitudeDeg}
	a.Buildings[bodyID] = append(a.Buildings[bodyID], b)
	a.rebuildAttributesLocked(m.cat)
	return true
}

// UpgradeBuilding raises a constructed building's level by one step,
// deducting cost via the supplied ledger-style callback, and rebuilds the
// agency's attributes.
func (m *Manager) UpgradeBuilding(agencyID, planetID uint64, buildingType string, payCost func(moneyCost int) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return 0, apierr.Reject(apierr.ReasonNotMember, "unknown agency %d", agencyID)
	}
	var target *Building
	for _, b := range a.Buildings[planetID] {
		if b.Type == buildingType {
			target = b
			break
		}
	}
	if target == nil || !target.Constructed {
		return 0, apierr.Reject(apierr.ReasonNotFound, "no constructed %q on planet %d", buildingType, planetID)
	}
	def := m.cat.Buildings[buildingType]
	if def == nil {
		return 0, apierr.Reject(apierr.ReasonNotFound, "unknown building type %q", buildingType)
	}
	if !payCost(def.MoneyCost * (target.Level + 1)) {
		return target.Level, apierr.Reject(apierr.ReasonInsufficientFunds, "cannot afford upgrade to level %d", target.Level+1)
	}
	target.Level++
	a.rebuildAttributesLocked(m.cat)
	return target.Level, nil
}

// Discovered reports whether agencyID has already discovered planetID.
func (m *Manager) Discovered(agencyID, planetID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return false
	}
	return a.discovered[planetID]
}

const (
	buildingTypeEarthHQ         = "earth_hq"
	buildingTypeMiningRig       = "mining_rig"
	buildingTypeRefuelingStation = "refueling_station"

	earthHQMinAstronauts   = 3
	miningRigRollOutOf     = 1000
	refuelingStationRateKG = 10.0 // units/sec per level, original_source/buildings.py base_rate
)

// incomeFromBuilding sums a constructed building's base income plus every
// unlock-level's "add_base_income" additive unlocked at its current level.
func incomeFromBuilding(b *Building, def *catalog.Building) float64 {
	if !b.Constructed || def == nil {
		return 0
	}
	income := def.BaseIncome
	for _, lvl := range def.Unlocks {
		if lvl.Level > b.Level {
			continue
		}
		income += lvl.Additive["add_base_income"]
	}
	return income
}

// GenerateIncome implements spec.md §4.5 "Income generation": sums every
// constructed building's income across every planet, scales by the
// server's global cash multiplier, and distributes to members by floor
// division -- distinct from CreditIncome's ceiling-division payload
// distribution.
func (m *Manager) GenerateIncome(agencyID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil || m.cat == nil || len(a.Members) == 0 {
		return 0
	}

	total := 0.0
	for _, buildings := range a.Buildings {
		for _, b := range buildings {
			total += incomeFromBuilding(b, m.cat.Buildings[b.Type])
		}
	}
	total *= m.cat.Tuning.GlobalCashMultiplier

	perMember := int(math.Floor(total / float64(len(a.Members))))
	if perMember == 0 {
		return 0
	}
	for _, pid := range a.Members {
		if p := m.players[pid]; p != nil {
			p.Money += perMember
		}
	}
	return perMember * len(a.Members)
}

// TickBuildings runs the per-building-type side effects spec.md §4.5 calls
// out beyond plain income: an earth_hq keeps its planet staffed with a
// minimum astronaut complement, a mining_rig has a per-second chance to
// pull one unit of a planet's resource yield into the agency's base
// inventory, capped at that base's rebuilt storage capacity, and a
// refueling_station tops up the current stage's tank of every landed
// vessel of this agency sitting on the building's planet. planetYield
// supplies each planet's weighted resource mix (the caller owns the
// world-side lookup; this package never imports internal/world).
func (m *Manager) TickBuildings(agencyID uint64, dtSec float64, planetYield map[uint64]map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return
	}
	for planetID, buildings := range a.Buildings {
		for _, b := range buildings {
			if !b.Constructed {
				continue
			}
			switch b.Type {
			case buildingTypeEarthHQ:
				a.ensureMinAstronautsLocked(planetID, earthHQMinAstronauts)
			case buildingTypeMiningRig:
				a.rollMiningRigLocked(planetID, b.Level, planetYield[planetID])
			case buildingTypeRefuelingStation:
				a.refuelLandedVesselsLocked(planetID, b.Level, dtSec)
			}
		}
	}
}

// refuelLandedVesselsLocked adds refuelingStationRateKG*level*dtSec units
// to the current stage's fuel tank of every landed vessel belonging to a
// sitting on planetID, clamped to that stage's capacity. Grounded on
// original_source/buildings.py's REFUELING_STATION case in
// do_building_effects.
func (a *Agency) refuelLandedVesselsLocked(planetID uint64, level int, dtSec float64) {
	addAmt := refuelingStationRateKG * float64(level) * dtSec
	if addAmt <= 0 {
		return
	}
	for _, v := range a.Vessels {
		if !v.Landed || v.LastLandedBodyID != planetID {
			continue
		}
		tankCap := v.StageFuelCap[v.CurrentStage]
		cur := v.StageFuel[v.CurrentStage]
		if tankCap <= 0 || cur >= tankCap {
			continue
		}
		put := addAmt
		if room := tankCap - cur; put > room {
			put = room
		}
		v.StageFuel[v.CurrentStage] = cur + put
	}
}

func (a *Agency) rollMiningRigLocked(planetID uint64, level int, yield map[string]float64) {
	if len(yield) == 0 {
		return
	}
	if rand.IntN(miningRigRollOutOf) >= 50*level {
		return
	}
	inv := a.BaseInventories[planetID]
	if inv == nil {
		inv = make(map[string]int)
		a.BaseInventories[planetID] = inv
	}
	total := 0
	for _, qty := range inv {
		total += qty
	}
	if total >= a.BaseInventoryCapacities[planetID] {
		return
	}
	resourceID := weightedChoice(yield)
	if resourceID == "" {
		return
	}
	inv[resourceID]++
}

func weightedChoice(weights map[string]float64) string {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return ""
	}
	roll := rand.Float64() * total
	acc := 0.0
	for id, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if roll <= acc {
			return id
		}
	}
	return ""
}
