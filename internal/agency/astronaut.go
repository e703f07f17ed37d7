package agency

import (
	"strconv"

	"github.com/everforgeworks/galaxyserver/internal/apierr"
	"github.com/everforgeworks/galaxyserver/internal/idgen"
	"github.com/everforgeworks/galaxyserver/internal/vessel"
)

// Astronaut is a named crew member with a suit/appearance cosmetic pair
// and a level/XP progression trained by crewed payloads (spec.md §4.4,
// §4.5 "Astronauts"). Dual-indexed on the owning Agency: by id32 and by
// current planet.
type Astronaut struct {
	ID32         uint32
	Name         string
	SuitID       int
	AppearanceID int

	PlanetID    uint64
	OnPlanet    bool
	VesselID    uint64
	OnVessel    bool

	Level int
	XP    float64
}

// expToNext is the XP threshold to advance from the astronaut's current
// level (spec.md §4.4: "level-up at 100*level XP").
func expToNext(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 100.0 * float64(level)
}

// GainXP adds amount and rolls over any level-ups, returning how many
// levels were gained.
func (a *Astronaut) GainXP(amount float64) int {
	if amount <= 0 {
		return 0
	}
	a.XP += amount
	gained := 0
	for a.XP >= expToNext(a.Level) {
		a.XP -= expToNext(a.Level)
		a.Level++
		gained++
	}
	return gained
}

// CreateAstronaut mints a new astronaut on planetID and registers it in
// both of the agency's indexes.
func (m *Manager) CreateAstronaut(agencyID, planetID uint64, name string) *Astronaut {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return nil
	}
	astro := &Astronaut{ID32: idgen.NewAstronautID(), Name: name, Level: 1, PlanetID: planetID, OnPlanet: true}
	a.Astronauts[astro.ID32] = astro
	if a.PlanetAstronauts[planetID] == nil {
		a.PlanetAstronauts[planetID] = make(map[uint32]bool)
	}
	a.PlanetAstronauts[planetID][astro.ID32] = true
	return astro
}

// EnsureMinAstronauts tops a planet up to minCount astronauts for the
// agency, spawning sequentially-named ones as needed (spec.md §4.5).
func (m *Manager) EnsureMinAstronauts(agencyID, planetID uint64, minCount int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return 0
	}
	return a.ensureMinAstronautsLocked(planetID, minCount)
}

func (a *Agency) ensureMinAstronautsLocked(planetID uint64, minCount int) int {
	have := len(a.PlanetAstronauts[planetID])
	spawned := 0
	for have < minCount {
		seq := a.astroSeq
		a.astroSeq++
		astro := &Astronaut{ID32: idgen.NewAstronautID(), Name: namedAstronaut(seq), Level: 1, PlanetID: planetID, OnPlanet: true}
		a.Astronauts[astro.ID32] = astro
		if a.PlanetAstronauts[planetID] == nil {
			a.PlanetAstronauts[planetID] = make(map[uint32]bool)
		}
		a.PlanetAstronauts[planetID][astro.ID32] = true
		have++
		spawned++
	}
	return spawned
}

func namedAstronaut(seq uint32) string {
	return "Astronaut " + strconv.FormatUint(uint64(seq), 10)
}

// MoveAstronautToVessel seats an astronaut from its current planet onto a
// landed vessel with a free seat (spec.md §4.5 "Moves ... gated by
// landing state and seat capacity").
func (m *Manager) MoveAstronautToVessel(agencyID uint64, astroID uint32, v *vessel.Vessel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return apierr.Reject(apierr.ReasonNotMember, "unknown agency %d", agencyID)
	}
	astro := a.Astronauts[astroID]
	if astro == nil {
		return apierr.Reject(apierr.ReasonNotFound, "astronaut %d not found", astroID)
	}
	if !v.Landed {
		return apierr.Reject(apierr.ReasonNotLanded, "vessel %d is not landed", v.ID)
	}
	if !astro.OnPlanet || astro.PlanetID != v.HomeBodyID {
		return apierr.Reject(apierr.ReasonNotFound, "astronaut %d is not on the landing body", astroID)
	}
	if len(v.OnboardAstronauts) >= v.SeatCount {
		return apierr.Reject(apierr.ReasonSeatsFull, "vessel %d has no free seats", v.ID)
	}

	if set := a.PlanetAstronauts[astro.PlanetID]; set != nil {
		delete(set, astroID)
	}
	astro.OnPlanet = false
	astro.OnVessel = true
	astro.VesselID = v.ID
	v.OnboardAstronauts = append(v.OnboardAstronauts, astroID)
	return nil
}

// MoveAstronautToPlanet disembarks an astronaut from a landed vessel back
// onto its landing body.
func (m *Manager) MoveAstronautToPlanet(agencyID uint64, astroID uint32, v *vessel.Vessel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return apierr.Reject(apierr.ReasonNotMember, "unknown agency %d", agencyID)
	}
	astro := a.Astronauts[astroID]
	if astro == nil || !astro.OnVessel || astro.VesselID != v.ID {
		return apierr.Reject(apierr.ReasonNotFound, "astronaut %d is not aboard vessel %d", astroID, v.ID)
	}
	if !v.Landed {
		return apierr.Reject(apierr.ReasonNotLanded, "vessel %d is not landed", v.ID)
	}

	for i, id := range v.OnboardAstronauts {
		if id == astroID {
			v.OnboardAstronauts = append(v.OnboardAstronauts[:i], v.OnboardAstronauts[i+1:]...)
			break
		}
	}
	astro.OnVessel = false
	astro.VesselID = 0
	astro.OnPlanet = true
	astro.PlanetID = v.HomeBodyID
	if a.PlanetAstronauts[v.HomeBodyID] == nil {
		a.PlanetAstronauts[v.HomeBodyID] = make(map[uint32]bool)
	}
	a.PlanetAstronauts[v.HomeBodyID][astroID] = true
	return nil
}

// TrainAstronauts implements vessel.AgencyView: gains xpPerSec*realDtSec
// XP for each listed astronaut.
func (m *Manager) TrainAstronauts(agencyID uint64, ids []uint32, xpPerSec, realDtSec float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return
	}
	for _, id := range ids {
		if astro := a.Astronauts[id]; astro != nil {
			astro.GainXP(xpPerSec * realDtSec)
		}
	}
}

// AwardXP implements vessel.AgencyView: grants a flat XP bonus (e.g. the
// moon-landing trip bonus) to each listed astronaut.
func (m *Manager) AwardXP(agencyID uint64, ids []uint32, xp float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return
	}
	for _, id := range ids {
		if astro := a.Astronauts[id]; astro != nil {
			astro.GainXP(xp)
		}
	}
}

// SumAstronautLevels implements vessel.AgencyView, used by crewed payload
// income (spec.md §4.4: "Income = 10 * sum(levels)").
func (m *Manager) SumAstronautLevels(agencyID uint64, ids []uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.agencies[agencyID]
	if a == nil {
		return 0
	}
	total := 0
	for _, id := range ids {
		if astro := a.Astronauts[id]; astro != nil {
			total += astro.Level
		}
	}
	return total
}
