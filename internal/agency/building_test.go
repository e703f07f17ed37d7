package agency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/vessel"
)

func newTestCatalog() *catalog.Catalog {
	cat := &catalog.Catalog{
		Tuning:    catalog.Tuning{GlobalCashMultiplier: 1, TickRateHz: 60, SimRateSecPerSec: 1, AutosaveIntervalSec: 60},
		Buildings: map[string]*catalog.Building{},
	}
	cat.Buildings[buildingTypeRefuelingStation] = &catalog.Building{Type: buildingTypeRefuelingStation, BaseIncome: 0}
	cat.Buildings[buildingTypeMiningRig] = &catalog.Building{Type: buildingTypeMiningRig, BaseIncome: 0}
	cat.Buildings[buildingTypeEarthHQ] = &catalog.Building{Type: buildingTypeEarthHQ, BaseIncome: 5}
	return cat
}

func TestTickBuildings_RefuelingStationTopsUpLandedVessel(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(cat)
	a := m.CreateAgency("Ares Collective", true)

	const planetID = uint64(7)
	a.Buildings[planetID] = []*Building{{Type: buildingTypeRefuelingStation, PlanetID: planetID, Level: 2, Constructed: true}}

	v := &vessel.Vessel{
		ID: 1, AgencyID: a.ID, Landed: true, LastLandedBodyID: planetID, CurrentStage: 0,
		StageFuel: map[int]float64{0: 40}, StageFuelCap: map[int]float64{0: 100},
	}
	a.Vessels[v.ID] = v

	// level 2, 1 second: 10 * 2 * 1 = 20 units added.
	m.TickBuildings(a.ID, 1.0, nil)
	assert.InDelta(t, 60, v.StageFuel[0], 1e-9)

	// a second tick clamps at capacity instead of overshooting.
	m.TickBuildings(a.ID, 3.0, nil)
	assert.InDelta(t, 100, v.StageFuel[0], 1e-9)
}

func TestTickBuildings_RefuelingStationIgnoresVesselsElsewhere(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(cat)
	a := m.CreateAgency("Ares Collective", true)

	const planetID = uint64(7)
	a.Buildings[planetID] = []*Building{{Type: buildingTypeRefuelingStation, PlanetID: planetID, Level: 1, Constructed: true}}

	landedElsewhere := &vessel.Vessel{
		ID: 2, AgencyID: a.ID, Landed: true, LastLandedBodyID: 99, CurrentStage: 0,
		StageFuel: map[int]float64{0: 10}, StageFuelCap: map[int]float64{0: 100},
	}
	inFlight := &vessel.Vessel{
		ID: 3, AgencyID: a.ID, Landed: false, LastLandedBodyID: planetID, CurrentStage: 0,
		StageFuel: map[int]float64{0: 10}, StageFuelCap: map[int]float64{0: 100},
	}
	a.Vessels[landedElsewhere.ID] = landedElsewhere
	a.Vessels[inFlight.ID] = inFlight

	m.TickBuildings(a.ID, 1.0, nil)

	assert.InDelta(t, 10, landedElsewhere.StageFuel[0], 1e-9)
	assert.InDelta(t, 10, inFlight.StageFuel[0], 1e-9)
}

func TestTickBuildings_UnconstructedBuildingHasNoEffect(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(cat)
	a := m.CreateAgency("Ares Collective", true)

	const planetID = uint64(7)
	a.Buildings[planetID] = []*Building{{Type: buildingTypeRefuelingStation, PlanetID: planetID, Level: 5, Constructed: false}}

	v := &vessel.Vessel{
		ID: 1, AgencyID: a.ID, Landed: true, LastLandedBodyID: planetID, CurrentStage: 0,
		StageFuel: map[int]float64{0: 40}, StageFuelCap: map[int]float64{0: 100},
	}
	a.Vessels[v.ID] = v

	m.TickBuildings(a.ID, 1.0, nil)
	assert.InDelta(t, 40, v.StageFuel[0], 1e-9, "an un-constructed building must not produce any effect")
}

func TestTickBuildings_EarthHQEnsuresMinimumAstronauts(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(cat)
	a := m.CreateAgency("Ares Collective", true)

	const planetID = uint64(3)
	a.Buildings[planetID] = []*Building{{Type: buildingTypeEarthHQ, PlanetID: planetID, Level: 1, Constructed: true}}

	m.TickBuildings(a.ID, 1.0, nil)

	require.Len(t, a.PlanetAstronauts[planetID], earthHQMinAstronauts)
}

func TestGenerateIncome_DistributesFloorDivisionAcrossMembers(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(cat)
	a := m.CreateAgency("Ares Collective", true)
	m.AddMember(a.ID, 100)
	m.AddMember(a.ID, 200)
	m.RegisterPlayer(100)
	m.RegisterPlayer(200)

	a.Buildings[1] = []*Building{{Type: buildingTypeEarthHQ, PlanetID: 1, Level: 1, Constructed: true}}

	total := m.GenerateIncome(a.ID)
	assert.Equal(t, 4, total, "base income 5 floor-divided across 2 members distributes 2 each, 4 total")
	assert.Equal(t, 2, m.PlayerMoney(100))
	assert.Equal(t, 2, m.PlayerMoney(200))
}
