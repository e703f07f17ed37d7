package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/galaxyserver/internal/agency"
	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/vessel"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cat := &catalog.Catalog{Tuning: catalog.Tuning{TickRateHz: 60, SimRateSecPerSec: 1, AutosaveIntervalSec: 60}}
	agencyMgr := agency.NewManager(cat)
	s, err := New(t.TempDir(), agencyMgr, cat)
	require.NoError(t, err)
	return s
}

func TestSaveLoadChunk_RoundTripsBodiesAndVessel(t *testing.T) {
	s := newTestStore(t)
	a := s.Agency.CreateAgency("Ares Collective", true)

	c := world.NewChunk(1, 2, "", world.ChunkSystem)
	c.Add(&world.Sun{Body: world.Body{ID: 10, Name: "Sol", MassKg: 1e30, RadiusKm: 700000}})
	c.Add(&world.Planet{Body: world.Body{
		ID: 11, Name: "Terra", MassKg: 5.9e24, RadiusKm: 6371,
		ParentID: 10, OrbitRadius: 1.5e8, ResourceYield: map[string]float64{"iron": 0.6, "ice": 0.4},
	}})
	v := &vessel.Vessel{
		ID: 20, Name: "Odyssey", AgencyID: a.ID, HomeBodyID: 11,
		Position: world.Vec2{X: 1, Y: 2}, Velocity: world.Vec2{X: 0.1, Y: -0.2},
		StageFuel: map[int]float64{0: 80}, StageFuelCap: map[int]float64{0: 100},
		NumStages: 1, DryMass: 1200, Landed: true, LastLandedBodyID: 11,
	}
	c.Add(v)

	require.NoError(t, s.SaveChunk(c))

	loaded, err := s.LoadChunk(1, 2, world.ChunkSystem)
	require.NoError(t, err)

	require.Equal(t, 1, loaded.Galaxy)
	require.Equal(t, 2, loaded.System)

	sunObj, ok := loaded.Lookup(10)
	require.True(t, ok)
	sun, ok := sunObj.(*world.Sun)
	require.True(t, ok)
	assert.Equal(t, "Sol", sun.Name)
	assert.InDelta(t, 1e30, sun.MassKg, 1)

	planetObj, ok := loaded.Lookup(11)
	require.True(t, ok)
	planet, ok := planetObj.(*world.Planet)
	require.True(t, ok)
	assert.Equal(t, uint64(10), planet.ParentID)
	assert.InDelta(t, 0.6, planet.ResourceYield["iron"], 1e-9)

	vesselObj, ok := loaded.Lookup(20)
	require.True(t, ok)
	loadedVessel, ok := vesselObj.(*vessel.Vessel)
	require.True(t, ok)
	assert.Equal(t, "Odyssey", loadedVessel.Name)
	assert.Equal(t, a.ID, loadedVessel.AgencyID)
	assert.InDelta(t, 80, loadedVessel.StageFuel[0], 1e-9)
	assert.True(t, loadedVessel.Landed)
	assert.Equal(t, uint64(11), loadedVessel.LastLandedBodyID)

	// LoadChunk re-registers the vessel with its owning agency (so a
	// reload doesn't silently orphan it from the agency's live set).
	assert.Same(t, loadedVessel, a.Vessels[20])
}

func TestLoadChunk_MissingFileReturnsEmptyChunk(t *testing.T) {
	s := newTestStore(t)

	c, err := s.LoadChunk(9, 9, world.ChunkSystem)
	require.NoError(t, err)
	assert.Equal(t, 9, c.Galaxy)
	assert.Empty(t, c.Objects())
}

func TestSaveLoadMeta_RoundTripsAgencySnapshot(t *testing.T) {
	s := newTestStore(t)
	a := s.Agency.CreateAgency("Ares Collective", true)
	s.Agency.AddMember(a.ID, 42)
	p := s.Agency.RegisterPlayer(42)
	p.Money = 500

	require.NoError(t, s.SaveMeta())

	cat := &catalog.Catalog{Tuning: catalog.Tuning{TickRateHz: 60, SimRateSecPerSec: 1, AutosaveIntervalSec: 60}}
	reloaded := agency.NewManager(cat)
	s2 := &Store{Dir: s.Dir, Agency: reloaded, Catalog: cat}
	require.NoError(t, s2.LoadMeta())

	restoredAgency := reloaded.Agency(a.ID)
	require.NotNil(t, restoredAgency)
	assert.Equal(t, "Ares Collective", restoredAgency.Name)
	assert.Equal(t, 500, reloaded.PlayerMoney(42))
}
