package vessel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/galaxyserver/internal/apierr"
	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

type stubLedger struct {
	money     map[uint64]int
	inventory map[uint64]map[string]int
}

func (l *stubLedger) PlayerMoney(playerID uint64) int { return l.money[playerID] }
func (l *stubLedger) DeductPlayerMoney(playerID uint64, amount int) bool {
	if l.money[playerID] < amount {
		return false
	}
	l.money[playerID] -= amount
	return true
}
func (l *stubLedger) BaseInventory(bodyID uint64) map[string]int { return l.inventory[bodyID] }
func (l *stubLedger) DeductBaseResources(bodyID uint64, need map[string]int) bool {
	inv := l.inventory[bodyID]
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

type stubIDs struct{ n uint64 }

func (s *stubIDs) Next() uint64 { s.n++; return s.n }

func basicCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Components: map[string]*catalog.Component{
			"probe": {ID: "probe", IsPayload: true, Mass: 50, MoneyCost: 100, PayloadKind: ""},
			"tank":  {ID: "tank", Mass: 200, FuelCapacity: 500, MoneyCost: 50, ResourceCost: map[string]int{"iron": 2}},
			"engine": {
				ID: "engine", Mass: 300, ForwardThrustKN: 80, MoneyCost: 150, ElectricCap: 10,
			},
		},
	}
}

func TestConstruct_DeductsMoneyAndResourcesAndBuildsVessel(t *testing.T) {
	cat := basicCatalog()
	ledger := &stubLedger{
		money:     map[uint64]int{1: 1000},
		inventory: map[uint64]map[string]int{7: {"iron": 5}},
	}
	ids := &stubIDs{}

	req := ConstructionRequest{
		Placements: []Placement{
			{ComponentID: "probe"}, {ComponentID: "tank"}, {ComponentID: "engine"},
		},
		Connections:       []Connection{{A: 0, B: 1}, {A: 1, B: 2}},
		BaseBodyID:        7,
		RequesterPlayerID: 1,
		AgencyID:          9,
		Name:              "Odyssey",
	}

	v, err := Construct(cat, ledger, ids, req, world.Vec2{X: 1, Y: 2}, world.Vec2{})
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, 700, ledger.PlayerMoney(1), "100+50+150 deducted from 1000")
	assert.Equal(t, 3, ledger.inventory[7]["iron"], "2 of 5 iron consumed by the tank")
	assert.Equal(t, uint64(9), v.AgencyID)
	assert.True(t, v.Landed)
	assert.Equal(t, uint64(7), v.HomeBodyID)
	assert.InDelta(t, 550, v.DryMass, 1e-9, "50+200+300")
	assert.Len(t, v.Components, 3)
}

func TestConstruct_InsufficientFundsRejectsWithoutMutatingLedger(t *testing.T) {
	cat := basicCatalog()
	ledger := &stubLedger{
		money:     map[uint64]int{1: 10},
		inventory: map[uint64]map[string]int{7: {"iron": 5}},
	}
	ids := &stubIDs{}

	req := ConstructionRequest{
		Placements:        []Placement{{ComponentID: "probe"}, {ComponentID: "tank"}},
		Connections:       []Connection{{A: 0, B: 1}},
		BaseBodyID:        7,
		RequesterPlayerID: 1,
	}

	v, err := Construct(cat, ledger, ids, req, world.Vec2{}, world.Vec2{})
	assert.Nil(t, v)
	require.Error(t, err)
	rej, ok := err.(*apierr.Rejection)
	require.True(t, ok)
	assert.Equal(t, apierr.ReasonInsufficientFunds, rej.Reason)
	assert.Equal(t, 10, ledger.PlayerMoney(1), "a rejected request must not touch the ledger")
}

func TestConstruct_InsufficientResourceRejects(t *testing.T) {
	cat := basicCatalog()
	ledger := &stubLedger{
		money:     map[uint64]int{1: 1000},
		inventory: map[uint64]map[string]int{7: {"iron": 1}},
	}
	ids := &stubIDs{}

	req := ConstructionRequest{
		Placements:        []Placement{{ComponentID: "probe"}, {ComponentID: "tank"}},
		Connections:       []Connection{{A: 0, B: 1}},
		BaseBodyID:        7,
		RequesterPlayerID: 1,
	}

	_, err := Construct(cat, ledger, ids, req, world.Vec2{}, world.Vec2{})
	require.Error(t, err)
	rej, ok := err.(*apierr.Rejection)
	require.True(t, ok)
	assert.Equal(t, apierr.ReasonInsufficientResource, rej.Reason)
	assert.Equal(t, 1000, ledger.PlayerMoney(1), "money must not be deducted when the resource check fails")
}

func TestRecomputeStats_OnlyCountsComponentsAtCurrentStage(t *testing.T) {
	cat := basicCatalog()
	v := &Vessel{
		CurrentStage: 0,
		Components: []AttachedComponent{
			{ComponentID: "engine", Stage: 0},
			{ComponentID: "tank", Stage: 1},
		},
	}
	v.RecomputeStats(cat)
	assert.InDelta(t, 80, v.ForwardThrustKN, 1e-9, "only the stage-0 engine counts")
	assert.Equal(t, 120.0, v.ThermalResistanceSec, "defaults to 120 when no component declares a resistance")
}
