package vessel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMass_IsDryPlusFuelUpToCurrentStage(t *testing.T) {
	v := &Vessel{
		DryMass:      1000,
		CurrentStage: 1,
		StageFuel:    map[int]float64{0: 50, 1: 30, 2: 999},
	}
	assert.InDelta(t, 1080, v.Mass(), 1e-9, "fuel in stages beyond current_stage must not count")
}

func TestDrawFuel_ClampsToAvailableAndOnlyTouchesCurrentStage(t *testing.T) {
	v := &Vessel{CurrentStage: 1, StageFuel: map[int]float64{0: 100, 1: 10}}

	got := v.DrawFuel(25)
	assert.InDelta(t, 10, got, 1e-9, "draw is clamped to what the current stage actually holds")
	assert.InDelta(t, 0, v.StageFuel[1], 1e-9)
	assert.InDelta(t, 100, v.StageFuel[0], 1e-9, "stage 0 is untouched by a stage-1 draw")
}

func TestDrawCharge_SpendsCurrentStageDownward(t *testing.T) {
	v := &Vessel{
		CurrentStage: 2,
		StageCharge:  map[int]float64{0: 10, 1: 10, 2: 5},
	}

	frac := v.DrawCharge(12)
	assert.InDelta(t, 1.0, frac, 1e-9, "full amount was available across stages 0-2")
	assert.InDelta(t, 0, v.StageCharge[2], 1e-9)
	assert.InDelta(t, 3, v.StageCharge[1], 1e-9, "shortfall after draining stage 2 comes out of stage 1")
	assert.InDelta(t, 10, v.StageCharge[0], 1e-9)
}

func TestDrawCharge_PartialWhenPoolExhausted(t *testing.T) {
	v := &Vessel{CurrentStage: 0, StageCharge: map[int]float64{0: 4}}

	frac := v.DrawCharge(10)
	assert.InDelta(t, 0.4, frac, 1e-9)
	assert.InDelta(t, 0, v.StageCharge[0], 1e-9)
}

func TestChargeFraction_ZeroCapacityIsZeroNotNaN(t *testing.T) {
	v := &Vessel{CurrentStage: 0, StageCharge: map[int]float64{}, StageChargeCap: map[int]float64{}}
	assert.Equal(t, 0.0, v.ChargeFraction())
}

func TestChargeFraction_SumsAcrossStagesUpToCurrent(t *testing.T) {
	v := &Vessel{
		CurrentStage:   1,
		StageCharge:    map[int]float64{0: 5, 1: 5, 2: 100},
		StageChargeCap: map[int]float64{0: 10, 1: 10, 2: 100},
	}
	assert.InDelta(t, 0.5, v.ChargeFraction(), 1e-9, "stage 2 is beyond current_stage and must not count")
}

func TestAddCargo_ClampsToCapacityAndDropsOverflow(t *testing.T) {
	v := &Vessel{CargoCapacity: 10, Cargo: map[string]int{"iron": 8}}

	added := v.AddCargo("ice", 5)
	assert.Equal(t, 2, added, "only 2 units of room remained")
	assert.Equal(t, 2, v.Cargo["ice"])

	addedWhenFull := v.AddCargo("ice", 1)
	assert.Equal(t, 0, addedWhenFull)
}

func TestTrimCargoLargestFirst_TrimsBiggestStackUntilWithinCapacity(t *testing.T) {
	v := &Vessel{
		CargoCapacity: 5,
		Cargo:         map[string]int{"iron": 6, "ice": 2},
	}
	v.TrimCargoLargestFirst()

	assert.LessOrEqual(t, v.CargoTotal(), v.CargoCapacity)
	assert.Equal(t, 3, v.Cargo["iron"], "the larger stack absorbs the full 3-unit trim")
	assert.Equal(t, 2, v.Cargo["ice"])
}

func TestTrimCargoLargestFirst_NoOpWhenAlreadyWithinCapacity(t *testing.T) {
	v := &Vessel{CargoCapacity: 10, Cargo: map[string]int{"iron": 3}}
	v.TrimCargoLargestFirst()
	assert.Equal(t, 3, v.Cargo["iron"])
}

type stubAgency struct {
	credited map[uint64]float64
}

func (s *stubAgency) CreditIncome(agencyID uint64, amount float64) {
	if s.credited == nil {
		s.credited = map[uint64]float64{}
	}
	s.credited[agencyID] += amount
}
func (s *stubAgency) GlobalCashMultiplier() float64                       { return 1 }
func (s *stubAgency) PlanetIncomeMultiplier(agencyID, planetID uint64) float64 { return 1 }
func (s *stubAgency) AddDiscovery(agencyID, planetID uint64) bool         { return false }
func (s *stubAgency) UpgradeTier(agencyID uint64, system string) int      { return 0 }
func (s *stubAgency) FriendlyDeployedPayloads(agencyID uint64, chunkKey [2]int, kind string) []PayloadLocation {
	return nil
}
func (s *stubAgency) TrainAstronauts(agencyID uint64, ids []uint32, xpPerSec, realDtSec float64) {}
func (s *stubAgency) AwardXP(agencyID uint64, ids []uint32, xp float64)                          {}
func (s *stubAgency) SumAstronautLevels(agencyID uint64, ids []uint32) int                       { return 0 }
func (s *stubAgency) ConstructBuildingOnLand(agencyID, bodyID uint64, planetName, buildingType string, longitude float64) bool {
	return false
}

func TestCreditIncome_CarriesFractionalRemainderAcrossCalls(t *testing.T) {
	agency := &stubAgency{}
	v := &Vessel{AgencyID: 1, Agency: agency}

	v.CreditIncome(0.6)
	assert.InDelta(t, 0, v.LifetimeRevenue, 1e-9, "0.6 alone never reaches a whole unit")
	assert.Zero(t, agency.credited[1])

	v.CreditIncome(0.6)
	assert.InDelta(t, 1, v.LifetimeRevenue, 1e-9, "0.6 + 0.6 crosses one whole unit")
	assert.InDelta(t, 1, agency.credited[1], 1e-9)
	assert.InDelta(t, 0.2, v.revenueFractionalCarry, 1e-9)
}

func TestCreditIncome_ZeroAmountCreditsNothing(t *testing.T) {
	agency := &stubAgency{}
	v := &Vessel{AgencyID: 1, Agency: agency}
	v.CreditIncome(0)
	assert.Zero(t, v.LifetimeRevenue)
	assert.Zero(t, agency.credited[1])
}

func TestHasUpgrade_ScopedToCurrentPayloadKind(t *testing.T) {
	v := &Vessel{
		PayloadKind: "probe",
		UnlockedUpgrades: map[string]map[string]bool{
			"probe": {"zoom_lens": true},
			"rover": {"zoom_lens": true},
		},
	}
	assert.True(t, v.HasUpgrade("zoom_lens"))

	v.PayloadKind = "satellite"
	assert.False(t, v.HasUpgrade("zoom_lens"), "a kind with no unlocked set reports nothing unlocked")
}

func TestDeploymentReady_RequiresLandingOrAltitude(t *testing.T) {
	v := &Vessel{Landed: false, Altitude: 50}

	assert.False(t, v.DeploymentReady(true, 100), "payload requires landing but the vessel is airborne")

	v.Landed = true
	assert.True(t, v.DeploymentReady(true, 100))

	assert.False(t, v.DeploymentReady(false, 100), "altitude 50 has not cleared an atmosphere of 100")
	v.Altitude = 150
	assert.True(t, v.DeploymentReady(false, 100))
}

func TestSetChunkKey_UpdatesGalaxyAndSystemCoord(t *testing.T) {
	v := &Vessel{}
	v.SetChunkKey(3, 7)
	assert.Equal(t, 3, v.Galaxy)
	assert.Equal(t, 7, v.SystemCoord)
}
