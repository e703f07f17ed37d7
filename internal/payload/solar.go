package payload

import (
	"math"

	"github.com/everforgeworks/galaxyserver/internal/vessel"
)

func init() {
	vessel.RegisterPayloadFactory("solar_orbiter", func() vessel.PayloadBehavior { return &SolarOrbiter{} })
}

const (
	solarNearBranchAU  = 0.5
	solarNearCurvature = 5.0 // per AU, sun surface -> 0.5 AU
	solarFarDecayRate  = 2.0 // per AU, 0.5 AU -> 0
	solarMultMax       = 20.0
	sunRadiusKm        = 696_340.0
)

// SolarOrbiter's income multiplier is a piecewise exponential of
// distance to the origin: a steep near-branch mapping the sun's surface
// to 20x and 0.5 AU to exactly 1x, then a shallow exponential decay
// toward 0 further out. Clamped to [0, 20].
type SolarOrbiter struct{}

func (s *SolarOrbiter) OnAttach(v *vessel.Vessel) {}
func (s *SolarOrbiter) OnDetach(v *vessel.Vessel) {}

func distanceMultiplier(distAU float64) float64 {
	sunRadiusAU := math.Max(1e-9, sunRadiusKm/auKm)
	r := math.Max(distAU, sunRadiusAU)

	var mult float64
	if r <= solarNearBranchAU {
		k := solarNearCurvature
		num := math.Exp(-k*(r-sunRadiusAU)) - math.Exp(-k*(solarNearBranchAU-sunRadiusAU))
		den := 1.0 - math.Exp(-k*(solarNearBranchAU-sunRadiusAU))
		mult = 1.0 + 19.0*(num/math.Max(1e-12, den))
	} else {
		mult = math.Exp(-solarFarDecayRate * (r - solarNearBranchAU))
	}
	return math.Max(0, math.Min(solarMultMax, mult))
}

func (s *SolarOrbiter) OnTick(v *vessel.Vessel, realDtSec float64) {
	distAU := v.Position.Len() / auKm
	mult := distanceMultiplier(distAU)

	rate := v.PayloadBaseIncome() * mult
	if v.Agency != nil {
		rate *= v.Agency.GlobalCashMultiplier()
		rate *= v.Agency.PlanetIncomeMultiplier(v.AgencyID, v.HomeBodyID)
	}
	v.CreditIncome(rate * realDtSec)
}

func (s *SolarOrbiter) OnLand(v *vessel.Vessel, bodyID, prevBodyID uint64) {}
func (s *SolarOrbiter) OnUnland(v *vessel.Vessel, bodyID uint64)           {}
