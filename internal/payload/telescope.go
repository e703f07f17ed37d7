package payload

import (
	"math"

	"github.com/everforgeworks/galaxyserver/internal/vessel"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

func init() {
	vessel.RegisterPayloadFactory("space_telescope", func() vessel.PayloadBehavior { return &SpaceTelescope{} })
}

const (
	baseFOVDeg   = 30.0
	baseRangeAU  = 2.0
	auKm         = 149_597_870.7
	rcsSlewDegPerSec = 45.0
)

// SpaceTelescope aims an RCS-steered dish toward a target angle and
// reports every non-moon planet within its sight cone to the owning
// agency's discovery set, paying a per-sight-count bonus when
// PLANET_IMAGE is unlocked.
type SpaceTelescope struct {
	lastSightCount int
	pushAccumSec   float64
}

func (t *SpaceTelescope) OnAttach(v *vessel.Vessel) {}
func (t *SpaceTelescope) OnDetach(v *vessel.Vessel) {}

func (t *SpaceTelescope) rangeAdditiveAU(v *vessel.Vessel) float64 {
	add := 0.0
	if v.HasUpgrade("EXPOSURE1") {
		add += 1.0
	}
	if v.HasUpgrade("ZOOM1") {
		add += 3.5
	}
	if v.HasUpgrade("ZOOM2") {
		add += 10.0
	}
	return add
}

func (t *SpaceTelescope) fovDeg(v *vessel.Vessel) float64 {
	fov := baseFOVDeg
	if v.HasUpgrade("FOCUS1") {
		fov += 7.0
	}
	if v.HasUpgrade("FOCUS2") {
		fov += 13.0
	}
	return fov
}

func (t *SpaceTelescope) OnTick(v *vessel.Vessel, realDtSec float64) {
	// RCS slew toward the requested aim angle, bounded rate.
	delta := world.AngleDelta(v.TelescopeTargetAngleDeg, v.RotationDeg)
	maxStep := rcsSlewDegPerSec * realDtSec
	if math.Abs(delta) <= maxStep {
		v.RotationDeg = v.TelescopeTargetAngleDeg
	} else if delta > 0 {
		v.RotationDeg += maxStep
	} else {
		v.RotationDeg -= maxStep
	}

	rangeKm := (baseRangeAU + t.rangeAdditiveAU(v)) * auKm
	fov := t.fovDeg(v)

	sight := v.TelescopeSight[:0]
	for _, p := range v.NearbyNonMoonPlanets {
		to := p.Position.Sub(v.Position)
		if to.Len() > rangeKm {
			continue
		}
		bearingDelta := world.AngleDelta(to.Bearing(), v.RotationDeg)
		if math.Abs(bearingDelta) <= fov/2 {
			sight = append(sight, p.ID)
			if v.Agency != nil {
				v.Agency.AddDiscovery(v.AgencyID, p.ID)
			}
		}
	}
	v.TelescopeSight = sight

	rate := v.PayloadBaseIncome()
	if v.Agency != nil {
		rate *= v.Agency.GlobalCashMultiplier()
		rate *= v.Agency.PlanetIncomeMultiplier(v.AgencyID, v.HomeBodyID)
	}
	if v.HasUpgrade("PLANET_IMAGE") {
		rate += 100.0 * float64(len(sight))
	}
	v.CreditIncome(rate * realDtSec)

	if v.ControlledBy != 0 && v.InstrumentPush != nil {
		t.pushAccumSec += realDtSec
		if len(sight) != t.lastSightCount || t.pushAccumSec >= 0.25 {
			t.pushAccumSec = 0
			t.lastSightCount = len(sight)
			v.InstrumentPush(v, 4)
		}
	}
}

func (t *SpaceTelescope) OnLand(v *vessel.Vessel, bodyID, prevBodyID uint64) {}
func (t *SpaceTelescope) OnUnland(v *vessel.Vessel, bodyID uint64)           {}
