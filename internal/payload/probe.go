package payload

import (
	"math"

	"github.com/everforgeworks/galaxyserver/internal/vessel"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

func init() {
	vessel.RegisterPayloadFactory("probe", func() vessel.PayloadBehavior { return &Probe{} })
}

const (
	flybyBaseMult = 4.0
	flyby1Mult    = 6.0
	flyby2Mult    = 10.0
	perijoveRangeMult = 4.0
	aacsPointingDeg   = 5.0
)

// Probe maintains a deduplicated visited-planet set and converts it into
// income scaled by two situational multipliers: PERIJOVE (proximity to a
// gas giant) and AACS (pointing accuracy toward the home planet).
type Probe struct{}

func (p *Probe) OnAttach(v *vessel.Vessel) {
	if v.VisitedPlanets == nil {
		v.VisitedPlanets = map[uint64]bool{}
	}
	if v.HomeBodySnapshot != nil && !v.HomeBodySnapshot.IsMoon {
		v.VisitedPlanets[v.HomeBodySnapshot.ID] = true
	}
}

func (p *Probe) OnDetach(v *vessel.Vessel) {}

func (p *Probe) visitThresholdMult(v *vessel.Vessel) float64 {
	switch {
	case v.HasUpgrade("FLYBY2"):
		return flyby2Mult
	case v.HasUpgrade("FLYBY1"):
		return flyby1Mult
	default:
		return flybyBaseMult
	}
}

func (p *Probe) OnTick(v *vessel.Vessel, realDtSec float64) {
	if v.VisitedPlanets == nil {
		v.VisitedPlanets = map[uint64]bool{}
	}

	src := v.StrongestSourceSnapshot
	if src != nil && !src.IsMoon {
		dist := src.Position.Sub(v.Position).Len()
		if dist <= p.visitThresholdMult(v)*src.RadiusKm {
			v.VisitedPlanets[src.ID] = true
		}
	}

	// Discoverable bodies, including moons, register on close approach
	// regardless of the visited-planet accounting above.
	for _, body := range v.NearbyBodies {
		if body.Position.Sub(v.Position).Len() <= flybyBaseMult*body.RadiusKm && v.Agency != nil {
			v.Agency.AddDiscovery(v.AgencyID, body.ID)
		}
	}

	situational := 1.0
	if v.HasUpgrade("PERIJOVE") && src != nil && src.IsGasGiant {
		if src.Position.Sub(v.Position).Len() <= perijoveRangeMult*src.RadiusKm {
			situational *= 1.3
		}
	}
	if v.HasUpgrade("AACS") && v.HomeBodySnapshot != nil {
		bearing := v.HomeBodySnapshot.Position.Sub(v.Position).Bearing()
		if math.Abs(world.AngleDelta(bearing, v.RotationDeg)) <= aacsPointingDeg {
			situational *= 1.4
		}
	}

	rate := v.PayloadBaseIncome() * float64(len(v.VisitedPlanets)) * situational
	if v.Agency != nil {
		rate *= v.Agency.GlobalCashMultiplier()
		rate *= v.Agency.PlanetIncomeMultiplier(v.AgencyID, v.HomeBodyID)
	}
	v.CreditIncome(rate * realDtSec)
}

func (p *Probe) OnLand(v *vessel.Vessel, bodyID, prevBodyID uint64) {}
func (p *Probe) OnUnland(v *vessel.Vessel, bodyID uint64)           {}
