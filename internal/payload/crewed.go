package payload

import "github.com/everforgeworks/galaxyserver/internal/vessel"

func init() {
	f := func() vessel.PayloadBehavior { return &Crewed{} }
	vessel.RegisterPayloadFactory("lunar_lander", f)
	vessel.RegisterPayloadFactory("space_shuttle", f)
}

const moonTripXP = 200.0

// Crewed implements the lunar lander and space shuttle payloads: both
// train onboard astronauts and pay income by their summed level, award a
// trip-completion XP bonus on moon landings, and auto-construct a
// component's build-on-land directive the first time it lands.
type Crewed struct {
	built bool
}

func (c *Crewed) OnAttach(v *vessel.Vessel) {}
func (c *Crewed) OnDetach(v *vessel.Vessel) {}

func (c *Crewed) OnTick(v *vessel.Vessel, realDtSec float64) {
	if len(v.OnboardAstronauts) == 0 || v.Agency == nil {
		return
	}
	xpRate, _ := v.PayloadAttr()
	v.Agency.TrainAstronauts(v.AgencyID, v.OnboardAstronauts, xpRate, realDtSec)

	totalLevels := v.Agency.SumAstronautLevels(v.AgencyID, v.OnboardAstronauts)
	if totalLevels > 0 {
		v.CreditIncome(10.0 * float64(totalLevels) * realDtSec)
	}
}

func (c *Crewed) OnLand(v *vessel.Vessel, bodyID, prevBodyID uint64) {
	c.maybeBuildOnLand(v)

	isMoon := v.HomeBodySnapshot != nil && v.HomeBodySnapshot.ID == bodyID && v.HomeBodySnapshot.IsMoon
	if isMoon && bodyID != 0 && prevBodyID != bodyID && v.Agency != nil {
		v.Agency.AwardXP(v.AgencyID, v.OnboardAstronauts, moonTripXP)
	}
}

func (c *Crewed) OnUnland(v *vessel.Vessel, bodyID uint64) {}

// maybeBuildOnLand fires at most once per vessel (spec.md §4.4).
func (c *Crewed) maybeBuildOnLand(v *vessel.Vessel) {
	if c.built || v.Agency == nil {
		return
	}
	planetName, buildingType, ok := v.ComponentBuildOnLand()
	if !ok || v.HomeBodySnapshot == nil || v.HomeBodySnapshot.Name != planetName {
		return
	}
	if v.Agency.ConstructBuildingOnLand(v.AgencyID, v.HomeBodyID, planetName, buildingType, v.RotationDeg) {
		c.built = true
	}
}
