// Package payload implements the six payload-behavior strategies
// (spec.md §4.4) that plug into internal/vessel via
// vessel.RegisterPayloadFactory. Each behavior converts ambient vessel
// state into income credit and, where relevant, agency discovery or
// training side effects; none of them read world state directly
// (internal/world is used only for its AngleDelta helper) —
// everything they read comes off the vessel's per-tick environment
// snapshots.
package payload

import "github.com/everforgeworks/galaxyserver/internal/vessel"

func init() {
	vessel.RegisterPayloadFactory("comms_satellite", func() vessel.PayloadBehavior { return &CommsSatellite{} })
}

// pingRangeKm maps an unlocked PING tier to its friendly-payload search
// radius (spec.md §4.4).
const (
	ping1RangeKm = 3000.0
	ping2RangeKm = 5000.0
)

// CommsSatellite relays income scaled by the owning agency's global cash
// multiplier and the vessel's current planet multiplier, plus a PING-tier
// bonus summing the base income of nearby friendly deployed payloads.
type CommsSatellite struct{}

func (c *CommsSatellite) OnAttach(v *vessel.Vessel) {}
func (c *CommsSatellite) OnDetach(v *vessel.Vessel) {}

func (c *CommsSatellite) OnTick(v *vessel.Vessel, realDtSec float64) {
	rate := v.PayloadBaseIncome()
	if v.Agency != nil {
		rate *= v.Agency.GlobalCashMultiplier()
		rate *= v.Agency.PlanetIncomeMultiplier(v.AgencyID, v.HomeBodyID)
	}

	rangeKm := 0.0
	switch {
	case v.HasUpgrade("PING2"):
		rangeKm = ping2RangeKm
	case v.HasUpgrade("PING1"):
		rangeKm = ping1RangeKm
	}
	if rangeKm > 0 && v.Agency != nil {
		for _, loc := range v.Agency.FriendlyDeployedPayloads(v.AgencyID, [2]int{v.Galaxy, v.SystemCoord}, "") {
			if loc.VesselID == v.ID {
				continue
			}
			if loc.Pos.Sub(v.Position).Len() <= rangeKm {
				rate += loc.BaseIncome
			}
		}
	}

	v.CreditIncome(rate * realDtSec)
}

func (c *CommsSatellite) OnLand(v *vessel.Vessel, bodyID, prevBodyID uint64) {}
func (c *CommsSatellite) OnUnland(v *vessel.Vessel, bodyID uint64)           {}
