package payload

import (
	"math"
	"math/rand/v2"

	"github.com/everforgeworks/galaxyserver/internal/vessel"
)

func init() {
	vessel.RegisterPayloadFactory("rover", func() vessel.PayloadBehavior { return &Rover{} })
}

const (
	roverRollIntervalSec = 10.0
	roverRollOutOf       = 2000
	roverRollHits        = 2
)

// Rover mines while landed: once per roverRollIntervalSec it rolls a
// resource from the home body's yield weights and, on a hit, adds one
// unit to cargo. Rotational control is resolved on the same cadence.
// Unlike the source this is modeled on, all of the rover's landed motion
// (roll and rotation alike) lives inside the once-per-interval guard, not
// split across it.
type Rover struct {
	accumSec float64
}

func (r *Rover) OnAttach(v *vessel.Vessel) {
	if v.Cargo == nil {
		v.Cargo = map[string]int{}
	}
}
func (r *Rover) OnDetach(v *vessel.Vessel) {}

func (r *Rover) OnTick(v *vessel.Vessel, realDtSec float64) {
	if !v.Landed {
		r.accumSec = 0
		return
	}
	r.accumSec += realDtSec
	if r.accumSec < roverRollIntervalSec {
		return
	}
	r.accumSec -= roverRollIntervalSec

	r.rotate(v)
	r.mine(v)
}

func (r *Rover) rotate(v *vessel.Vessel) {
	_, kmPerSec := v.PayloadAttr()
	radiusKm := 1000.0
	if v.HomeBodySnapshot != nil && v.HomeBodySnapshot.RadiusKm > 0 {
		radiusKm = v.HomeBodySnapshot.RadiusKm
	}
	circumferenceKm := 2 * math.Pi * radiusKm
	degPerSec := (kmPerSec * 0.1 / circumferenceKm) * 360.0

	direction := 0.0
	if v.Control.CCW {
		direction += 1
	}
	if v.Control.CW {
		direction -= 1
	}
	v.RotationDeg = math.Mod(v.RotationDeg+degPerSec*direction*roverRollIntervalSec, 360)
	if v.RotationDeg < 0 {
		v.RotationDeg += 360
	}
}

func (r *Rover) mine(v *vessel.Vessel) {
	yield := v.HomeResourceYield
	if len(yield) == 0 {
		return
	}
	if rand.IntN(roverRollOutOf) >= roverRollHits {
		return
	}

	resourceID := weightedChoice(yield)
	if resourceID == "" {
		return
	}
	if v.AddCargo(resourceID, 1) > 0 && v.InstrumentPush != nil {
		v.InstrumentPush(v, 0)
	}
}

// weightedChoice picks a key from weights proportional to its value.
// It sums a running total while ranging over the map; Go map iteration
// order varies between calls, so the key a given random float maps to
// is not fixed.
func weightedChoice(weights map[string]float64) string {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return ""
	}
	roll := rand.Float64() * total
	acc := 0.0
	for id, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if roll <= acc {
			return id
		}
	}
	return ""
}
