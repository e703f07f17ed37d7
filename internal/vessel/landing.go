package vessel

import (
	"math"

	"github.com/everforgeworks/galaxyserver/internal/world"
)

// homeBody is the narrow copy of the body a vessel's altitude/ground
// glue math is resolved against (spec.md §4.3.4). It is a plain struct
// that resolveHomeBody fills from the home body's world.BodyInfo, which
// keeps the landing math testable without a live world.Chunk.
type homeBody struct {
	Position     world.Vec2
	Velocity     world.Vec2
	RadiusKm     float64
	AtmosphereKm float64
	RotDeg       float64
	SurfaceG     float64

	SurfaceTempC    float64
	HasSurfaceTempC bool
}

const (
	impactDestroySpeedKmS = 1.2
	takeoffGraceSec       = 0.75
	landingInitThresholdSec = 6.0
)

// advanceLandingInitiation implements spec.md §4.3 step 3: while in
// space and centered within the planet's radius, accumulate toward 6s;
// at the threshold, drop altitude just inside the atmosphere so normal
// descent logic completes the landing on the next steps this same tick.
func (v *Vessel) advanceLandingInitiation(b homeBody, dt float64) {
	if v.Landed || v.Altitude < b.AtmosphereKm {
		v.landingInitCounterSec = 0
		return
	}
	lateral := v.Position.Sub(b.Position).Len()
	if lateral > b.RadiusKm {
		v.landingInitCounterSec = 0
		return
	}
	v.landingInitCounterSec += dt
	if v.landingInitCounterSec >= landingInitThresholdSec {
		v.Altitude = b.AtmosphereKm - 1
	}
}

// maybeUnland implements spec.md §4.3 step 5.
func (v *Vessel) maybeUnland() {
	if v.Landed && v.Control.Forward {
		v.Landed = false
		v.Altitude = 0.1
		v.VerticalVelocity = 0.2
		v.takeoffGraceSec = takeoffGraceSec
	}
}

// integrateAltitude implements spec.md §4.3.4's altitude integration and
// ground glue, folding in the takeoff-grace no-op and the >1.2 km/s
// impact-destroys-else-lands rule.
func (v *Vessel) integrateAltitude(b homeBody, dt float64) {
	if v.takeoffGraceSec > 0 {
		v.takeoffGraceSec -= dt
		if v.takeoffGraceSec < 0 {
			v.takeoffGraceSec = 0
		}
	}

	if v.Landed {
		return
	}

	inAtmo := v.Altitude < b.AtmosphereKm
	if inAtmo {
		liftFrac := 0.5 + 0.5*math.Pow(1-v.Altitude/math.Max(b.AtmosphereKm, 1e-9), 2)
		liftAccel := v.lastForwardThrustAccumKN * 1000 / math.Max(v.Mass(), 1e-9) / 1000 * liftFrac
		gravityAccel := 0.1 * b.SurfaceG
		v.VerticalVelocity += (liftAccel - gravityAccel) * dt
	} else {
		const vacuumDamperDefaultSec = 12.0
		tau := vacuumDamperDefaultSec
		v.VerticalVelocity -= v.VerticalVelocity * (dt / tau)
	}

	v.Altitude += v.VerticalVelocity * dt

	if v.Altitude <= 0 && v.VerticalVelocity < 0 {
		if v.takeoffGraceSec > 0 {
			v.Altitude = 0
			v.VerticalVelocity = 0
			return
		}
		if -v.VerticalVelocity > impactDestroySpeedKmS {
			v.Destroyed = true
			return
		}
		v.Landed = true
		v.Altitude = 0
		v.VerticalVelocity = 0
	}

	v.applyGroundGlue(b, dt)
	v.lastForwardThrustAccumKN = 0
}

// applyGroundGlue implements spec.md §4.3.4's ground glue: velocity
// blends toward the body's velocity with a time-constant growing from
// 0.15s at the surface to 8s at atmosphere top, gated to 0 between 90%
// and 100% altitude; position glue only applies below 35% atmosphere.
func (v *Vessel) applyGroundGlue(b homeBody, dt float64) {
	if b.AtmosphereKm <= 0 {
		return
	}
	frac := v.Altitude / b.AtmosphereKm
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		return
	}

	gate := 1.0
	if frac >= 0.9 {
		gate = 1 - (frac-0.9)/0.1
		if gate < 0 {
			gate = 0
		}
	}
	if gate <= 0 {
		return
	}

	tau := 0.15 + (8.0-0.15)*frac
	alpha := gate * (1 - math.Exp(-dt/tau))
	v.Velocity = v.Velocity.Add(b.Velocity.Sub(v.Velocity).Scale(alpha))

	if frac < 0.35 {
		anchorAngle := (v.landedAngleOffsetDeg() + b.RotDeg) * math.Pi / 180
		anchor := world.Vec2{X: b.RadiusKm * math.Cos(anchorAngle), Y: b.RadiusKm * math.Sin(anchorAngle)}.Add(b.Position)
		v.Position = v.Position.Add(anchor.Sub(v.Position).Scale(alpha))
	}
}

// landedAngleOffsetDeg is the vessel's fixed angular offset on the
// body's surface, captured at the moment of touchdown.
func (v *Vessel) landedAngleOffsetDeg() float64 {
	return v.RotationDeg
}
