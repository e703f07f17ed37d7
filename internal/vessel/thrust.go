package vessel

import (
	"math"

	"github.com/everforgeworks/galaxyserver/internal/catalog"
	"github.com/everforgeworks/galaxyserver/internal/world"
)

// VMaxKmS is the warp-bonus hard clamp, 0.99999c (spec.md §4.3.3).
const VMaxKmS = 0.99999 * SpeedOfLightKmS

// relativisticThreshold is 0.9c, where the thrust damper kicks in.
const relativisticThreshold = 0.9 * SpeedOfLightKmS

// headingVec returns the unit heading vector for a rotation in degrees.
func headingVec(rotationDeg float64) world.Vec2 {
	rad := rotationDeg * math.Pi / 180
	return world.Vec2{X: math.Cos(rad), Y: math.Sin(rad)}
}

// applyIonDrive implements spec.md §4.3.1.
func (v *Vessel) applyIonDrive(cat *catalog.Catalog, dt float64) {
	sys := v.System(SysIonDrive)
	if sys == nil || !sys.Active || v.ChargeFraction() <= 0.05 {
		return
	}
	drawAmount := sys.Amount * 0.001 * dt
	throttle := v.DrawCharge(drawAmount)
	thrust := sys.Amount * throttle * cat.Tuning.GlobalThrustMult
	v.applyForwardForceKN(thrust, dt)
	v.lastForwardThrustAccumKN += thrust
	v.RotationVelocityDegPerSec *= 0.995 // independently damps rotational velocity by 0.5%
}

// applyWarpDrive implements spec.md §4.3.2. The bonus easing, draw, and
// target magnitude all use simulated seconds (dt) throughout, resolving
// the §9 open question in favor of one consistent time base.
func (v *Vessel) applyWarpDrive(cat *catalog.Catalog, dt float64) {
	sys := v.System(SysWarpDrive)
	canEngage := sys != nil && sys.Active && !v.Landed && v.Altitude >= 0 &&
		v.ChargeFraction() > 0.05 && v.SystemActive

	if !canEngage {
		if v.warpEngagedLastTick {
			v.Velocity = v.warpSavedVelocity
			v.warpBonus = world.Vec2{}
		}
		v.warpEngagedLastTick = false
		return
	}

	if !v.warpEngagedLastTick {
		v.warpSavedVelocity = v.Velocity
	}

	const tauDefaultSec = 1000.0
	tau := tauDefaultSec / math.Max(sys.Amount, 1e-9)
	targetMag := SpeedOfLightKmS * math.Pow(float64(v.MaxWarpTier), 1.0/0.3)
	target := headingVec(v.RotationDeg).Scale(targetMag)

	alpha := 1 - math.Exp(-dt/tau)
	v.warpBonus = v.warpBonus.Add(target.Sub(v.warpBonus).Scale(alpha))

	composed := v.warpSavedVelocity.Add(v.warpBonus)
	if composed.Len() > VMaxKmS {
		composed = composed.Normalized().Scale(VMaxKmS)
	}
	v.Velocity = composed
	v.warpEngagedLastTick = true
}

// applyChemicalThrust implements spec.md §4.3.3, simplified to operate
// through the vessel's aggregate forward/reverse thrust (no per-nozzle
// offset is modeled in the catalog), with CW/CCW as pure rotational
// thrusters — a vessel's net linear thrust passes through its center of
// mass by construction here, so forward/reverse contribute no torque
// while CW/CCW contribute no linear force, matching the spec's "apply
// through the center of mass (zero torque)" ion-drive case generalized.
func (v *Vessel) applyChemicalThrust(cat *catalog.Catalog, spawn func(pos, vel world.Vec2, mass, radius float64, stage int), dt float64) {
	v.consumeStageFuelFor(cat, spawn, dt)

	var forceKN float64
	if v.Control.Forward {
		forceKN += v.ForwardThrustKN
	}
	if v.Control.Reverse {
		forceKN -= v.ReverseThrustKN
	}
	if forceKN != 0 {
		v.applyForwardForceKN(forceKN, dt)
		if forceKN > 0 {
			v.lastForwardThrustAccumKN += forceKN
		}
	}

	const torqueGainDegPerSec2PerKN = 2.0
	if v.Control.CCW {
		v.RotationVelocityDegPerSec += torqueGainDegPerSec2PerKN * dt
	}
	if v.Control.CW {
		v.RotationVelocityDegPerSec -= torqueGainDegPerSec2PerKN * dt
	}
}

// consumeStageFuelFor draws fuel for whichever thrust controls are
// engaged this tick, auto-staging on depletion (spec.md §4.3.3).
func (v *Vessel) consumeStageFuelFor(cat *catalog.Catalog, spawn func(pos, vel world.Vec2, mass, radius float64, stage int), dt float64) {
	anyEngaged := v.Control.Forward || v.Control.Reverse || v.Control.CCW || v.Control.CW
	if !anyEngaged {
		return
	}
	consumption := v.stageConsumptionRate(cat)
	if consumption <= 0 {
		return
	}
	needed := consumption * 0.003 * dt
	drawn := v.DrawFuel(needed)
	if drawn < needed {
		v.Control.Forward, v.Control.Reverse, v.Control.CCW, v.Control.CW = false, false, false, false
		if v.StageFuelCap[v.CurrentStage] > 0 && v.StageFuel[v.CurrentStage] <= 0 {
			v.autoStage(cat, spawn)
		}
	}
}

func (v *Vessel) stageConsumptionRate(cat *catalog.Catalog) float64 {
	total := 0.0
	for _, ac := range v.Components {
		if ac.Stage != v.CurrentStage {
			continue
		}
		if c := cat.Components[ac.ComponentID]; c != nil {
			total += c.FuelConsumption
		}
	}
	return total
}

// autoStage drops the current stage and every attachment in it,
// spawning a jettisoned-component object per dropped component, per
// spec.md §4.3.3 and §8's auto-stage scenario.
func (v *Vessel) autoStage(cat *catalog.Catalog, spawn func(pos, vel world.Vec2, mass, radius float64, stage int)) {
	if v.CurrentStage <= 0 {
		return
	}
	dropped := v.CurrentStage
	var kept []AttachedComponent
	var droppedComponents []AttachedComponent
	for _, ac := range v.Components {
		if ac.Stage == dropped {
			droppedComponents = append(droppedComponents, ac)
		} else {
			kept = append(kept, ac)
		}
	}
	v.Components = kept
	delete(v.StageFuel, dropped)
	delete(v.StageFuelCap, dropped)
	delete(v.StageCharge, dropped)
	delete(v.StageChargeCap, dropped)
	v.CurrentStage--
	v.RecomputeStats(cat)

	if spawn == nil {
		return
	}
	for _, ac := range droppedComponents {
		c := cat.Components[ac.ComponentID]
		mass, radius := 1.0, 0.5
		if c != nil {
			mass = c.Mass
		}
		push := headingVec(v.RotationDeg).Scale(-0.05)
		spawn(v.Position.Add(ac.LocalPos), v.Velocity.Add(push), mass, radius, dropped)
	}
}

// applyForwardForceKN applies a scalar force along the vessel's heading
// (no torque) and folds in the relativistic damper (spec.md §4.3.3)
// once the vessel exceeds 0.9c.
func (v *Vessel) applyForwardForceKN(forceKN float64, dt float64) {
	accel := forceKN * 1000 / math.Max(v.Mass(), 1e-9) / 1000 // kN -> N, N/kg -> km/s^2
	dv := headingVec(v.RotationDeg).Scale(accel * dt)
	v.Velocity = v.applyRelativisticDamper(dv)
}

func (v *Vessel) applyRelativisticDamper(dv world.Vec2) world.Vec2 {
	speed := v.Velocity.Len()
	if speed <= relativisticThreshold {
		return clampLightspeed(v.Velocity.Add(dv))
	}

	dir := v.Velocity.Normalized()
	parallel := dir.Scale(dv.Dot(dir))
	perp := dv.Sub(parallel)

	damp := math.Pow(1-(speed-relativisticThreshold)/(VMaxKmS-relativisticThreshold), 3)
	if damp < 0 {
		damp = 0
	}
	damped := v.Velocity.Add(perp).Add(parallel.Scale(damp))
	if damped.Len() > VMaxKmS {
		damped = damped.Normalized().Scale(VMaxKmS)
	}
	return damped
}

// clampLightspeed enforces ||v|| <= c unless warp is actively bypassing
// the clamp this tick (spec.md §3 invariant, §4.3 step 15).
func clampLightspeed(v world.Vec2) world.Vec2 {
	if v.Len() > SpeedOfLightKmS {
		return v.Normalized().Scale(SpeedOfLightKmS)
	}
	return v
}
